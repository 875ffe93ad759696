package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

type returnDraft struct {
	line    domain.ReturnLine
	product domain.Product
	sold    domain.SaleItem
}

// ProcessReturn puts returned units back into stock. Each product may be
// returned up to the quantity sold minus what earlier returns against the same
// sale already took back. The sale itself is never modified.
func (s *Service) ProcessReturn(ctx context.Context, req domain.ReturnRequest) (domain.Return, error) {
	saleID := normalizeID(req.SaleID)
	reason := strings.TrimSpace(req.Reason)

	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.Return{}, err
	}

	soldByProduct := make(map[string]domain.SaleItem, len(sale.Items))
	for _, item := range sale.Items {
		if prev, ok := soldByProduct[item.ProductID]; ok {
			item.Quantity += prev.Quantity
			item.Name = prev.Name
		}
		soldByProduct[item.ProductID] = item
	}

	alreadyReturned, err := s.repo.GetReturnedQtyBySale(ctx, sale.ID)
	if err != nil {
		return domain.Return{}, err
	}

	lines, err := normalizeReturnLines(req.Items)
	if err != nil {
		return domain.Return{}, err
	}

	drafts := make([]returnDraft, 0, len(lines))
	for _, line := range lines {
		sold, ok := soldByProduct[line.ProductID]
		if !ok {
			return domain.Return{}, fmt.Errorf("%w: %s not in sale %s", store.ErrProductNotInSale, line.ProductID, sale.ID)
		}
		if remaining := sold.Quantity - alreadyReturned[line.ProductID]; line.Quantity > remaining {
			return domain.Return{}, fmt.Errorf("%w: %s sold %d, returnable %d, requested %d", store.ErrExceedsSoldQuantity, line.ProductID, sold.Quantity, remaining, line.Quantity)
		}
		product, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return domain.Return{}, err
		}
		drafts = append(drafts, returnDraft{line: line, product: *product, sold: sold})
	}

	now := s.now()
	user := actorName(ctx)

	items := make([]domain.ReturnItem, 0, len(drafts))
	for _, d := range drafts {
		// A line without its own reason inherits the one given for the return.
		lineReason := d.line.Reason
		if lineReason == "" {
			lineReason = reason
		}
		if _, err := s.repo.AdjustStock(ctx, d.product.ID, d.line.Quantity); err != nil {
			return domain.Return{}, err
		}
		if _, err := s.repo.CreateMovement(ctx, domain.Movement{
			Type:        domain.MovementDevolucion,
			ProductID:   d.product.ID,
			ProductName: d.product.Name,
			Quantity:    d.line.Quantity,
			Date:        now,
			User:        user,
			Notes:       fmt.Sprintf("Devolución de venta %s. Motivo: %s", sale.ID, lineReason),
		}); err != nil {
			return domain.Return{}, err
		}
		items = append(items, domain.ReturnItem{
			ProductID: d.sold.ProductID,
			Name:      d.sold.Name,
			Quantity:  d.line.Quantity,
			Reason:    lineReason,
		})
	}

	created, err := s.repo.CreateReturn(ctx, domain.Return{
		SaleID: sale.ID,
		Date:   now,
		Items:  items,
		Reason: reason,
		Status: domain.ReturnStatusProcessed,
		User:   user,
	})
	if err != nil {
		return domain.Return{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("return processed",
		zap.String("return_id", created.ID),
		zap.String("sale_id", created.SaleID),
		zap.Int("lines", len(created.Items)),
		zap.String("user", user),
	)
	return *created, nil
}

func (s *Service) ListReturns(ctx context.Context) ([]domain.Return, error) {
	return s.repo.ListReturns(ctx)
}

func (s *Service) ListReturnsBySale(ctx context.Context, saleID string) ([]domain.Return, error) {
	returns, err := s.repo.ListReturns(ctx)
	if err != nil {
		return nil, err
	}

	saleID = normalizeID(saleID)
	result := make([]domain.Return, 0)
	for _, ret := range returns {
		if ret.SaleID == saleID {
			result = append(result, ret)
		}
	}
	return result, nil
}

func (s *Service) NextReturnID(ctx context.Context) (string, error) {
	return s.repo.NextReturnID(ctx)
}

func normalizeReturnLines(items []domain.ReturnLine) ([]domain.ReturnLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: return has no items", store.ErrInvalidInput)
	}

	indexByID := make(map[string]int, len(items))
	lines := make([]domain.ReturnLine, 0, len(items))
	for _, item := range items {
		id := normalizeID(item.ProductID)
		if id == "" || item.Quantity < 1 {
			return nil, fmt.Errorf("%w: each return line needs a product and a quantity of at least 1", store.ErrInvalidInput)
		}
		if idx, ok := indexByID[id]; ok {
			lines[idx].Quantity += item.Quantity
			continue
		}
		indexByID[id] = len(lines)
		lines = append(lines, domain.ReturnLine{ProductID: id, Quantity: item.Quantity, Reason: strings.TrimSpace(item.Reason)})
	}
	return lines, nil
}
