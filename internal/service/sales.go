package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

// RegisterSale validates every line against current stock before touching any
// state, then stores the sale with a frozen copy of its items and records one
// Salida movement per line.
func (s *Service) RegisterSale(ctx context.Context, draft domain.SaleDraft) (domain.Sale, error) {
	lines, err := normalizeSaleLines(draft.Items)
	if err != nil {
		return domain.Sale{}, err
	}
	if !draft.PaymentMethod.Valid() {
		return domain.Sale{}, fmt.Errorf("%w: unknown payment method %q", store.ErrInvalidInput, draft.PaymentMethod)
	}
	saleID := normalizeID(draft.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if saleID != "" {
		_, err := s.repo.GetSale(ctx, saleID)
		if err == nil {
			return domain.Sale{}, fmt.Errorf("%w: sale %s", store.ErrDuplicateID, saleID)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Sale{}, err
		}
	}

	cart := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return domain.Sale{}, err
		}
		if product.Quantity < line.Quantity {
			return domain.Sale{}, fmt.Errorf("%w: product %s has %d, sale needs %d", store.ErrInsufficientStock, product.ID, product.Quantity, line.Quantity)
		}
		cart = append(cart, domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.UnitPrice,
		})
	}

	promos, err := s.repo.ListPromotions(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	now := s.now()
	totals := s.engine.Apply(cart, promos, now)

	items := make([]domain.SaleItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, domain.SaleItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	user := actorName(ctx)
	created, err := s.repo.CreateSale(ctx, domain.Sale{
		ID:                saleID,
		Date:              now,
		Items:             items,
		TotalGross:        totals.Subtotal,
		TotalDiscount:     totals.DiscountTotal,
		TotalFinal:        totals.Total,
		PaymentMethod:     draft.PaymentMethod,
		PromotionsApplied: totals.Applied,
		User:              user,
	})
	if err != nil {
		return domain.Sale{}, err
	}

	for _, item := range created.Items {
		if _, err := s.repo.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			return domain.Sale{}, err
		}
		if _, err := s.repo.CreateMovement(ctx, domain.Movement{
			Type:        domain.MovementSalida,
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			Date:        now,
			User:        user,
			Notes:       "Venta " + created.ID,
		}); err != nil {
			return domain.Sale{}, err
		}
	}

	s.invalidateStats(ctx)
	s.log.Info("sale registered",
		zap.String("sale_id", created.ID),
		zap.Int("lines", len(created.Items)),
		zap.String("total", created.TotalFinal.StringFixed(2)),
		zap.String("payment_method", string(created.PaymentMethod)),
		zap.String("user", user),
	)
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, normalizeID(id))
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) SearchSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	idQuery := strings.ToLower(strings.TrimSpace(filter.ID))
	result := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if idQuery != "" && !strings.Contains(strings.ToLower(sale.ID), idQuery) {
			continue
		}
		if filter.PaymentMethod != "" && sale.PaymentMethod != filter.PaymentMethod {
			continue
		}
		if !inDateRange(sale.Date, filter.From, filter.To) {
			continue
		}
		result = append(result, sale)
	}
	return result, nil
}

func (s *Service) ComputeSalesStats(ctx context.Context) (domain.SalesStats, error) {
	now := s.now()
	key := "sales:" + now.Format("2006-01-02")
	return cachedStats(ctx, s, key, func() (domain.SalesStats, error) {
		sales, err := s.repo.ListSales(ctx)
		if err != nil {
			return domain.SalesStats{}, err
		}

		today := domain.Day(now)
		stats := domain.SalesStats{
			RevenueTotal: decimal.Zero,
			RevenueToday: decimal.Zero,
			RevenueMonth: decimal.Zero,
		}
		for _, sale := range sales {
			stats.TotalSales++
			stats.RevenueTotal = stats.RevenueTotal.Add(sale.TotalFinal)

			day := domain.Day(sale.Date)
			if day.Year() == today.Year() && day.Month() == today.Month() {
				stats.SalesMonth++
				stats.RevenueMonth = stats.RevenueMonth.Add(sale.TotalFinal)
				if day.Equal(today) {
					stats.SalesToday++
					stats.RevenueToday = stats.RevenueToday.Add(sale.TotalFinal)
				}
			}
		}
		return stats, nil
	})
}

func (s *Service) NextSaleID(ctx context.Context) (string, error) {
	return s.repo.NextSaleID(ctx)
}

// normalizeSaleLines merges repeated products into one line, keeping the order
// in which each product first appears.
func normalizeSaleLines(items []domain.SaleLine) ([]domain.SaleLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrInvalidInput)
	}

	indexByID := make(map[string]int, len(items))
	lines := make([]domain.SaleLine, 0, len(items))
	for _, item := range items {
		id := normalizeID(item.ProductID)
		if id == "" || item.Quantity < 1 {
			return nil, fmt.Errorf("%w: each sale line needs a product and a quantity of at least 1", store.ErrInvalidInput)
		}
		if idx, ok := indexByID[id]; ok {
			lines[idx].Quantity += item.Quantity
			continue
		}
		indexByID[id] = len(lines)
		lines = append(lines, domain.SaleLine{ProductID: id, Quantity: item.Quantity})
	}
	return lines, nil
}
