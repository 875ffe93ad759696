package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

// RecordMovement validates the movement against current stock, appends it and
// only then applies its delta to the ledger. A rejected movement leaves both
// the movement table and stock untouched.
func (s *Service) RecordMovement(ctx context.Context, req domain.MovementRequest) (domain.Movement, error) {
	if err := validateMovementQuantity(req.Type, req.Quantity); err != nil {
		return domain.Movement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.repo.GetProduct(ctx, normalizeID(req.ProductID))
	if err != nil {
		return domain.Movement{}, err
	}
	delta := req.Type.StockDelta(req.Quantity)
	if product.Quantity+delta < 0 {
		return domain.Movement{}, fmt.Errorf("%w: product %s has %d, movement needs %d", store.ErrInsufficientStock, product.ID, product.Quantity, -delta)
	}

	date := s.now()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	created, err := s.repo.CreateMovement(ctx, domain.Movement{
		Type:        req.Type,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Date:        date,
		User:        actorName(ctx),
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.Movement{}, err
	}
	if _, err := s.repo.AdjustStock(ctx, product.ID, delta); err != nil {
		return domain.Movement{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("movement recorded",
		zap.String("movement_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("product_id", created.ProductID),
		zap.Int("quantity", created.Quantity),
		zap.String("user", created.User),
	)
	return *created, nil
}

// UpdateMovement edits the record only. Stock is never recalculated from an
// edited movement.
func (s *Service) UpdateMovement(ctx context.Context, id string, req domain.MovementUpdateRequest) (domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetMovement(ctx, normalizeID(id))
	if err != nil {
		return domain.Movement{}, err
	}

	updated := *existing
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Quantity != nil {
		updated.Quantity = *req.Quantity
	}
	if req.Date != nil && !req.Date.IsZero() {
		updated.Date = req.Date.UTC()
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.ProductID != nil {
		product, err := s.repo.GetProduct(ctx, normalizeID(*req.ProductID))
		if err != nil {
			return domain.Movement{}, err
		}
		updated.ProductID = product.ID
		updated.ProductName = product.Name
	}
	if err := validateMovementQuantity(updated.Type, updated.Quantity); err != nil {
		return domain.Movement{}, err
	}

	saved, err := s.repo.UpdateMovement(ctx, updated)
	if err != nil {
		return domain.Movement{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("movement updated", zap.String("movement_id", saved.ID), zap.String("user", actorName(ctx)))
	return *saved, nil
}

// DeleteMovement removes the record. The stock it caused is not reverted.
func (s *Service) DeleteMovement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = normalizeID(id)
	if err := s.repo.DeleteMovement(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.log.Info("movement deleted", zap.String("movement_id", id), zap.String("user", actorName(ctx)))
	return nil
}

func (s *Service) GetMovement(ctx context.Context, id string) (domain.Movement, error) {
	movement, err := s.repo.GetMovement(ctx, normalizeID(id))
	if err != nil {
		return domain.Movement{}, err
	}
	return *movement, nil
}

// ListMovements returns the matching movements, newest first. Movements on
// the same date keep their recording order reversed.
func (s *Service) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	movements, err := s.repo.ListMovements(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	productID := normalizeID(filter.ProductID)
	result := make([]domain.Movement, 0, len(movements))
	for _, m := range movements {
		if query != "" && !movementMatches(m, query) {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if productID != "" && m.ProductID != productID {
			continue
		}
		if filter.User != "" && m.User != filter.User {
			continue
		}
		if !inDateRange(m.Date, filter.From, filter.To) {
			continue
		}
		result = append(result, m)
	}

	slices.Reverse(result)
	slices.SortStableFunc(result, func(a, b domain.Movement) int {
		return b.Date.Compare(a.Date)
	})
	return result, nil
}

func (s *Service) ComputeMovementStats(ctx context.Context) (domain.MovementStats, error) {
	return cachedStats(ctx, s, "movements", func() (domain.MovementStats, error) {
		movements, err := s.repo.ListMovements(ctx)
		if err != nil {
			return domain.MovementStats{}, err
		}

		var stats domain.MovementStats
		for _, m := range movements {
			stats.Total++
			switch m.Type {
			case domain.MovementEntrada:
				stats.Entradas++
			case domain.MovementSalida:
				stats.Salidas++
			case domain.MovementAjuste, domain.MovementDevolucion:
				stats.AjustesDevoluciones++
			}
		}
		return stats, nil
	})
}

func (s *Service) NextMovementID(ctx context.Context) (string, error) {
	return s.repo.NextMovementID(ctx)
}

func validateMovementQuantity(t domain.MovementType, qty int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown movement type %q", store.ErrInvalidInput, t)
	}
	if t == domain.MovementAjuste {
		if qty == 0 {
			return fmt.Errorf("%w: adjustment quantity must not be zero", store.ErrInvalidInput)
		}
		return nil
	}
	if qty < 1 {
		return fmt.Errorf("%w: %s quantity must be at least 1", store.ErrInvalidInput, t)
	}
	return nil
}

func movementMatches(m domain.Movement, query string) bool {
	fields := []string{
		m.ID,
		string(m.Type),
		m.ProductID,
		m.ProductName,
		m.User,
		m.Date.Format("2006-01-02"),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
