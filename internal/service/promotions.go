package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

var hundredPercent = decimal.NewFromInt(100)

func (s *Service) CreatePromotion(ctx context.Context, req domain.PromotionCreateRequest) (domain.Promotion, error) {
	status := req.Status
	if status == "" {
		status = domain.PromotionActive
	}
	promo := domain.Promotion{
		ID:        normalizeID(req.ID),
		Name:      strings.TrimSpace(req.Name),
		Type:      req.Type,
		Value:     req.Value,
		ProductID: normalizeID(req.ProductID),
		DateStart: domain.Day(req.DateStart),
		DateEnd:   domain.Day(req.DateEnd),
		Status:    status,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.repo.GetProduct(ctx, promo.ProductID)
	if err != nil {
		return domain.Promotion{}, err
	}
	promo.ProductName = product.Name
	if err := validatePromotion(promo); err != nil {
		return domain.Promotion{}, err
	}
	promo.Value = promo.Value.Round(2)

	promo.CreatedAt = s.now()
	created, err := s.repo.CreatePromotion(ctx, promo)
	if err != nil {
		return domain.Promotion{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("promotion created", zap.String("promotion_id", created.ID), zap.String("product_id", created.ProductID), zap.String("user", actorName(ctx)))
	return *created, nil
}

func (s *Service) UpdatePromotion(ctx context.Context, id string, req domain.PromotionUpdateRequest) (domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetPromotion(ctx, normalizeID(id))
	if err != nil {
		return domain.Promotion{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Value != nil {
		updated.Value = *req.Value
	}
	if req.DateStart != nil {
		updated.DateStart = domain.Day(*req.DateStart)
	}
	if req.DateEnd != nil {
		updated.DateEnd = domain.Day(*req.DateEnd)
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.ProductID != nil {
		product, err := s.repo.GetProduct(ctx, normalizeID(*req.ProductID))
		if err != nil {
			return domain.Promotion{}, err
		}
		updated.ProductID = product.ID
		updated.ProductName = product.Name
	}
	if err := validatePromotion(updated); err != nil {
		return domain.Promotion{}, err
	}
	updated.Value = updated.Value.Round(2)

	saved, err := s.repo.UpdatePromotion(ctx, updated)
	if err != nil {
		return domain.Promotion{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("promotion updated", zap.String("promotion_id", saved.ID), zap.String("user", actorName(ctx)))
	return *saved, nil
}

func (s *Service) DeletePromotion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = normalizeID(id)
	if err := s.repo.DeletePromotion(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.log.Info("promotion deleted", zap.String("promotion_id", id), zap.String("user", actorName(ctx)))
	return nil
}

func (s *Service) GetPromotion(ctx context.Context, id string) (domain.Promotion, error) {
	promo, err := s.repo.GetPromotion(ctx, normalizeID(id))
	if err != nil {
		return domain.Promotion{}, err
	}
	return *promo, nil
}

// SearchPromotions keeps creation order. From bounds the start date and To
// bounds the end date.
func (s *Service) SearchPromotions(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, error) {
	promos, err := s.repo.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(filter.Name))
	productID := normalizeID(filter.ProductID)
	result := make([]domain.Promotion, 0, len(promos))
	for _, p := range promos {
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if productID != "" && p.ProductID != productID {
			continue
		}
		if !filter.From.IsZero() && p.DateStart.Before(domain.Day(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && p.DateEnd.After(domain.Day(filter.To)) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Service) ActivePromotions(ctx context.Context, asOf time.Time) ([]domain.Promotion, error) {
	promos, err := s.repo.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Active(promos, asOf), nil
}

// CalculateCart prices a cart with the promotions current today. It reads
// nothing but the promotion table; callers supply names and prices.
func (s *Service) CalculateCart(ctx context.Context, cart []domain.CartLine) (domain.CartTotals, error) {
	promos, err := s.repo.ListPromotions(ctx)
	if err != nil {
		return domain.CartTotals{}, err
	}
	return s.engine.Apply(cart, promos, s.now()), nil
}

func (s *Service) ComputePromotionStats(ctx context.Context) (domain.PromotionStats, error) {
	today := s.now()
	key := "promotions:" + today.Format("2006-01-02")
	return cachedStats(ctx, s, key, func() (domain.PromotionStats, error) {
		promos, err := s.repo.ListPromotions(ctx)
		if err != nil {
			return domain.PromotionStats{}, err
		}

		var stats domain.PromotionStats
		for _, p := range promos {
			stats.Total++
			if p.Status == domain.PromotionActive {
				stats.Active++
			} else {
				stats.Inactive++
			}
			if p.IsCurrent(today) {
				stats.Current++
			}
		}
		return stats, nil
	})
}

func (s *Service) NextPromotionID(ctx context.Context) (string, error) {
	return s.repo.NextPromotionID(ctx)
}

func validatePromotion(p domain.Promotion) error {
	if p.Name == "" {
		return fmt.Errorf("%w: promotion name is required", store.ErrInvalidInput)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown promotion type %q", store.ErrInvalidInput, p.Type)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown promotion status %q", store.ErrInvalidInput, p.Status)
	}
	if p.DateStart.IsZero() || p.DateEnd.IsZero() {
		return fmt.Errorf("%w: promotion dates are required", store.ErrInvalidDateRange)
	}
	if p.DateEnd.Before(p.DateStart) {
		return fmt.Errorf("%w: ends %s before it starts %s", store.ErrInvalidDateRange, p.DateEnd.Format("2006-01-02"), p.DateStart.Format("2006-01-02"))
	}
	switch p.Type {
	case domain.PromotionPercentage:
		if p.Value.IsNegative() || p.Value.GreaterThan(hundredPercent) {
			return fmt.Errorf("%w: %s is outside 0-100", store.ErrInvalidPercentage, p.Value)
		}
	case domain.PromotionFixedAmount:
		if p.Value.IsNegative() {
			return fmt.Errorf("%w: fixed amount must not be negative", store.ErrInvalidInput)
		}
	}
	return nil
}
