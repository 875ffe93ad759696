package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

func (s *Service) RegisterProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	product := domain.Product{
		ID:        normalizeID(req.ID),
		Name:      strings.TrimSpace(req.Name),
		Category:  req.Category,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product.DateAdded = s.now()
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("product registered", zap.String("product_id", created.ID), zap.String("user", actorName(ctx)))
	return *created, nil
}

// UpdateProduct is the administrative edit. It may set the quantity directly;
// no movement is recorded for it.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetProduct(ctx, normalizeID(id))
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.Quantity != nil {
		updated.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		updated.UnitPrice = *req.UnitPrice
	}
	if err := validateProduct(updated); err != nil {
		return domain.Product{}, err
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateStats(ctx)
	s.log.Info("product updated", zap.String("product_id", saved.ID), zap.String("user", actorName(ctx)))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = normalizeID(id)
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.invalidateStats(ctx)
	s.log.Info("product deleted", zap.String("product_id", id), zap.String("user", actorName(ctx)))
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, normalizeID(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

// ListProducts matches Query against ID, name and category, case-insensitive.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.ID), query) &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(string(p.Category)), query) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.LowStockOnly && p.Quantity >= domain.LowStockThreshold {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Service) ComputeInventoryStats(ctx context.Context) (domain.InventoryStats, error) {
	return cachedStats(ctx, s, "inventory", func() (domain.InventoryStats, error) {
		products, err := s.repo.ListProducts(ctx)
		if err != nil {
			return domain.InventoryStats{}, err
		}

		stats := domain.InventoryStats{TotalValue: decimal.Zero}
		for _, p := range products {
			stats.Count++
			stats.TotalUnits += p.Quantity
			stats.TotalValue = stats.TotalValue.Add(p.StockValue())
			if p.StockLevel() == domain.StockLevelLow {
				stats.LowStockCount++
			}
		}
		stats.TotalValue = stats.TotalValue.Round(2)
		return stats, nil
	})
}

// AdjustStock applies a signed delta through the ledger without recording a
// movement. A result below zero fails with store.ErrInsufficientStock.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.repo.AdjustStock(ctx, normalizeID(id), delta)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateStats(ctx)
	return *product, nil
}

func (s *Service) NextProductID(ctx context.Context) (string, error) {
	return s.repo.NextProductID(ctx)
}

func validateProduct(p domain.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", store.ErrInvalidInput)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", store.ErrInvalidInput, p.Category)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", store.ErrInvalidInput)
	}
	if p.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", store.ErrInvalidInput)
	}
	return nil
}
