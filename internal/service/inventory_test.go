package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

func TestRegisterProduct(t *testing.T) {
	ctx := adminCtx()

	t.Run("assigns next id after deletes", func(t *testing.T) {
		svc := newTestService(t)
		require.NoError(t, svc.DeleteProduct(ctx, "P003"))

		created, err := svc.RegisterProduct(ctx, domain.ProductCreateRequest{
			Name:      "Galletas Soda Field",
			Category:  domain.CategorySnacks,
			Quantity:  12,
			UnitPrice: dec("1.20"),
		})
		require.NoError(t, err)
		assert.Equal(t, "P006", created.ID)
		assert.Equal(t, fixedNow, created.DateAdded)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		svc := newTestService(t)
		_, err := svc.RegisterProduct(ctx, domain.ProductCreateRequest{
			ID:        "p001",
			Name:      "Otra gaseosa",
			Category:  domain.CategoryBebidas,
			UnitPrice: dec("3"),
		})
		assert.ErrorIs(t, err, store.ErrDuplicateID)
	})

	t.Run("validates fields", func(t *testing.T) {
		svc := newTestService(t)
		cases := []domain.ProductCreateRequest{
			{Name: "", Category: domain.CategoryBebidas},
			{Name: "Chicha", Category: "Licores"},
			{Name: "Chicha", Category: domain.CategoryBebidas, Quantity: -1},
			{Name: "Chicha", Category: domain.CategoryBebidas, UnitPrice: dec("-0.10")},
		}
		for _, req := range cases {
			_, err := svc.RegisterProduct(ctx, req)
			assert.ErrorIs(t, err, store.ErrInvalidInput)
		}
		next, err := svc.NextProductID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "P006", next)
	})
}

func TestUpdateProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	price := dec("7.00")
	qty := 40
	updated, err := svc.UpdateProduct(ctx, "P001", domain.ProductUpdateRequest{UnitPrice: &price, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "Inca Kola 1.5L", updated.Name)
	assert.Equal(t, 40, updated.Quantity)
	assert.True(t, updated.UnitPrice.Equal(price))

	negative := -1
	_, err = svc.UpdateProduct(ctx, "P001", domain.ProductUpdateRequest{Quantity: &negative})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	assert.Equal(t, 40, stockOf(t, svc, "P001"))

	_, err = svc.UpdateProduct(ctx, "P404", domain.ProductUpdateRequest{Quantity: &qty})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListProducts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter domain.ProductFilter
		want   []string
	}{
		{name: "all", filter: domain.ProductFilter{}, want: []string{"P001", "P002", "P003", "P004", "P005"}},
		{name: "query by name", filter: domain.ProductFilter{Query: "LECHE"}, want: []string{"P003"}},
		{name: "query by id", filter: domain.ProductFilter{Query: "p004"}, want: []string{"P004"}},
		{name: "category", filter: domain.ProductFilter{Category: domain.CategoryBebidas}, want: []string{"P001"}},
		{name: "low stock", filter: domain.ProductFilter{LowStockOnly: true}, want: []string{"P005"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			products, err := svc.ListProducts(ctx, tc.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(products))
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestComputeInventoryStats(t *testing.T) {
	svc := newTestService(t)

	stats, err := svc.ComputeInventoryStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 110, stats.TotalUnits)
	assert.True(t, stats.TotalValue.Equal(dec("340.90")), "total value %s", stats.TotalValue)
	assert.Equal(t, 1, stats.LowStockCount)
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	_, err := svc.AdjustStock(ctx, "P005", -3)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, svc, "P005"))

	p, err := svc.AdjustStock(ctx, "P005", -2)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Quantity)

	_, err = svc.AdjustStock(ctx, "P404", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStockLevel(t *testing.T) {
	assert.Equal(t, domain.StockLevelLow, domain.Product{Quantity: 4}.StockLevel())
	assert.Equal(t, domain.StockLevelMedium, domain.Product{Quantity: 5}.StockLevel())
	assert.Equal(t, domain.StockLevelMedium, domain.Product{Quantity: 14}.StockLevel())
	assert.Equal(t, domain.StockLevelHigh, domain.Product{Quantity: 15}.StockLevel())
}
