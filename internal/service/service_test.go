package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
	"qbodega/backend/internal/store/memory"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := New(memory.NewSeeded(), nil, nil, 0, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func stockOf(t *testing.T, svc *Service, id string) int {
	t.Helper()
	p, err := svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func movementCount(t *testing.T, svc *Service) int {
	t.Helper()
	movements, err := svc.ListMovements(context.Background(), domain.MovementFilter{})
	require.NoError(t, err)
	return len(movements)
}

type mapStatsCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	hits        int
	invalidated int
}

func newMapStatsCache() *mapStatsCache {
	return &mapStatsCache{entries: map[string][]byte{}}
}

func (c *mapStatsCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(payload, dest)
}

func (c *mapStatsCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *mapStatsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.entries = map[string][]byte{}
	return nil
}

func TestActorName(t *testing.T) {
	assert.Equal(t, "system", actorName(context.Background()))
	assert.Equal(t, "admin", actorName(adminCtx()))
}

func TestStatsAreCachedUntilMutation(t *testing.T) {
	statsCache := newMapStatsCache()
	svc := New(memory.NewSeeded(), nil, statsCache, time.Minute, nil)
	svc.now = func() time.Time { return fixedNow }
	ctx := adminCtx()

	first, err := svc.ComputeInventoryStats(ctx)
	require.NoError(t, err)
	second, err := svc.ComputeInventoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, statsCache.hits)
	assert.Equal(t, first.Count, second.Count)
	assert.True(t, first.TotalValue.Equal(second.TotalValue))

	_, err = svc.RecordMovement(ctx, domain.MovementRequest{Type: domain.MovementEntrada, ProductID: "P001", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, statsCache.invalidated)

	third, err := svc.ComputeInventoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalUnits+5, third.TotalUnits)
}

// racingRepository starts a stock adjustment the first time products are
// listed, while a stats computation is in flight.
type racingRepository struct {
	store.Repository
	once    sync.Once
	trigger func()
}

func (r *racingRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := r.Repository.ListProducts(ctx)
	r.once.Do(r.trigger)
	return products, err
}

func TestStatsComputedDuringMutationAreNotCachedStale(t *testing.T) {
	statsCache := newMapStatsCache()
	repo := &racingRepository{Repository: memory.NewSeeded()}
	svc := New(repo, nil, statsCache, time.Minute, nil)
	svc.now = func() time.Time { return fixedNow }
	ctx := adminCtx()

	done := make(chan error, 1)
	repo.trigger = func() {
		go func() {
			_, err := svc.AdjustStock(ctx, "P001", 10)
			done <- err
		}()
	}

	first, err := svc.ComputeInventoryStats(ctx)
	require.NoError(t, err)
	require.NoError(t, <-done)

	second, err := svc.ComputeInventoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalUnits+10, second.TotalUnits)
}

func TestIDsAreNormalizedAcrossWorkflows(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	product, err := svc.GetProduct(ctx, " p001 ")
	require.NoError(t, err)
	assert.Equal(t, "P001", product.ID)

	_, err = svc.AdjustStock(ctx, "p001", 1)
	require.NoError(t, err)
	assert.Equal(t, 16, stockOf(t, svc, "P001"))

	movement, err := svc.RecordMovement(ctx, domain.MovementRequest{Type: domain.MovementEntrada, ProductID: "p001", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "P001", movement.ProductID)
	assert.Equal(t, 18, stockOf(t, svc, "P001"))

	otherProduct := "p002"
	moved, err := svc.UpdateMovement(ctx, strings.ToLower(movement.ID), domain.MovementUpdateRequest{ProductID: &otherProduct})
	require.NoError(t, err)
	assert.Equal(t, "P002", moved.ProductID)

	byProduct, err := svc.ListMovements(ctx, domain.MovementFilter{ProductID: "p002"})
	require.NoError(t, err)
	assert.NotEmpty(t, byProduct)

	promo, err := svc.CreatePromotion(ctx, marchPromotion("Inca Kola 2x1", domain.PromotionTwoForOne, "0", "p001"))
	require.NoError(t, err)
	assert.Equal(t, "P001", promo.ProductID)

	updatedPromo, err := svc.UpdatePromotion(ctx, strings.ToLower(promo.ID), domain.PromotionUpdateRequest{ProductID: &otherProduct})
	require.NoError(t, err)
	assert.Equal(t, "P002", updatedPromo.ProductID)

	found, err := svc.SearchPromotions(ctx, domain.PromotionFilter{ProductID: "p002"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	sale, err := svc.RegisterSale(ctx, domain.SaleDraft{
		Items:         []domain.SaleLine{{ProductID: "p001", Quantity: 1}},
		PaymentMethod: domain.PaymentEfectivo,
	})
	require.NoError(t, err)

	got, err := svc.GetSale(ctx, strings.ToLower(sale.ID))
	require.NoError(t, err)
	assert.Equal(t, sale.ID, got.ID)

	_, err = svc.ProcessReturn(ctx, domain.ReturnRequest{
		SaleID: strings.ToLower(sale.ID),
		Items:  []domain.ReturnLine{{ProductID: "p001", Quantity: 1}},
	})
	require.NoError(t, err)

	returns, err := svc.ListReturnsBySale(ctx, strings.ToLower(sale.ID))
	require.NoError(t, err)
	assert.Len(t, returns, 1)

	require.NoError(t, svc.DeletePromotion(ctx, strings.ToLower(promo.ID)))
	require.NoError(t, svc.DeleteMovement(ctx, strings.ToLower(movement.ID)))
	require.NoError(t, svc.DeleteProduct(ctx, "p003"))
	_, err = svc.GetProduct(ctx, "P003")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
