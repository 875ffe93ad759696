package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
)

func TestRecordMovementAppliesDelta(t *testing.T) {
	ctx := adminCtx()

	tests := []struct {
		name      string
		req       domain.MovementRequest
		wantStock int
	}{
		{name: "entrada adds", req: domain.MovementRequest{Type: domain.MovementEntrada, ProductID: "P005", Quantity: 10}, wantStock: 12},
		{name: "salida removes", req: domain.MovementRequest{Type: domain.MovementSalida, ProductID: "P005", Quantity: 2}, wantStock: 0},
		{name: "devolucion adds", req: domain.MovementRequest{Type: domain.MovementDevolucion, ProductID: "P005", Quantity: 1}, wantStock: 3},
		{name: "positive ajuste adds", req: domain.MovementRequest{Type: domain.MovementAjuste, ProductID: "P005", Quantity: 4}, wantStock: 6},
		{name: "negative ajuste removes", req: domain.MovementRequest{Type: domain.MovementAjuste, ProductID: "P005", Quantity: -2}, wantStock: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t)

			movement, err := svc.RecordMovement(ctx, tc.req)
			require.NoError(t, err)
			assert.Equal(t, "M006", movement.ID)
			assert.Equal(t, "Atún Florida 170g", movement.ProductName)
			assert.Equal(t, "admin", movement.User)
			assert.Equal(t, fixedNow, movement.Date)
			assert.Equal(t, tc.wantStock, stockOf(t, svc, "P005"))
		})
	}
}

func TestRecordMovementRejectsBeforeMutating(t *testing.T) {
	ctx := adminCtx()

	tests := []struct {
		name    string
		req     domain.MovementRequest
		wantErr error
	}{
		{name: "salida beyond stock", req: domain.MovementRequest{Type: domain.MovementSalida, ProductID: "P005", Quantity: 3}, wantErr: store.ErrInsufficientStock},
		{name: "ajuste beyond stock", req: domain.MovementRequest{Type: domain.MovementAjuste, ProductID: "P005", Quantity: -3}, wantErr: store.ErrInsufficientStock},
		{name: "zero ajuste", req: domain.MovementRequest{Type: domain.MovementAjuste, ProductID: "P005", Quantity: 0}, wantErr: store.ErrInvalidInput},
		{name: "zero entrada", req: domain.MovementRequest{Type: domain.MovementEntrada, ProductID: "P005", Quantity: 0}, wantErr: store.ErrInvalidInput},
		{name: "unknown type", req: domain.MovementRequest{Type: "Merma", ProductID: "P005", Quantity: 1}, wantErr: store.ErrInvalidInput},
		{name: "unknown product", req: domain.MovementRequest{Type: domain.MovementEntrada, ProductID: "P404", Quantity: 1}, wantErr: store.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t)

			_, err := svc.RecordMovement(ctx, tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 2, stockOf(t, svc, "P005"))
			assert.Equal(t, 5, movementCount(t, svc))
		})
	}
}

func TestRecordMovementWithoutActorUsesSystem(t *testing.T) {
	svc := newTestService(t)

	movement, err := svc.RecordMovement(context.Background(), domain.MovementRequest{Type: domain.MovementEntrada, ProductID: "P001", Quantity: 1, Notes: "  Reposición  "})
	require.NoError(t, err)
	assert.Equal(t, "system", movement.User)
	assert.Equal(t, "Reposición", movement.Notes)
}

func TestUpdateAndDeleteMovementLeaveStock(t *testing.T) {
	svc := newTestService(t)
	ctx := adminCtx()

	productID := "P002"
	qty := 99
	updated, err := svc.UpdateMovement(ctx, "M001", domain.MovementUpdateRequest{ProductID: &productID, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "Arroz Costeño 1kg", updated.ProductName)
	assert.Equal(t, 99, updated.Quantity)
	assert.Equal(t, 15, stockOf(t, svc, "P001"))
	assert.Equal(t, 25, stockOf(t, svc, "P002"))

	zero := 0
	_, err = svc.UpdateMovement(ctx, "M001", domain.MovementUpdateRequest{Quantity: &zero})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	require.NoError(t, svc.DeleteMovement(ctx, "M003"))
	assert.Equal(t, 25, stockOf(t, svc, "P002"))
	assert.Equal(t, 4, movementCount(t, svc))

	assert.ErrorIs(t, svc.DeleteMovement(ctx, "M003"), store.ErrNotFound)
}

func TestListMovements(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ids := func(movements []domain.Movement) []string {
		out := make([]string, 0, len(movements))
		for _, m := range movements {
			out = append(out, m.ID)
		}
		return out
	}

	all, err := svc.ListMovements(ctx, domain.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"M005", "M004", "M003", "M002", "M001"}, ids(all))

	entradas, err := svc.ListMovements(ctx, domain.MovementFilter{Type: domain.MovementEntrada})
	require.NoError(t, err)
	assert.Equal(t, []string{"M003", "M001"}, ids(entradas))

	byUser, err := svc.ListMovements(ctx, domain.MovementFilter{Query: "carlos"})
	require.NoError(t, err)
	assert.Equal(t, []string{"M002"}, ids(byUser))

	byDate, err := svc.ListMovements(ctx, domain.MovementFilter{Query: "2024-01-16"})
	require.NoError(t, err)
	assert.Equal(t, []string{"M003", "M002"}, ids(byDate))

	byProduct, err := svc.ListMovements(ctx, domain.MovementFilter{ProductID: "P001", User: "admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"M001"}, ids(byProduct))
}

func TestComputeMovementStats(t *testing.T) {
	svc := newTestService(t)

	stats, err := svc.ComputeMovementStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.MovementStats{Total: 5, Entradas: 2, Salidas: 2, AjustesDevoluciones: 1}, stats)
}
