package store

import (
	"context"
	"errors"
	"fmt"

	"qbodega/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrExceedsSoldQuantity = errors.New("return exceeds sold quantity")
	ErrProductNotInSale    = errors.New("product not in sale")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidPercentage   = errors.New("invalid percentage")
	ErrInvalidInput        = errors.New("invalid input")

	ErrSaleNotFound = fmt.Errorf("sale %w", ErrNotFound)
)

// Repository keeps every table in insertion order. Create methods assign the
// next sequential ID when the record has none.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error)
	NextProductID(ctx context.Context) (string, error)

	ListMovements(ctx context.Context) ([]domain.Movement, error)
	GetMovement(ctx context.Context, id string) (*domain.Movement, error)
	CreateMovement(ctx context.Context, movement domain.Movement) (*domain.Movement, error)
	UpdateMovement(ctx context.Context, movement domain.Movement) (*domain.Movement, error)
	DeleteMovement(ctx context.Context, id string) error
	NextMovementID(ctx context.Context) (string, error)

	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
	GetPromotion(ctx context.Context, id string) (*domain.Promotion, error)
	CreatePromotion(ctx context.Context, promo domain.Promotion) (*domain.Promotion, error)
	UpdatePromotion(ctx context.Context, promo domain.Promotion) (*domain.Promotion, error)
	DeletePromotion(ctx context.Context, id string) error
	NextPromotionID(ctx context.Context) (string, error)

	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	NextSaleID(ctx context.Context) (string, error)

	ListReturns(ctx context.Context) ([]domain.Return, error)
	CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error)
	GetReturnedQtyBySale(ctx context.Context, saleID string) (map[string]int, error)
	NextReturnID(ctx context.Context) (string, error)
}
