package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/store"
	"qbodega/backend/internal/xid"
)

// Store is an in-memory repository. Every table is a slice kept in insertion
// order so list results and promotion evaluation are deterministic.
type Store struct {
	mu         sync.RWMutex
	products   []domain.Product
	movements  []domain.Movement
	promotions []domain.Promotion
	sales      []domain.Sale
	returns    []domain.Return
}

func New() *Store {
	return &Store{}
}

// NewSeeded returns a store preloaded with the demo catalogue and the opening
// movements of the bodega.
func NewSeeded() *Store {
	day := func(d int) time.Time {
		return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
	}
	price := func(v string) decimal.Decimal {
		return decimal.RequireFromString(v)
	}

	return &Store{
		products: []domain.Product{
			{ID: "P001", Name: "Inca Kola 1.5L", Category: domain.CategoryBebidas, Quantity: 15, UnitPrice: price("6.50"), DateAdded: day(15)},
			{ID: "P002", Name: "Arroz Costeño 1kg", Category: domain.CategoryAbarrotes, Quantity: 25, UnitPrice: price("5.00"), DateAdded: day(16)},
			{ID: "P003", Name: "Leche Gloria tarro", Category: domain.CategoryLacteos, Quantity: 18, UnitPrice: price("4.80"), DateAdded: day(17)},
			{ID: "P004", Name: "Pan francés (unidad)", Category: domain.CategoryPanaderia, Quantity: 50, UnitPrice: price("0.40"), DateAdded: day(18)},
			{ID: "P005", Name: "Atún Florida 170g", Category: domain.CategoryEnlatados, Quantity: 2, UnitPrice: price("6.00"), DateAdded: day(19)},
		},
		movements: []domain.Movement{
			{ID: "M001", Type: domain.MovementEntrada, ProductID: "P001", ProductName: "Inca Kola 1.5L", Quantity: 20, Date: day(15), User: "admin", Notes: "Compra inicial"},
			{ID: "M002", Type: domain.MovementSalida, ProductID: "P001", ProductName: "Inca Kola 1.5L", Quantity: 5, Date: day(16), User: "carlos.rodriguez", Notes: "Venta"},
			{ID: "M003", Type: domain.MovementEntrada, ProductID: "P002", ProductName: "Arroz Costeño 1kg", Quantity: 30, Date: day(16), User: "maria.gonzalez", Notes: "Reposición"},
			{ID: "M004", Type: domain.MovementSalida, ProductID: "P002", ProductName: "Arroz Costeño 1kg", Quantity: 5, Date: day(17), User: "jose.martinez", Notes: "Venta"},
			{ID: "M005", Type: domain.MovementAjuste, ProductID: "P005", ProductName: "Atún Florida 170g", Quantity: -3, Date: day(19), User: "admin", Notes: "Producto vencido"},
		},
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.productIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	product := s.products[idx]
	return &product, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.Next(xid.ProductPrefix, s.productIDs())
	}
	if s.productIndex(product.ID) >= 0 {
		return nil, fmt.Errorf("%w: product %s", store.ErrDuplicateID, product.ID)
	}
	if product.DateAdded.IsZero() {
		product.DateAdded = time.Now().UTC()
	}
	s.products = append(s.products, product)
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndex(product.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, product.ID)
	}
	s.products[idx] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	return nil
}

// AdjustStock applies delta to the product quantity. A result below zero is
// rejected and leaves the product untouched.
func (s *Store) AdjustStock(_ context.Context, id string, delta int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	next := s.products[idx].Quantity + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: product %s has %d, change %d", store.ErrInsufficientStock, id, s.products[idx].Quantity, delta)
	}
	s.products[idx].Quantity = next
	updated := s.products[idx]
	return &updated, nil
}

func (s *Store) NextProductID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return xid.Next(xid.ProductPrefix, s.productIDs()), nil
}

func (s *Store) ListMovements(_ context.Context) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	movements := make([]domain.Movement, len(s.movements))
	copy(movements, s.movements)
	return movements, nil
}

func (s *Store) GetMovement(_ context.Context, id string) (*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.movementIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: movement %s", store.ErrNotFound, id)
	}
	movement := s.movements[idx]
	return &movement, nil
}

func (s *Store) CreateMovement(_ context.Context, movement domain.Movement) (*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if movement.ID == "" {
		movement.ID = xid.Next(xid.MovementPrefix, s.movementIDs())
	}
	if s.movementIndex(movement.ID) >= 0 {
		return nil, fmt.Errorf("%w: movement %s", store.ErrDuplicateID, movement.ID)
	}
	if movement.Date.IsZero() {
		movement.Date = time.Now().UTC()
	}
	s.movements = append(s.movements, movement)
	created := movement
	return &created, nil
}

func (s *Store) UpdateMovement(_ context.Context, movement domain.Movement) (*domain.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.movementIndex(movement.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: movement %s", store.ErrNotFound, movement.ID)
	}
	s.movements[idx] = movement
	updated := movement
	return &updated, nil
}

func (s *Store) DeleteMovement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.movementIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: movement %s", store.ErrNotFound, id)
	}
	s.movements = append(s.movements[:idx], s.movements[idx+1:]...)
	return nil
}

func (s *Store) NextMovementID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return xid.Next(xid.MovementPrefix, s.movementIDs()), nil
}

// ListPromotions returns promotions in creation order.
func (s *Store) ListPromotions(_ context.Context) ([]domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promos := make([]domain.Promotion, len(s.promotions))
	copy(promos, s.promotions)
	return promos, nil
}

func (s *Store) GetPromotion(_ context.Context, id string) (*domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.promotionIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: promotion %s", store.ErrNotFound, id)
	}
	promo := s.promotions[idx]
	return &promo, nil
}

func (s *Store) CreatePromotion(_ context.Context, promo domain.Promotion) (*domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if promo.ID == "" {
		promo.ID = xid.Next(xid.PromotionPrefix, s.promotionIDs())
	}
	if s.promotionIndex(promo.ID) >= 0 {
		return nil, fmt.Errorf("%w: promotion %s", store.ErrDuplicateID, promo.ID)
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = time.Now().UTC()
	}
	s.promotions = append(s.promotions, promo)
	created := promo
	return &created, nil
}

// UpdatePromotion replaces the record in place, so its position in creation
// order is preserved.
func (s *Store) UpdatePromotion(_ context.Context, promo domain.Promotion) (*domain.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.promotionIndex(promo.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: promotion %s", store.ErrNotFound, promo.ID)
	}
	promo.CreatedAt = s.promotions[idx].CreatedAt
	s.promotions[idx] = promo
	updated := promo
	return &updated, nil
}

func (s *Store) DeletePromotion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.promotionIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: promotion %s", store.ErrNotFound, id)
	}
	s.promotions = append(s.promotions[:idx], s.promotions[idx+1:]...)
	return nil
}

func (s *Store) NextPromotionID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return xid.Next(xid.PromotionPrefix, s.promotionIDs()), nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sale := range s.sales {
		if sale.ID == id {
			dup := cloneSale(sale)
			return &dup, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrSaleNotFound, id)
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = xid.Next(xid.SalePrefix, s.saleIDs())
	}
	for _, existing := range s.sales {
		if existing.ID == sale.ID {
			return nil, fmt.Errorf("%w: sale %s", store.ErrDuplicateID, sale.ID)
		}
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}
	s.sales = append(s.sales, cloneSale(sale))
	created := cloneSale(sale)
	return &created, nil
}

func (s *Store) NextSaleID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return xid.Next(xid.SalePrefix, s.saleIDs()), nil
}

func (s *Store) ListReturns(_ context.Context) ([]domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	returns := make([]domain.Return, 0, len(s.returns))
	for _, ret := range s.returns {
		returns = append(returns, cloneReturn(ret))
	}
	return returns, nil
}

func (s *Store) CreateReturn(_ context.Context, ret domain.Return) (*domain.Return, error) {
	if strings.TrimSpace(ret.SaleID) == "" || len(ret.Items) == 0 {
		return nil, fmt.Errorf("%w: return needs a sale and at least one item", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.returnIDs()
	if ret.ID == "" {
		ret.ID = xid.Next(xid.ReturnPrefix, ids)
	}
	for _, id := range ids {
		if id == ret.ID {
			return nil, fmt.Errorf("%w: return %s", store.ErrDuplicateID, ret.ID)
		}
	}
	if ret.Date.IsZero() {
		ret.Date = time.Now().UTC()
	}
	s.returns = append(s.returns, cloneReturn(ret))
	created := cloneReturn(ret)
	return &created, nil
}

// GetReturnedQtyBySale sums the quantities already returned per product for
// the given sale.
func (s *Store) GetReturnedQtyBySale(_ context.Context, saleID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]int)
	for _, ret := range s.returns {
		if ret.SaleID != saleID {
			continue
		}
		for _, item := range ret.Items {
			result[item.ProductID] += item.Quantity
		}
	}
	return result, nil
}

func (s *Store) NextReturnID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return xid.Next(xid.ReturnPrefix, s.returnIDs()), nil
}

func (s *Store) productIndex(id string) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) movementIndex(id string) int {
	for i, m := range s.movements {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) promotionIndex(id string) int {
	for i, p := range s.promotions {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) productIDs() []string {
	ids := make([]string, len(s.products))
	for i, p := range s.products {
		ids[i] = p.ID
	}
	return ids
}

func (s *Store) movementIDs() []string {
	ids := make([]string, len(s.movements))
	for i, m := range s.movements {
		ids[i] = m.ID
	}
	return ids
}

func (s *Store) promotionIDs() []string {
	ids := make([]string, len(s.promotions))
	for i, p := range s.promotions {
		ids[i] = p.ID
	}
	return ids
}

func (s *Store) saleIDs() []string {
	ids := make([]string, len(s.sales))
	for i, sale := range s.sales {
		ids[i] = sale.ID
	}
	return ids
}

func (s *Store) returnIDs() []string {
	ids := make([]string, len(s.returns))
	for i, ret := range s.returns {
		ids[i] = ret.ID
	}
	return ids
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	applied := make([]domain.AppliedPromotion, len(src.PromotionsApplied))
	copy(applied, src.PromotionsApplied)
	dup.PromotionsApplied = applied
	return dup
}

func cloneReturn(src domain.Return) domain.Return {
	dup := src
	items := make([]domain.ReturnItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
