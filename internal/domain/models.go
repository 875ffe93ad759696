package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAbarrotes Category = "Abarrotes secos"
	CategoryBebidas   Category = "Bebidas"
	CategoryLacteos   Category = "Lácteos y derivados"
	CategorySnacks    Category = "Snacks y golosinas"
	CategoryPanaderia Category = "Panadería y repostería"
	CategoryCarnicos  Category = "Cárnicos y embutidos"
	CategoryFrutas    Category = "Frutas y verduras"
	CategoryLimpieza  Category = "Productos de limpieza e higiene personal"
	CategoryEnlatados Category = "Enlatados y conservas"
	CategoryAceites   Category = "Aceites y salsas"
)

var Categories = []Category{
	CategoryAbarrotes,
	CategoryBebidas,
	CategoryLacteos,
	CategorySnacks,
	CategoryPanaderia,
	CategoryCarnicos,
	CategoryFrutas,
	CategoryLimpieza,
	CategoryEnlatados,
	CategoryAceites,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Stock thresholds used by dashboards and the low-stock counter.
const (
	LowStockThreshold    = 5
	MediumStockThreshold = 15
)

type StockLevel string

const (
	StockLevelLow    StockLevel = "low"
	StockLevelMedium StockLevel = "medium"
	StockLevelHigh   StockLevel = "high"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	DateAdded time.Time       `json:"date_added"`
}

func (p Product) StockLevel() StockLevel {
	switch {
	case p.Quantity < LowStockThreshold:
		return StockLevelLow
	case p.Quantity < MediumStockThreshold:
		return StockLevelMedium
	default:
		return StockLevelHigh
	}
}

func (p Product) StockValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

type ProductCreateRequest struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type ProductUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Category  *Category        `json:"category,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type ProductFilter struct {
	Query        string   `json:"query,omitempty"`
	Category     Category `json:"category,omitempty"`
	LowStockOnly bool     `json:"low_stock_only,omitempty"`
}

type InventoryStats struct {
	Count         int             `json:"count"`
	TotalUnits    int             `json:"total_units"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int             `json:"low_stock_count"`
}

type MovementType string

const (
	MovementEntrada    MovementType = "Entrada"
	MovementSalida     MovementType = "Salida"
	MovementAjuste     MovementType = "Ajuste"
	MovementDevolucion MovementType = "Devolución"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementEntrada, MovementSalida, MovementAjuste, MovementDevolucion:
		return true
	default:
		return false
	}
}

// StockDelta is the signed change a movement of this type applies to stock.
func (t MovementType) StockDelta(qty int) int {
	switch t {
	case MovementSalida:
		return -qty
	default:
		return qty
	}
}

type Movement struct {
	ID          string       `json:"id"`
	Type        MovementType `json:"type"`
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	Date        time.Time    `json:"date"`
	User        string       `json:"user"`
	Notes       string       `json:"notes"`
}

type MovementRequest struct {
	Type      MovementType `json:"type"`
	ProductID string       `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Date      *time.Time   `json:"date,omitempty"`
	Notes     string       `json:"notes"`
}

type MovementUpdateRequest struct {
	Type      *MovementType `json:"type,omitempty"`
	ProductID *string       `json:"product_id,omitempty"`
	Quantity  *int          `json:"quantity,omitempty"`
	Date      *time.Time    `json:"date,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
}

type MovementFilter struct {
	Query     string       `json:"query,omitempty"`
	Type      MovementType `json:"type,omitempty"`
	ProductID string       `json:"product_id,omitempty"`
	User      string       `json:"user,omitempty"`
	From      time.Time    `json:"from,omitempty"`
	To        time.Time    `json:"to,omitempty"`
}

type MovementStats struct {
	Total               int `json:"total"`
	Entradas            int `json:"entradas"`
	Salidas             int `json:"salidas"`
	AjustesDevoluciones int `json:"ajustes_devoluciones"`
}

type PromotionType string

const (
	PromotionTwoForOne   PromotionType = "two_for_one"
	PromotionPercentage  PromotionType = "percentage"
	PromotionFixedAmount PromotionType = "fixed_amount"
)

func (t PromotionType) Valid() bool {
	switch t {
	case PromotionTwoForOne, PromotionPercentage, PromotionFixedAmount:
		return true
	default:
		return false
	}
}

type PromotionStatus string

const (
	PromotionActive   PromotionStatus = "active"
	PromotionInactive PromotionStatus = "inactive"
)

func (s PromotionStatus) Valid() bool {
	return s == PromotionActive || s == PromotionInactive
}

type Promotion struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        PromotionType   `json:"type"`
	Value       decimal.Decimal `json:"value"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	DateStart   time.Time       `json:"date_start"`
	DateEnd     time.Time       `json:"date_end"`
	Status      PromotionStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsCurrent reports whether the promotion is active and day falls inside its
// date range, both ends inclusive.
func (p Promotion) IsCurrent(day time.Time) bool {
	if p.Status != PromotionActive {
		return false
	}
	d := Day(day)
	return !d.Before(Day(p.DateStart)) && !d.After(Day(p.DateEnd))
}

type PromotionCreateRequest struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Type      PromotionType   `json:"type"`
	Value     decimal.Decimal `json:"value"`
	ProductID string          `json:"product_id"`
	DateStart time.Time       `json:"date_start"`
	DateEnd   time.Time       `json:"date_end"`
	Status    PromotionStatus `json:"status"`
}

type PromotionUpdateRequest struct {
	Name      *string          `json:"name,omitempty"`
	Type      *PromotionType   `json:"type,omitempty"`
	Value     *decimal.Decimal `json:"value,omitempty"`
	ProductID *string          `json:"product_id,omitempty"`
	DateStart *time.Time       `json:"date_start,omitempty"`
	DateEnd   *time.Time       `json:"date_end,omitempty"`
	Status    *PromotionStatus `json:"status,omitempty"`
}

type PromotionFilter struct {
	Name      string          `json:"name,omitempty"`
	Type      PromotionType   `json:"type,omitempty"`
	Status    PromotionStatus `json:"status,omitempty"`
	ProductID string          `json:"product_id,omitempty"`
	From      time.Time       `json:"from,omitempty"`
	To        time.Time       `json:"to,omitempty"`
}

type PromotionStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Current  int `json:"current"`
}

type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type AppliedPromotion struct {
	PromotionID string          `json:"promotion_id"`
	Name        string          `json:"name"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Discount    decimal.Decimal `json:"discount"`
}

type CartTotals struct {
	Subtotal      decimal.Decimal    `json:"subtotal"`
	DiscountTotal decimal.Decimal    `json:"discount_total"`
	Total         decimal.Decimal    `json:"total"`
	Applied       []AppliedPromotion `json:"applied"`
}

type PaymentMethod string

const (
	PaymentEfectivo PaymentMethod = "efectivo"
	PaymentTarjeta  PaymentMethod = "tarjeta"
	PaymentYape     PaymentMethod = "yape"
	PaymentPlin     PaymentMethod = "plin"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentEfectivo, PaymentTarjeta, PaymentYape, PaymentPlin:
		return true
	default:
		return false
	}
}

type SaleItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Sale struct {
	ID                string             `json:"id"`
	Date              time.Time          `json:"date"`
	Items             []SaleItem         `json:"items"`
	TotalGross        decimal.Decimal    `json:"total_gross"`
	TotalDiscount     decimal.Decimal    `json:"total_discount"`
	TotalFinal        decimal.Decimal    `json:"total_final"`
	PaymentMethod     PaymentMethod      `json:"payment_method"`
	PromotionsApplied []AppliedPromotion `json:"promotions_applied"`
	User              string             `json:"user"`
}

type SaleLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SaleDraft struct {
	ID            string        `json:"id,omitempty"`
	Items         []SaleLine    `json:"items"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type SaleFilter struct {
	ID            string        `json:"id,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	From          time.Time     `json:"from,omitempty"`
	To            time.Time     `json:"to,omitempty"`
}

type SalesStats struct {
	TotalSales   int             `json:"total_sales"`
	SalesToday   int             `json:"sales_today"`
	SalesMonth   int             `json:"sales_month"`
	RevenueTotal decimal.Decimal `json:"revenue_total"`
	RevenueToday decimal.Decimal `json:"revenue_today"`
	RevenueMonth decimal.Decimal `json:"revenue_month"`
}

const ReturnStatusProcessed = "processed"

type ReturnLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

type ReturnRequest struct {
	SaleID string       `json:"sale_id"`
	Items  []ReturnLine `json:"items"`
	Reason string       `json:"reason"`
}

type ReturnItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

type Return struct {
	ID     string       `json:"id"`
	SaleID string       `json:"sale_id"`
	Date   time.Time    `json:"date"`
	Items  []ReturnItem `json:"items"`
	Reason string       `json:"reason"`
	Status string       `json:"status"`
	User   string       `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
