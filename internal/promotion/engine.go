package promotion

import (
	"time"

	"github.com/shopspring/decimal"

	"qbodega/backend/internal/domain"
)

const roundPlaces = 2

var hundred = decimal.NewFromInt(100)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Active keeps the promotions that are current on asOf, preserving the input
// order.
func (e *Engine) Active(promos []domain.Promotion, asOf time.Time) []domain.Promotion {
	active := make([]domain.Promotion, 0, len(promos))
	for _, promo := range promos {
		if promo.IsCurrent(asOf) {
			active = append(active, promo)
		}
	}
	return active
}

// Apply prices the cart against every promotion current on asOf. Promotions
// are evaluated in the order given, which callers keep as creation order, and
// stack without exclusivity.
func (e *Engine) Apply(cart []domain.CartLine, promos []domain.Promotion, asOf time.Time) domain.CartTotals {
	totals := domain.CartTotals{
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		Total:         decimal.Zero,
		Applied:       []domain.AppliedPromotion{},
	}
	if len(cart) == 0 {
		return totals
	}

	subtotal := decimal.Zero
	for _, line := range cart {
		subtotal = subtotal.Add(line.Subtotal())
	}

	discountTotal := decimal.Zero
	for _, promo := range e.Active(promos, asOf) {
		for _, line := range cart {
			if line.ProductID != promo.ProductID {
				continue
			}
			discount := LineDiscount(promo, line)
			if !discount.IsPositive() {
				continue
			}
			discountTotal = discountTotal.Add(discount)

			productName := line.Name
			if productName == "" {
				productName = promo.ProductName
			}
			totals.Applied = append(totals.Applied, domain.AppliedPromotion{
				PromotionID: promo.ID,
				Name:        promo.Name,
				ProductID:   line.ProductID,
				ProductName: productName,
				Discount:    discount.Round(roundPlaces),
			})
		}
	}

	total := subtotal.Sub(discountTotal)
	if total.IsNegative() {
		total = decimal.Zero
	}

	totals.Subtotal = subtotal.Round(roundPlaces)
	totals.DiscountTotal = discountTotal.Round(roundPlaces)
	totals.Total = total.Round(roundPlaces)
	return totals
}

// LineDiscount is the discount a single promotion grants on one cart line.
func LineDiscount(promo domain.Promotion, line domain.CartLine) decimal.Decimal {
	if line.Quantity <= 0 {
		return decimal.Zero
	}
	lineSubtotal := line.Subtotal()

	switch promo.Type {
	case domain.PromotionTwoForOne:
		free := decimal.NewFromInt(int64(line.Quantity / 2))
		return free.Mul(line.UnitPrice)
	case domain.PromotionPercentage:
		return lineSubtotal.Mul(promo.Value).Div(hundred)
	case domain.PromotionFixedAmount:
		discount := promo.Value.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if discount.GreaterThan(lineSubtotal) {
			return lineSubtotal
		}
		return discount
	default:
		return decimal.Zero
	}
}
