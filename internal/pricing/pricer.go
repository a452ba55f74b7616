package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/internal/shipping"
	"github.com/pins-charity/orderforms-backend/internal/vouchers"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

const places = 2

// Line is one ordered variant.
type Line struct {
	Variant   models.ProductVariant
	Quantity  int
	LineTotal decimal.Decimal
}

// Quote is the priced form of a selection.
type Quote struct {
	Items      []Line
	TotalUnits int
	Subtotal   decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Voucher    vouchers.Resolution
}

// Compute prices sel. Lines follow catalog order and unknown slugs are
// ignored. Shipping and discount only apply when the subtotal is positive,
// and the total never goes below zero.
func Compute(cat *catalog.Catalog, tariff shipping.Tariff, voucher vouchers.Resolution, sel catalog.Selection) Quote {
	q := Quote{
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
		Voucher:  voucher,
	}
	for _, v := range cat.Variants() {
		qty := sel.Quantity(v.Slug)
		if qty <= 0 {
			continue
		}
		lineTotal := v.UnitCost.Mul(decimal.NewFromInt(int64(qty)))
		q.Items = append(q.Items, Line{Variant: v, Quantity: qty, LineTotal: lineTotal.Round(places)})
		q.Subtotal = q.Subtotal.Add(lineTotal)
		q.TotalUnits += qty * v.ItemCount
	}

	if q.Subtotal.IsPositive() {
		q.Shipping = tariff.Cost(q.TotalUnits)
		q.Discount = voucher.Discount
		q.Total = q.Subtotal.Add(q.Shipping).Sub(q.Discount)
		if q.Total.IsNegative() {
			q.Total = decimal.Zero
		}
	}

	q.Subtotal = q.Subtotal.Round(places)
	q.Shipping = q.Shipping.Round(places)
	q.Discount = q.Discount.Round(places)
	q.Total = q.Total.Round(places)
	return q
}

// ComputeForForm prices sel against a fully loaded form, resolving the
// voucher from the form's own vouchers.
func ComputeForForm(form models.OrderForm, sel catalog.Selection, voucherCode string) (Quote, error) {
	tariff, err := shipping.FromModels(form.ShippingTiers)
	if err != nil {
		return Quote{}, err
	}
	return Compute(catalog.New(form), tariff, vouchers.Resolve(voucherCode, form.Vouchers), sel), nil
}
