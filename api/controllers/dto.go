package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/internal/payments"
	"github.com/pins-charity/orderforms-backend/internal/pricing"
	"github.com/pins-charity/orderforms-backend/internal/shipping"
	"github.com/pins-charity/orderforms-backend/internal/stock"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
)

type selectionRequest struct {
	Selection   map[string]any `json:"selection"`
	VoucherCode string         `json:"voucher_code" validate:"max=64"`
}

type submitRequest struct {
	Selection    map[string]any `json:"selection"`
	VoucherCode  string         `json:"voucher_code" validate:"max=64"`
	Name         string         `json:"name" validate:"required,max=255"`
	Email        string         `json:"email" validate:"required,email,max=255"`
	Phone        string         `json:"phone" validate:"max=64"`
	AddressLine1 string         `json:"address_line_1" validate:"max=255"`
	AddressLine2 string         `json:"address_line_2" validate:"max=255"`
	AddressLine3 string         `json:"address_line_3" validate:"max=255"`
	City         string         `json:"city" validate:"max=255"`
	County       string         `json:"county" validate:"max=255"`
	Postcode     string         `json:"postcode" validate:"max=32"`
}

func (r submitRequest) buyer() submissions.Buyer {
	return submissions.Buyer{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		AddressLine3: r.AddressLine3,
		City:         r.City,
		County:       r.County,
		Postcode:     r.Postcode,
	}
}

type lineResponse struct {
	Slug        string          `json:"slug"`
	DisplayName string          `json:"display_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type quoteResponse struct {
	Items          []lineResponse  `json:"items"`
	TotalItems     int             `json:"total_items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Shipping       decimal.Decimal `json:"shipping"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"total_formatted"`
	VoucherCode    string          `json:"voucher_code,omitempty"`
	VoucherMessage string          `json:"voucher_message,omitempty"`
}

func newQuoteResponse(q pricing.Quote) quoteResponse {
	items := make([]lineResponse, 0, len(q.Items))
	for _, line := range q.Items {
		items = append(items, lineResponse{
			Slug:        line.Variant.Slug,
			DisplayName: line.Variant.DisplayName(),
			Quantity:    line.Quantity,
			UnitCost:    line.Variant.UnitCost,
			LineTotal:   line.LineTotal,
		})
	}
	return quoteResponse{
		Items:          items,
		TotalItems:     q.TotalUnits,
		Subtotal:       q.Subtotal,
		Shipping:       q.Shipping,
		Discount:       q.Discount,
		Total:          q.Total,
		TotalFormatted: pricing.FormatGBP(q.Total),
		VoucherCode:    q.Voucher.Code,
		VoucherMessage: q.Voucher.Message(),
	}
}

type availabilityResponse struct {
	SoldOut            bool             `json:"sold_out"`
	DisallowedVariants []string         `json:"disallowed_variants"`
	Ordered            stock.Usage      `json:"ordered"`
	ShippingLabels     []shipping.Label `json:"shipping_labels"`
}

func newAvailabilityResponse(a submissions.Availability) availabilityResponse {
	slugs := make([]string, 0, len(a.DisallowedVariants))
	for _, v := range a.DisallowedVariants {
		slugs = append(slugs, v.Slug)
	}
	return availabilityResponse{
		SoldOut:            a.SoldOut,
		DisallowedVariants: slugs,
		Ordered:            a.Usage,
		ShippingLabels:     a.ShippingLabels,
	}
}

type publicVariantResponse struct {
	Slug            string          `json:"slug"`
	GroupName       string          `json:"group_name,omitempty"`
	Name            string          `json:"name"`
	DisplayName     string          `json:"display_name"`
	Description     string          `json:"description,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ItemCount       int             `json:"item_count"`
	QuantityChoices []int           `json:"quantity_choices"`
	DefaultQuantity int             `json:"default_quantity"`
}

// publicFormResponse is what buyers see. Voucher codes and seller addresses
// stay out of it.
type publicFormResponse struct {
	ID               uuid.UUID               `json:"id"`
	Slug             string                  `json:"slug"`
	Title            string                  `json:"title"`
	Variants         []publicVariantResponse `json:"variants"`
	Availability     availabilityResponse    `json:"availability"`
	PendingReference string                  `json:"pending_reference,omitempty"`
}

func newPublicFormResponse(form *models.OrderForm, availability submissions.Availability, pending string) publicFormResponse {
	variants := []publicVariantResponse{}
	for _, v := range catalog.New(*form).Variants() {
		// Stored choices were validated on save.
		choices, _ := catalog.ParseChoices(v.QuantityChoices)
		variants = append(variants, publicVariantResponse{
			Slug:            v.Slug,
			GroupName:       v.GroupName,
			Name:            v.Name,
			DisplayName:     v.DisplayName(),
			Description:     v.Description,
			UnitCost:        v.UnitCost,
			ItemCount:       v.ItemCount,
			QuantityChoices: choices,
			DefaultQuantity: v.DefaultQuantity,
		})
	}
	return publicFormResponse{
		ID:               form.ID,
		Slug:             form.Slug,
		Title:            form.Title,
		Variants:         variants,
		Availability:     newAvailabilityResponse(availability),
		PendingReference: pending,
	}
}

type submitResponse struct {
	Reference string        `json:"reference"`
	Updated   bool          `json:"updated"`
	OrderURL  string        `json:"order_url"`
	Quote     quoteResponse `json:"quote"`
}

type orderItemResponse struct {
	DisplayName string `json:"display_name"`
	Quantity    int    `json:"quantity"`
}

type orderResponse struct {
	Reference   string                 `json:"reference"`
	FormTitle   string                 `json:"form_title"`
	Status      enums.SubmissionStatus `json:"status"`
	StatusLabel string                 `json:"status_label"`
	Paid        bool                   `json:"paid"`
	Shipped     bool                   `json:"shipped"`
	Items       []orderItemResponse    `json:"items"`
	TotalItems  int                    `json:"total_items"`
	Subtotal    decimal.Decimal        `json:"subtotal"`
	Shipping    decimal.Decimal        `json:"shipping"`
	Discount    decimal.Decimal        `json:"discount"`
	Total       decimal.Decimal        `json:"total"`
	VoucherCode string                 `json:"voucher_code,omitempty"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	SubmittedAt time.Time              `json:"submitted_at"`
	Checkout    *payments.Checkout     `json:"checkout,omitempty"`
}

// newOrderResponse lists items from the stored selection so later edits to
// the form's prices do not change what an order shows.
func newOrderResponse(form *models.OrderForm, sub *models.OrderSubmission) orderResponse {
	sel := catalog.DecodeStoredSelection(sub.Selection)
	items := []orderItemResponse{}
	for _, v := range catalog.New(*form).Variants() {
		if qty := sel.Quantity(v.Slug); qty > 0 {
			items = append(items, orderItemResponse{DisplayName: v.DisplayName(), Quantity: qty})
		}
	}
	status := sub.Status()
	return orderResponse{
		Reference:   sub.Reference,
		FormTitle:   form.Title,
		Status:      status,
		StatusLabel: status.Label(),
		Paid:        sub.Paid,
		Shipped:     sub.Shipped,
		Items:       items,
		TotalItems:  sub.TotalItems,
		Subtotal:    sub.Subtotal,
		Shipping:    sub.ShippingCost,
		Discount:    sub.Discount,
		Total:       sub.Cost,
		VoucherCode: sub.VoucherCode,
		Name:        sub.Name,
		Email:       sub.Email,
		SubmittedAt: sub.CreatedAt,
	}
}
