package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/api/responses"
	"github.com/pins-charity/orderforms-backend/api/validators"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

type formAdmin interface {
	Create(ctx context.Context, form *models.OrderForm) (*models.OrderForm, error)
	Update(ctx context.Context, id uuid.UUID, form *models.OrderForm) (*models.OrderForm, error)
	Get(ctx context.Context, id uuid.UUID) (*models.OrderForm, error)
	List(ctx context.Context) ([]models.OrderForm, error)
}

type variantPayload struct {
	ID                    *uuid.UUID      `json:"id,omitempty"`
	Slug                  string          `json:"slug,omitempty"`
	GroupName             string          `json:"group_name" validate:"max=255"`
	Name                  string          `json:"name" validate:"required,max=255"`
	Description           string          `json:"description"`
	UnitCost              decimal.Decimal `json:"unit_cost"`
	ItemCount             int             `json:"item_count" validate:"gte=0"`
	QuantityChoices       string          `json:"quantity_choices"`
	DefaultQuantity       int             `json:"default_quantity" validate:"gte=0"`
	GroupTotalAvailable   *int            `json:"group_total_available,omitempty" validate:"omitempty,gte=0"`
	VariantTotalAvailable *int            `json:"variant_total_available,omitempty" validate:"omitempty,gte=0"`
}

type tierPayload struct {
	MaxQuantity *int            `json:"max_quantity,omitempty" validate:"omitempty,gte=0"`
	Cost        decimal.Decimal `json:"cost"`
}

type voucherPayload struct {
	ID         *uuid.UUID      `json:"id,omitempty"`
	Code       string          `json:"code" validate:"required,max=64"`
	Discount   decimal.Decimal `json:"discount"`
	Active     *bool           `json:"active,omitempty"`
	OneTimeUse bool            `json:"one_time_use"`
}

// formPayload is the staff view of a form, used for both requests and
// responses.
type formPayload struct {
	ID              *uuid.UUID            `json:"id,omitempty"`
	Slug            string                `json:"slug" validate:"max=255"`
	Title           string                `json:"title" validate:"required,max=255"`
	Subject         string                `json:"subject" validate:"max=255"`
	ToAddress       string                `json:"to_address"`
	TotalAvailable  *int                  `json:"total_available,omitempty" validate:"omitempty,gte=0"`
	StockAccounting enums.StockAccounting `json:"stock_accounting"`
	Variants        []variantPayload      `json:"variants" validate:"dive"`
	ShippingTiers   []tierPayload         `json:"shipping_tiers" validate:"dive"`
	Vouchers        []voucherPayload      `json:"vouchers" validate:"dive"`
	CreatedAt       *time.Time            `json:"created_at,omitempty"`
	UpdatedAt       *time.Time            `json:"updated_at,omitempty"`
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func (p formPayload) model() *models.OrderForm {
	form := &models.OrderForm{
		Slug:            p.Slug,
		Title:           p.Title,
		Subject:         p.Subject,
		ToAddress:       p.ToAddress,
		TotalAvailable:  p.TotalAvailable,
		StockAccounting: p.StockAccounting,
	}
	for _, v := range p.Variants {
		form.Variants = append(form.Variants, models.ProductVariant{
			ID:                    derefID(v.ID),
			GroupName:             v.GroupName,
			Name:                  v.Name,
			Description:           v.Description,
			UnitCost:              v.UnitCost,
			ItemCount:             v.ItemCount,
			QuantityChoices:       v.QuantityChoices,
			DefaultQuantity:       v.DefaultQuantity,
			GroupTotalAvailable:   v.GroupTotalAvailable,
			VariantTotalAvailable: v.VariantTotalAvailable,
		})
	}
	for _, t := range p.ShippingTiers {
		form.ShippingTiers = append(form.ShippingTiers, models.ShippingTier{MaxQuantity: t.MaxQuantity, Cost: t.Cost})
	}
	for _, v := range p.Vouchers {
		active := true
		if v.Active != nil {
			active = *v.Active
		}
		form.Vouchers = append(form.Vouchers, models.Voucher{
			ID:         derefID(v.ID),
			Code:       v.Code,
			Discount:   v.Discount,
			Active:     active,
			OneTimeUse: v.OneTimeUse,
		})
	}
	return form
}

func newFormPayload(form *models.OrderForm) formPayload {
	id := form.ID
	created, updated := form.CreatedAt, form.UpdatedAt
	p := formPayload{
		ID:              &id,
		Slug:            form.Slug,
		Title:           form.Title,
		Subject:         form.Subject,
		ToAddress:       form.ToAddress,
		TotalAvailable:  form.TotalAvailable,
		StockAccounting: form.StockAccounting,
		Variants:        []variantPayload{},
		ShippingTiers:   []tierPayload{},
		Vouchers:        []voucherPayload{},
		CreatedAt:       &created,
		UpdatedAt:       &updated,
	}
	for _, v := range form.Variants {
		vid := v.ID
		p.Variants = append(p.Variants, variantPayload{
			ID:                    &vid,
			Slug:                  v.Slug,
			GroupName:             v.GroupName,
			Name:                  v.Name,
			Description:           v.Description,
			UnitCost:              v.UnitCost,
			ItemCount:             v.ItemCount,
			QuantityChoices:       v.QuantityChoices,
			DefaultQuantity:       v.DefaultQuantity,
			GroupTotalAvailable:   v.GroupTotalAvailable,
			VariantTotalAvailable: v.VariantTotalAvailable,
		})
	}
	for _, t := range form.ShippingTiers {
		p.ShippingTiers = append(p.ShippingTiers, tierPayload{MaxQuantity: t.MaxQuantity, Cost: t.Cost})
	}
	for _, v := range form.Vouchers {
		vid, active := v.ID, v.Active
		p.Vouchers = append(p.Vouchers, voucherPayload{
			ID:         &vid,
			Code:       v.Code,
			Discount:   v.Discount,
			Active:     &active,
			OneTimeUse: v.OneTimeUse,
		})
	}
	return p
}

type formSummary struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func AdminListForms(forms formAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := forms.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]formSummary, 0, len(list))
		for _, f := range list {
			out = append(out, formSummary{ID: f.ID, Slug: f.Slug, Title: f.Title, CreatedAt: f.CreatedAt})
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminCreateForm(forms formAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formPayload
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, err := forms.Create(r.Context(), req.model())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newFormPayload(form))
	}
}

func AdminGetForm(forms formAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := validators.ParseUUIDParam(r, "formID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, err := forms.Get(r.Context(), formID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newFormPayload(form))
	}
}

// AdminUpdateForm replaces the whole configuration. Variants and vouchers
// without an id are created; stored ones missing from the payload are removed.
func AdminUpdateForm(forms formAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := validators.ParseUUIDParam(r, "formID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req formPayload
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, err := forms.Update(r.Context(), formID, req.model())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newFormPayload(form))
	}
}
