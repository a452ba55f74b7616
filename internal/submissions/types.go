package submissions

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/internal/pricing"
	"github.com/pins-charity/orderforms-backend/internal/shipping"
	"github.com/pins-charity/orderforms-backend/internal/stock"
	"github.com/pins-charity/orderforms-backend/internal/vouchers"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
)

// Payment sources recorded when a submission is marked paid.
const (
	SourceAdmin  = "admin"
	SourcePayPal = "paypal"
)

// Buyer holds the contact and shipping details captured with an order.
type Buyer struct {
	Name         string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	AddressLine3 string
	City         string
	County       string
	Postcode     string
}

func (b Buyer) normalized() Buyer {
	return Buyer{
		Name:         strings.TrimSpace(b.Name),
		Email:        strings.TrimSpace(b.Email),
		Phone:        strings.TrimSpace(b.Phone),
		AddressLine1: strings.TrimSpace(b.AddressLine1),
		AddressLine2: strings.TrimSpace(b.AddressLine2),
		AddressLine3: strings.TrimSpace(b.AddressLine3),
		City:         strings.TrimSpace(b.City),
		County:       strings.TrimSpace(b.County),
		Postcode:     strings.TrimSpace(b.Postcode),
	}
}

// SubmitInput is one buyer submission. EditingReference names the caller's
// own pending order, if any.
type SubmitInput struct {
	Selection        catalog.Selection
	VoucherCode      string
	Buyer            Buyer
	EditingReference string
}

// SubmitResult is the persisted submission and the quote it was priced with.
type SubmitResult struct {
	Submission *models.OrderSubmission
	Quote      pricing.Quote
	Updated    bool
}

// Availability describes what can still be ordered on a form.
type Availability struct {
	SoldOut            bool
	DisallowedVariants []models.ProductVariant
	Usage              stock.Usage
	ShippingLabels     []shipping.Label
}

// FormLoader loads a fully populated order form.
type FormLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.OrderForm, error)
}

// VoucherLedger resolves codes and retires one-time vouchers.
type VoucherLedger interface {
	Resolve(ctx context.Context, formID uuid.UUID, code string) (vouchers.Resolution, error)
	OnPaid(ctx context.Context, tx *gorm.DB, submission *models.OrderSubmission) error
}

// Notifier sends order emails.
type Notifier interface {
	OrderPlaced(ctx context.Context, form *models.OrderForm, sub *models.OrderSubmission, quote pricing.Quote, updated bool) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
