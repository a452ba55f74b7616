package payments

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

const statusCompleted = "Completed"

// Notification is the subset of a PayPal IPN message that matters here.
type Notification struct {
	TxnID         string
	PaymentStatus string
	ReceiverEmail string
	Invoice       string
	Custom        string
	Gross         decimal.Decimal
	Raw           string
}

// ParseNotification reads a form encoded IPN body.
func ParseNotification(raw string) (Notification, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Notification{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed ipn body")
	}
	gross := decimal.Zero
	if v := strings.TrimSpace(values.Get("mc_gross")); v != "" {
		gross, err = decimal.NewFromString(v)
		if err != nil {
			return Notification{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mc_gross")
		}
	}
	return Notification{
		TxnID:         values.Get("txn_id"),
		PaymentStatus: values.Get("payment_status"),
		ReceiverEmail: strings.TrimSpace(values.Get("receiver_email")),
		Invoice:       strings.TrimSpace(values.Get("invoice")),
		Custom:        values.Get("custom"),
		Gross:         gross,
		Raw:           raw,
	}, nil
}

// Verifier confirms an IPN message with PayPal.
type Verifier interface {
	Verify(ctx context.Context, raw string) error
}

// Submissions is what the IPN processor needs from the submission service.
type Submissions interface {
	Get(ctx context.Context, reference string) (*models.OrderSubmission, error)
	MarkPaid(ctx context.Context, reference, source string) (*models.OrderSubmission, error)
}

// FormLoader loads the form a submission belongs to.
type FormLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.OrderForm, error)
}

// PaymentNotifier tells the buyer a payment was recorded.
type PaymentNotifier interface {
	PaymentReceived(ctx context.Context, form *models.OrderForm, sub *models.OrderSubmission) error
}

// Processor turns verified PayPal notifications into paid submissions.
type Processor struct {
	gateway     *Gateway
	verifier    Verifier
	submissions Submissions
	forms       FormLoader
	notifier    PaymentNotifier
	logg        *logger.Logger
}

// NewProcessor wires the IPN processor. verifier may be nil to skip the
// postback, which is only sensible in development.
func NewProcessor(gateway *Gateway, verifier Verifier, subs Submissions, forms FormLoader, notifier PaymentNotifier, logg *logger.Logger) (*Processor, error) {
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "paypal gateway is required")
	}
	if subs == nil || forms == nil || notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submissions, forms and notifier are required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Processor{gateway: gateway, verifier: verifier, submissions: subs, forms: forms, notifier: notifier, logg: logg}, nil
}

// Handle validates one notification and marks its submission paid. A
// submission that is already paid is left alone and no email is sent.
func (p *Processor) Handle(ctx context.Context, n Notification) error {
	ctx = p.logg.WithFields(ctx, map[string]any{"txn_id": n.TxnID, "reference": n.Invoice})

	if p.verifier != nil {
		if err := p.verifier.Verify(ctx, n.Raw); err != nil {
			return err
		}
	}
	if n.PaymentStatus != statusCompleted {
		return pkgerrors.New(pkgerrors.CodeValidation, "unexpected payment status").
			WithDetails(map[string]any{"payment_status": n.PaymentStatus})
	}
	if !strings.EqualFold(n.ReceiverEmail, p.gateway.cfg.BusinessEmail) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid receiver email").
			WithDetails(map[string]any{"receiver_email": n.ReceiverEmail})
	}

	sub, err := p.submissions.Get(ctx, n.Invoice)
	if err != nil {
		return err
	}
	if !n.Gross.Equal(sub.Cost) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid amount").
			WithDetails(map[string]any{"mc_gross": n.Gross.StringFixed(2)})
	}
	if !p.gateway.signer.Verify(sub.Reference, n.Custom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid signature")
	}
	if sub.Paid {
		p.logg.Info(ctx, "paypal.ipn_duplicate")
		return nil
	}

	paid, err := p.submissions.MarkPaid(ctx, sub.Reference, submissions.SourcePayPal)
	if err != nil {
		return err
	}
	p.logg.Info(ctx, "paypal.payment_recorded")

	form, err := p.forms.Get(ctx, paid.FormID)
	if err != nil {
		p.logg.Error(ctx, "paypal.form_lookup_failed", err)
		return nil
	}
	if err := p.notifier.PaymentReceived(ctx, form, paid); err != nil {
		p.logg.Error(ctx, "paypal.payment_email_failed", err)
	}
	return nil
}
