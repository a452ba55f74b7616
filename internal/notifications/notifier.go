package notifications

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/pins-charity/orderforms-backend/internal/pricing"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
	"github.com/pins-charity/orderforms-backend/pkg/metrics"
)

const (
	kindSeller  = "seller"
	kindBuyer   = "buyer"
	kindPayment = "payment"
)

// Notifier sends the order and payment emails.
type Notifier struct {
	composer Composer
	sender   Sender
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
}

func NewNotifier(composer Composer, sender Sender, m *metrics.OrderMetrics, logg *logger.Logger) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Notifier{composer: composer, sender: sender, metrics: m, logg: logg}, nil
}

// OrderPlaced emails the seller, when the form has recipients, and then the
// buyer. Both sends are attempted; failures are returned combined.
func (n *Notifier) OrderPlaced(ctx context.Context, form *models.OrderForm, sub *models.OrderSubmission, quote pricing.Quote, updated bool) error {
	var errs error
	if len(form.Recipients()) > 0 {
		errs = multierr.Append(errs, n.send(ctx, kindSeller, n.composer.SellerOrder(form, sub, quote, updated)))
	}
	errs = multierr.Append(errs, n.send(ctx, kindBuyer, n.composer.BuyerOrder(form, sub, quote, updated)))
	return errs
}

// PaymentReceived emails the buyer once a payment has been recorded.
func (n *Notifier) PaymentReceived(ctx context.Context, form *models.OrderForm, sub *models.OrderSubmission) error {
	return n.send(ctx, kindPayment, n.composer.PaymentReceived(form, sub))
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) error {
	if err := n.sender.Send(ctx, msg); err != nil {
		n.metrics.IncNotificationFailure(kind)
		n.logg.Error(n.logg.WithField(ctx, "kind", kind), "notification.send_failed", err)
		return fmt.Errorf("%s email: %w", kind, err)
	}
	return nil
}
