package payments

import (
	"strings"

	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/security"
)

const (
	liveEndpoint    = "https://www.paypal.com/cgi-bin/webscr"
	sandboxEndpoint = "https://www.sandbox.paypal.com/cgi-bin/webscr"
	ipnPath         = "/api/v1/webhooks/paypal"
)

// Checkout is a PayPal standard payment form: the buyer's browser posts
// Fields to Action.
type Checkout struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}

// Gateway builds checkouts and knows where PayPal lives.
type Gateway struct {
	cfg     config.PayPalConfig
	baseURL string
	signer  security.Signer
}

// NewGateway validates the PayPal settings. baseURL is the public origin of
// the order pages.
func NewGateway(cfg config.PayPalConfig, baseURL string) (*Gateway, error) {
	if !cfg.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "paypal business email and custom key are required")
	}
	signer, err := security.NewSigner(cfg.CustomKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "paypal custom key")
	}
	if cfg.Currency == "" {
		cfg.Currency = "GBP"
	}
	return &Gateway{cfg: cfg, baseURL: strings.TrimSuffix(baseURL, "/"), signer: signer}, nil
}

// Endpoint is the PayPal web endpoint for the configured environment.
func (g *Gateway) Endpoint() string {
	if g.cfg.Sandbox {
		return sandboxEndpoint
	}
	return liveEndpoint
}

// Checkout builds the payment form for an unpaid submission. The amount is
// the stored cost, never a recomputed one.
func (g *Gateway) Checkout(form *models.OrderForm, sub *models.OrderSubmission) (*Checkout, error) {
	if sub.Paid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "this order has already been paid")
	}
	if !sub.Cost.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "nothing to pay for this order")
	}
	custom, err := g.signer.Sign(sub.Reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign reference")
	}
	orderURL := g.baseURL + "/orders/" + sub.Reference
	return &Checkout{
		Action: g.Endpoint(),
		Fields: map[string]string{
			"cmd":           "_xclick",
			"business":      g.cfg.BusinessEmail,
			"amount":        sub.Cost.StringFixed(2),
			"currency_code": g.cfg.Currency,
			"item_name":     "Order form submission: " + form.Title,
			"invoice":       sub.Reference,
			"custom":        custom,
			"no_shipping":   "1",
			"notify_url":    firstNonEmpty(g.cfg.NotifyURL, g.baseURL+ipnPath),
			"return":        firstNonEmpty(g.cfg.ReturnURL, orderURL),
			"cancel_return": firstNonEmpty(g.cfg.CancelURL, orderURL),
		},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
