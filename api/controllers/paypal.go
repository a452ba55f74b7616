package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/pins-charity/orderforms-backend/api/responses"
	"github.com/pins-charity/orderforms-backend/internal/payments"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

const maxIPNBytes = 64 << 10

type ipnHandler interface {
	Handle(ctx context.Context, n payments.Notification) error
}

// PayPalIPN receives instant payment notifications. Notifications that are
// rejected on their content are acknowledged so PayPal stops retrying them;
// only transient failures get a non-2xx reply.
func PayPalIPN(processor ipnHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxIPNBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read ipn body"))
			return
		}
		n, err := payments.ParseNotification(string(body))
		if err == nil {
			err = processor.Handle(r.Context(), n)
		}
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"error": err.Error(), "reference": n.Invoice})
					logg.Warn(ctx, "paypal.ipn_rejected")
				}
				w.WriteHeader(http.StatusOK)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
