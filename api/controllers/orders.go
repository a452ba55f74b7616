package controllers

import (
	"context"
	"net/http"

	"github.com/pins-charity/orderforms-backend/api/middleware"
	"github.com/pins-charity/orderforms-backend/api/responses"
	"github.com/pins-charity/orderforms-backend/api/validators"
	"github.com/pins-charity/orderforms-backend/internal/payments"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

type submissionReader interface {
	Get(ctx context.Context, reference string) (*models.OrderSubmission, error)
}

// CheckoutBuilder is nil when online payment is not configured.
type CheckoutBuilder interface {
	Checkout(form *models.OrderForm, sub *models.OrderSubmission) (*payments.Checkout, error)
}

// OrderDetail shows an order by its public reference, with a payment form
// while it is unpaid. Viewing a paid order releases it from the session's
// pending slot so the next submission starts a new order.
func OrderDetail(subs submissionReader, forms formReader, gateway CheckoutBuilder, pending PendingOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := validators.RequireParam(r, "reference")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reference, err := validators.SanitizeReference(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithReference(ctx, reference)
		}
		sub, err := subs.Get(ctx, reference)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		form, err := forms.Get(ctx, sub.FormID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if sub.Paid {
			releasePending(ctx, pending, sub, logg)
		}

		resp := newOrderResponse(form, sub)
		if gateway != nil && !sub.Paid && sub.Cost.IsPositive() {
			checkout, err := gateway.Checkout(form, sub)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			resp.Checkout = checkout
		}
		responses.WriteSuccess(w, resp)
	}
}

func releasePending(ctx context.Context, pending PendingOrders, sub *models.OrderSubmission, logg *logger.Logger) {
	sessionID := middleware.SessionIDFromContext(ctx)
	if pending == nil || sessionID == "" {
		return
	}
	ref, err := pending.PendingReference(ctx, sessionID, sub.FormID)
	if err == nil && ref == sub.Reference {
		err = pending.Forget(ctx, sessionID, sub.FormID)
	}
	if err != nil && logg != nil {
		logg.Error(ctx, "session.release_failed", err)
	}
}
