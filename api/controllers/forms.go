package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/pins-charity/orderforms-backend/api/middleware"
	"github.com/pins-charity/orderforms-backend/api/responses"
	"github.com/pins-charity/orderforms-backend/api/validators"
	"github.com/pins-charity/orderforms-backend/internal/catalog"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/pkg/db/models"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

type formReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.OrderForm, error)
	GetBySlug(ctx context.Context, slug string) (*models.OrderForm, error)
}

// PendingOrders tracks the unpaid order a browser session may still edit.
type PendingOrders interface {
	PendingReference(ctx context.Context, sessionID string, formID uuid.UUID) (string, error)
	Remember(ctx context.Context, sessionID string, formID uuid.UUID, reference string) error
	Forget(ctx context.Context, sessionID string, formID uuid.UUID) error
}

// orderURLs builds the public link for a reference.
type orderURLs interface {
	OrderURL(reference string) string
}

// FormByID returns the public view of a form.
func FormByID(forms formReader, subs submissions.Service, pending PendingOrders, logg *logger.Logger) http.HandlerFunc {
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
		writePublicForm(w, r, form, subs, pending, logg)
	}
}

// FormBySlug returns the public view of a form looked up by slug.
func FormBySlug(forms formReader, subs submissions.Service, pending PendingOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := validators.RequireParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, err := forms.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePublicForm(w, r, form, subs, pending, logg)
	}
}

func writePublicForm(w http.ResponseWriter, r *http.Request, form *models.OrderForm, subs submissions.Service, pending PendingOrders, logg *logger.Logger) {
	availability, err := subs.Availability(r.Context(), form.ID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newPublicFormResponse(form, availability, pendingReference(r, pending, form.ID, logg)))
}

// pendingReference never fails a request; a session store outage only means
// the next submission creates a new order.
func pendingReference(r *http.Request, pending PendingOrders, formID uuid.UUID, logg *logger.Logger) string {
	if pending == nil {
		return ""
	}
	ref, err := pending.PendingReference(r.Context(), middleware.SessionIDFromContext(r.Context()), formID)
	if err != nil {
		if logg != nil {
			logg.Error(r.Context(), "session.pending_lookup_failed", err)
		}
		return ""
	}
	return ref
}

// FormTotal prices a selection for live display.
func FormTotal(subs submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, sel, voucherCode, ok := decodeSelection(w, r, logg)
		if !ok {
			return
		}
		quote, err := subs.ComputeTotal(r.Context(), formID, sel, voucherCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteResponse(quote))
	}
}

// FormValidate checks a selection against the stock limits. The caller's own
// pending order does not count against them.
func FormValidate(subs submissions.Service, pending PendingOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, sel, _, ok := decodeSelection(w, r, logg)
		if !ok {
			return
		}
		result, err := subs.Validate(r.Context(), formID, sel, pendingReference(r, pending, formID, logg))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// FormAvailability reports sold out state and variants that can no longer be
// ordered.
func FormAvailability(subs submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := validators.ParseUUIDParam(r, "formID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		availability, err := subs.Availability(r.Context(), formID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAvailabilityResponse(availability))
	}
}

// FormSubmit places or edits the session's order.
func FormSubmit(subs submissions.Service, pending PendingOrders, urls orderURLs, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := validators.ParseUUIDParam(r, "formID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req submitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel, err := catalog.DecodeSelection(req.Selection)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		result, err := subs.Submit(r.Context(), formID, submissions.SubmitInput{
			Selection:        sel,
			VoucherCode:      req.VoucherCode,
			Buyer:            req.buyer(),
			EditingReference: pendingReference(r, pending, formID, logg),
		})
		if result != nil && result.Submission != nil && pending != nil {
			if rerr := pending.Remember(r.Context(), sessionID, formID, result.Submission.Reference); rerr != nil && logg != nil {
				logg.Error(r.Context(), "session.remember_failed", rerr)
			}
		}
		if err != nil {
			// A stored order with failed emails still hands back its reference.
			if typed := pkgerrors.As(err); typed != nil && typed.Details() == nil && result != nil && result.Submission != nil {
				typed.WithDetails(map[string]any{"reference": result.Submission.Reference})
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Updated {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, submitResponse{
			Reference: result.Submission.Reference,
			Updated:   result.Updated,
			OrderURL:  urls.OrderURL(result.Submission.Reference),
			Quote:     newQuoteResponse(result.Quote),
		})
	}
}

func decodeSelection(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, catalog.Selection, string, bool) {
	formID, err := validators.ParseUUIDParam(r, "formID")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, nil, "", false
	}
	var req selectionRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, nil, "", false
	}
	sel, err := catalog.DecodeSelection(req.Selection)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, nil, "", false
	}
	return formID, sel, req.VoucherCode, true
}
