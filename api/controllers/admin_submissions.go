package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pins-charity/orderforms-backend/api/responses"
	"github.com/pins-charity/orderforms-backend/api/validators"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/pkg/enums"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

type submissionAdmin interface {
	Apply(ctx context.Context, action enums.BulkAction, references []string) error
	ExportRows(ctx context.Context, formID uuid.UUID, paidOnly bool) (*submissions.Export, error)
}

// AdminExportSubmissions returns a form's submissions as JSON, a full CSV or
// the postage label CSV. Postage exports default to paid orders only.
func AdminExportSubmissions(subs submissionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := validators.ParseUUIDParam(r, "formID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		format, err := validators.ParseQueryChoice(r, "format", "json", "csv", "postage")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paidOnly, err := validators.ParseQueryBool(r, "paid", format == "postage")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		export, err := subs.ExportRows(r.Context(), formID, paidOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if format == "json" {
			responses.WriteSuccess(w, export)
			return
		}
		name := "submissions"
		write := export.WriteCSV
		if format == "postage" {
			name = "postage"
			write = export.WritePostageCSV
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"-"+formID.String()+".csv"))
		w.WriteHeader(http.StatusOK)
		if err := write(w); err != nil && logg != nil {
			logg.Error(r.Context(), "export.write_failed", err)
		}
	}
}

type bulkActionRequest struct {
	References []string `json:"references" validate:"required,min=1,max=500,dive,required"`
}

type bulkActionResponse struct {
	Action    enums.BulkAction `json:"action"`
	Requested int              `json:"requested"`
	Failed    int              `json:"failed"`
	Failures  []string         `json:"failures"`
}

// AdminApplyAction applies the bulk state change named in the path.
// Individual failures do not stop the batch and are listed in the response.
func AdminApplyAction(subs submissionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := validators.RequireParam(r, "action")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseBulkAction(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown action"))
			return
		}
		var req bulkActionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		references := make([]string, 0, len(req.References))
		for _, raw := range req.References {
			ref, err := validators.SanitizeReference(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order reference").
					WithDetails(map[string]any{"reference": raw}))
				return
			}
			references = append(references, ref)
		}

		failures := []string{}
		for _, failure := range multierr.Errors(subs.Apply(r.Context(), action, references)) {
			failures = append(failures, failure.Error())
		}
		if len(failures) > 0 && logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"action": action.String(), "failed": len(failures)})
			logg.Warn(ctx, "submissions.bulk_action_partial")
		}
		responses.WriteSuccess(w, bulkActionResponse{
			Action:    action,
			Requested: len(req.References),
			Failed:    len(failures),
			Failures:  failures,
		})
	}
}
