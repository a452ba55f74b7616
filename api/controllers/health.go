package controllers

import (
	"context"
	"net/http"

	"github.com/pins-charity/orderforms-backend/api/responses"
	"github.com/pins-charity/orderforms-backend/pkg/config"
	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// Pinger is a dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OrderForms-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails while the database or redis cannot be reached.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-OrderForms-Env", cfg.App.Env)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
