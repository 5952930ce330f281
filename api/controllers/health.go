package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/mitraponics/storefront-backend/api/responses"
	"github.com/mitraponics/storefront-backend/pkg/config"
	pkgdb "github.com/mitraponics/storefront-backend/pkg/db"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/logger"
	pkgredis "github.com/mitraponics/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MitraPonics-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes both datastores so the balancer stops routing traffic
// when either is down.
func HealthReady(cfg *config.Config, db pkgdb.Pinger, cache pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MitraPonics-Env", cfg.App.Env)

		var errs []error
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				errs = append(errs, err)
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				errs = append(errs, err)
			}
		}

		if combined := multierr.Combine(errs...); combined != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "readiness probe"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
