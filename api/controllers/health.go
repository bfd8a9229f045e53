package controllers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/karthikraju/granary-backend/api/responses"
	"github.com/karthikraju/granary-backend/pkg/config"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Granary-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database answers a ping.
func HealthReady(cfg *config.Config, db *gorm.DB, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Granary-Env", cfg.App.Env)

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
