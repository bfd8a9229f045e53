package middleware

import (
	"net/http"

	"github.com/karthikraju/granary-backend/api/responses"
	"github.com/karthikraju/granary-backend/pkg/enums"
	pkgerrors "github.com/karthikraju/granary-backend/pkg/errors"
	"github.com/karthikraju/granary-backend/pkg/logger"
	"github.com/karthikraju/granary-backend/pkg/rbac"
)

// RequirePermission gates a route on the static role policy. Must run after
// Auth so the role is present in the context.
func RequirePermission(perm rbac.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.Role(RoleFromContext(r.Context()))
			if !rbac.Allowed(role, perm) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
