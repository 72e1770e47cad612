package handler

import (
	"net/http"
	"strings"

	"github.com/stocklot/stocklot-backend/internal/auth/jwt"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
)

// Authenticate validates the Bearer token and puts the user's identity
// on the request context.
func Authenticate(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("malformed authorization header"))
				return
			}

			claims, err := manager.Validate(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := httputil.WithUserContext(r.Context(), claims.UserID, claims.Name, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
