package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"boutique/internal/apperr"
	"boutique/internal/models"
)

// UserFinder resolves a verified token subject to a live user record.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate requires an `Authorization: Bearer <token>` header, verifies
// the token and resolves its subject through users. The resolved user is
// published into the request context. Every failure terminates the request
// with 401.
func Authenticate(users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeError(w, apperr.New(apperr.Unauthorized, "token manquant"))
				return
			}
			claims, err := Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeError(w, err)
				return
			}
			u, err := users.FindByID(r.Context(), claims.ID)
			if err != nil || u == nil {
				// token may outlive its user
				writeError(w, apperr.New(apperr.Unauthorized, "utilisateur introuvable"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireRole rejects authenticated users whose role is not in roles.
// With no roles given, any authenticated user passes.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFrom(r.Context())
			if u == nil {
				writeError(w, apperr.New(apperr.Unauthorized, "utilisateur non reconnu"))
				return
			}
			if len(roles) > 0 && !hasRole(u, roles) {
				writeError(w, apperr.New(apperr.Forbidden, "accès refusé"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(u *models.User, roles []string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.Status(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": apperr.Message(err)})
}
