package middleware

import (
	"net/http"

	"animeshop-be/internal/auth"
	"animeshop-be/internal/transport"
)

// Authenticate resolves the bearer credential into an identity and rejects
// the request when it cannot.
func Authenticate(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := auth.ExtractBearerToken(r)

			id, err := guard.Resolve(token, present)
			if err != nil {
				transport.Error(w, r, err)
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = id.ID
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFrom(r.Context())
		if err := auth.RequireAdmin(id); err != nil {
			transport.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
