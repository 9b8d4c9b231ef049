package auth

import (
	"net/http"
	"strings"
)

// ExtractBearerToken returns the credential from "Authorization: Bearer <token>"
// and whether a bearer credential was present at all.
func ExtractBearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}
