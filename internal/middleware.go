package internal

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/mlbautista/campusmart/internal/auth"
)

// BearerAuth validates the Authorization header and puts the resulting
// principal on the request context. It guards the authenticated publish
// endpoint only; the chat relay and the public endpoints skip it.
func BearerAuth(tokenSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				forbidden(w, "Forbidden: No token provided or invalid format.")
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			principal, err := auth.ValidateJWT(tokenString, tokenSecret)
			if err != nil {
				log.Printf("middleware: %v", err)
				forbidden(w, "Forbidden: Invalid token.")
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), auth.PrincipalKey, principal))
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": msg}); err != nil {
		log.Printf("middleware: failed to write response: %v", err)
	}
}
