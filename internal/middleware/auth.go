package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pliu/taskchat/internal/auth"
	"github.com/pliu/taskchat/internal/store"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// UserID pulls the authenticated user id out of the request context.
func UserID(r *http.Request) int {
	id, _ := r.Context().Value(UserIDKey).(int)
	return id
}

// Auth verifies the token cookie and checks that the referenced user still
// exists before letting the request through. Token verification itself is
// purely cryptographic; a token for a deleted user is rejected here.
func Auth(tm *auth.TokenManager, st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				unauthorized(w, "Not authenticated")
				return
			}

			userID, err := tm.Verify(cookie.Value)
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			if _, err := st.GetUserByID(userID); err != nil {
				// Only a confirmed-missing user invalidates the token; a
				// store failure must not look like a bad credential.
				if errors.Is(err, store.ErrNotFound) {
					unauthorized(w, "Invalid token")
					return
				}
				log.Printf("auth lookup: %v", err)
				respondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	respondError(w, http.StatusUnauthorized, detail)
}

func respondError(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
