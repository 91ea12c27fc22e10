package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "user_id"

// RequireUser verifies the bearer token and injects the authenticated user id
// into the request context. The token must carry a "user_id" claim (or "sub"
// as a fallback).
func (c *Controller) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := c.authenticate(r)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func (c *Controller) authenticate(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	tok, err := jwt.Parse(strings.TrimPrefix(authHeader, "Bearer "),
		func(t *jwt.Token) (any, error) { return c.App.JWTSecret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return "", false
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}

	if userID, _ := claims["user_id"].(string); userID != "" {
		return userID, true
	}
	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, true
	}
	return "", false
}

// requesterID returns the authenticated user id stored by RequireUser.
func requesterID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
