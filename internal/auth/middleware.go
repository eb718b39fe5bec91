package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type authenticatedUser struct{}

// ContextWithUser attaches the authenticated account to ctx.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, authenticatedUser{}, u)
}

// UserFromContext returns the account set by JWTMiddleware. ok is false on
// routes that are not protected.
func UserFromContext(ctx context.Context) (u *User, ok bool) {
	u, ok = ctx.Value(authenticatedUser{}).(*User)
	return u, ok && u != nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[7:])
	return token, token != ""
}

// JWTMiddleware resolves the bearer token to a user and stores it in the
// request context. Requests without a valid token get 401.
func JWTMiddleware(svc *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			user, err := svc.CurrentUser(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrUnauthorized) {
					logger.Error("authenticate request", "err", err)
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}
