package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"dialogue/internal/auth"
	"dialogue/internal/domain/identity"
	"dialogue/internal/transport/http/api"
)

type identityKey struct{}

// Session resolves the sign-in cookie to a directory snapshot and puts it
// on the request context. Requests without a valid session are rejected.
func Session(secret string, store identity.StoreAPI) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "sign-in required", GetRequestID(r.Context()))
				return
			}

			sessionID, err := auth.ParseSessionToken(secret, cookie.Value)
			if err != nil {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid session", GetRequestID(r.Context()))
				return
			}

			snapshot, err := store.GetSession(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, identity.ErrSessionNotFound) {
					api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", GetRequestID(r.Context()))
					return
				}
				slog.Error("session lookup failed", "err", err)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, snapshot)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) (identity.Snapshot, bool) {
	snapshot, ok := ctx.Value(identityKey{}).(identity.Snapshot)
	return snapshot, ok
}

// WithIdentity injects a snapshot directly, bypassing cookie resolution.
// Used by handler tests.
func WithIdentity(ctx context.Context, snapshot identity.Snapshot) context.Context {
	return context.WithValue(ctx, identityKey{}, snapshot)
}
