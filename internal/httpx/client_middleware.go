package httpx

import (
	"net/http"
	"strings"
	"time"

	"hamarabooks/internal/platform/crypto"

	"github.com/google/uuid"
)

const (
	ClientCookieName  = "hb_client"
	clientTokenHeader = "X-Client-Token"
)

// ClientMiddleware scopes every request to a storefront client. The client is
// read from a Bearer token or the hb_client cookie; requests without a valid
// token get a fresh client ID, returned both as a cookie and in X-Client-Token.
func ClientMiddleware(secret string, ttl time.Duration, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := clientToken(r); token != "" {
				if clientID, err := crypto.ParseClientToken(secret, token); err == nil {
					next.ServeHTTP(w, r.WithContext(ContextWithClient(r.Context(), clientID)))
					return
				}
			}

			clientID := uuid.NewString()
			token, err := crypto.GenerateClientToken(secret, clientID, ttl)
			if err != nil {
				JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(clientTokenHeader, token)

			next.ServeHTTP(w, r.WithContext(ContextWithClient(r.Context(), clientID)))
		})
	}
}

func clientToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if c, err := r.Cookie(ClientCookieName); err == nil {
		return c.Value
	}
	return ""
}
