package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/patrickverol/docrag-go/internal/logging"
)

// authMiddleware returns an HTTP middleware that enforces Bearer token
// authentication. If apiKey is empty the middleware is a no-op — auth is
// disabled and a warning is logged at server startup (not per-request).
//
// Protected routes must supply:
//
//	Authorization: Bearer <apiKey>
//
// Requests missing or presenting an incorrect token receive 401 Unauthorized
// with a WWW-Authenticate: Bearer challenge. The presented token value is
// never logged — only its presence or absence is recorded.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		// Auth disabled — pass all requests through unchanged.
		return next
	}

	want := []byte(apiKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			reject(w, r, `Bearer realm="docrag"`, "authorization required",
				slog.Bool("token_present", false))
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			reject(w, r, `Bearer realm="docrag" error="invalid_token"`, "invalid token",
				slog.Bool("token_present", true))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// reject writes a 401 with the given challenge and logs the failure without
// the token value.
func reject(w http.ResponseWriter, r *http.Request, challenge, msg string, attrs ...any) {
	log := logging.FromContext(r.Context())
	log.Warn("auth: "+msg, append(attrs, slog.String("path", r.URL.Path))...)

	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, msg, http.StatusUnauthorized)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The second return is false if the header is absent or malformed.
func bearerToken(r *http.Request) (string, bool) {
	hdr := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(hdr, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
