// Package admin guards operational endpoints that sit outside the tenant JWT
// boundary, such as /metrics.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// HeaderToken carries the shared operations token.
const HeaderToken = "X-Admin-Token"

// RequireAdminToken rejects requests whose X-Admin-Token does not equal
// expectedToken. An empty expectedToken leaves the endpoint open.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedToken == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "unauthorized",
					"error_description": "admin token required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
