package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "pisos/pkg/errors"
	httputil "pisos/pkg/http"
	"pisos/pkg/logger"
)

// AdminGate guards every path under prefix with a static bearer token. An empty
// token disables the admin surface entirely.
func AdminGate(token, prefix string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}

			if token == "" {
				rejectAdmin(w, log, r, apperrors.Forbidden("Admin access is disabled"))
				return
			}

			presented, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || presented == "" {
				rejectAdmin(w, log, r, apperrors.Unauthorized("Missing bearer token"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				rejectAdmin(w, log, r, apperrors.Unauthorized("Invalid bearer token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectAdmin(w http.ResponseWriter, log *logger.Logger, r *http.Request, err *apperrors.AppError) {
	log.Warn("Admin request rejected",
		"request_id", requestID(r),
		"reason", err.Message,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	_ = httputil.WriteError(w, err)
}
