package middleware

import (
	"net/http"
	"slices"

	"github.com/jub0bs/fcors"
)

// CORS allows the listed origins, or any origin when the list holds "*".
func CORS(origins []string) (func(http.Handler) http.Handler, error) {
	from := fcors.FromAnyOrigin()
	if len(origins) > 0 && !slices.Contains(origins, "*") {
		from = fcors.FromOrigins(origins[0], origins[1:]...)
	}

	return fcors.AllowAccess(
		from,
		fcors.WithMethods(
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		),
		fcors.WithRequestHeaders("Authorization", "Content-Type", IdempotencyKeyHeader, RequestIDHeader),
	)
}
