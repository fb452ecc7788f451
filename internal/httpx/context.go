package httpx

import (
	"net/http"

	"bookcatalog/internal/logging"
)

// RequestIDFrom retrieves the request id from the request context.
func RequestIDFrom(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}
