package httpx

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// StatusClientClosedRequest is recorded when the client went away before a
// response was written.
const StatusClientClosedRequest = 499

// PathParam returns the decoded chi path parameter name. chi matches against
// r.URL.RawPath when the client's escaping differs from Go's default, and
// the parameter is then still percent-encoded.
func PathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", fmt.Errorf("path parameter %s: %w", name, err)
	}
	return decoded, nil
}
