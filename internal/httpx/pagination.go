package httpx

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Page is a resolved offset page.
type Page struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Offset returns (page-1)*size.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Size
}

// ParsePage reads the page and size query parameters. Missing, non-numeric
// or non-positive values fall back to 1 and 20; size is capped at maxSize.
func ParsePage(r *http.Request, maxSize int) Page {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}
	size, err := strconv.Atoi(query.Get("size"))
	if err != nil || size < 1 {
		size = DefaultPageSize
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return Page{Page: page, Size: size}
}
