package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       Page
		wantOffset int
	}{
		{"defaults", "", Page{Page: 1, Size: 20}, 0},
		{"explicit", "?page=3&size=10", Page{Page: 3, Size: 10}, 20},
		{"non numeric falls back", "?page=abc&size=xyz", Page{Page: 1, Size: 20}, 0},
		{"zero falls back", "?page=0&size=0", Page{Page: 1, Size: 20}, 0},
		{"negative falls back", "?page=-2&size=-5", Page{Page: 1, Size: 20}, 0},
		{"size capped", "?page=2&size=5000", Page{Page: 2, Size: 1000}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/books"+tt.query, nil)
			got := ParsePage(r, 1000)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOffset, got.Offset())
		})
	}
}
