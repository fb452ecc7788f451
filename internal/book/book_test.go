package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverURL(t *testing.T) {
	assert.Equal(t, "http://covers.openlibrary.org/b/isbn/9780140449136-S.jpg", CoverURL("9780140449136"))
}

func TestMatchedColumn(t *testing.T) {
	b := Book{Title: "The Odyssey", Author: "Homer", Publisher: "Penguin Classics", ISBN: "9780140449136"}

	tests := []struct {
		term string
		want string
	}{
		{"odys", "title"},
		{"HOMER", "author"},
		{"penguin", "publisher"},
		{"0140", "isbn"},
		{"the", "title"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedColumn(b, tt.term))
		})
	}
}
