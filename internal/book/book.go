package book

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a keyed lookup matches nothing.
	ErrNotFound = errors.New("book not found")
	// ErrInvalidInput marks request parameters the service cannot act on.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks a failed call to a third-party service.
	ErrUpstream = errors.New("upstream request failed")
	// ErrUnavailable marks an upstream call rejected by an open circuit.
	ErrUnavailable = errors.New("upstream unavailable")
)

var (
	ErrSearchTermRequired = fmt.Errorf("search term is required: %w", ErrNotFound)
	ErrNoWorks            = fmt.Errorf("no works returned upstream: %w", ErrNotFound)
	ErrNoMatches          = fmt.Errorf("no local matches: %w", ErrNotFound)
	ErrNoWorkMetadata     = fmt.Errorf("no work metadata for isbn: %w", ErrNotFound)
	ErrNoCover            = fmt.Errorf("no cover image: %w", ErrNotFound)
)

const coverURLTemplate = "http://covers.openlibrary.org/b/isbn/%s-S.jpg"

// Book is a row of the books table in its wire shape. Optional columns are
// pointers so routes that do not select them leave them out of the JSON.
type Book struct {
	ID              int64   `json:"-"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn"`
	PublicationYear *int    `json:"publication_year"`
	Publisher       string  `json:"publisher"`
	NumPages        *int    `json:"num_pages,omitempty"`
	Popularity      *int    `json:"popularity,omitempty"`
	LibraryID       *string `json:"library_id,omitempty"`
	CoverURL        string  `json:"cover_url,omitempty"`
	MatchedColumn   string  `json:"matched_column,omitempty"`
}

// Description is the per-row enrichment returned by the ISBN info route.
// Subjects and Description are absent when the lookup for that row failed.
type Description struct {
	ISBN        string   `json:"isbn"`
	LibraryID   *string  `json:"library_id,omitempty"`
	WorkKey     string   `json:"work_key,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Query defines filters and pagination for listing books. At most one of
// Term, ISBN, LibraryID and Titles is expected to be set.
type Query struct {
	// Term is matched as a case-insensitive substring of title, author,
	// publisher or isbn.
	Term string
	// ISBN is matched as a substring of isbn.
	ISBN string
	// LibraryID is matched as a substring of library_id.
	LibraryID string
	// Titles restricts to rows whose title equals one of them, ignoring case.
	Titles []string
	// Distinct collapses rows that are identical in every selected column.
	Distinct bool
	// Limit of 0 means unbounded.
	Limit  int
	Offset int
}

// CoverURL derives the small cover image URL for isbn. No request is made.
func CoverURL(isbn string) string {
	return fmt.Sprintf(coverURLTemplate, isbn)
}

// withCovers sets CoverURL on every book.
func withCovers(books []Book) []Book {
	for i := range books {
		books[i].CoverURL = CoverURL(books[i].ISBN)
	}
	return books
}

// matchedColumn names the first searched column containing term.
func matchedColumn(b Book, term string) string {
	t := strings.ToLower(term)
	switch {
	case strings.Contains(strings.ToLower(b.Title), t):
		return "title"
	case strings.Contains(strings.ToLower(b.Author), t):
		return "author"
	case strings.Contains(strings.ToLower(b.Publisher), t):
		return "publisher"
	case strings.Contains(strings.ToLower(b.ISBN), t):
		return "isbn"
	default:
		return ""
	}
}
