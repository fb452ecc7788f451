package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bookcatalog/internal/logging"
	"bookcatalog/internal/platform/breaker"
	"bookcatalog/internal/platform/openlibrary"
)

const (
	// PopularLimit is the size of the popular ranking.
	PopularLimit = 15
	// subjectWorkLimit bounds the work list requested per subject.
	subjectWorkLimit = 100
	// maxCoverCandidates bounds how many matching ISBNs are tried for a cover.
	maxCoverCandidates = 5
	// maxInfoRows bounds how many matching rows are enriched per request.
	maxInfoRows = 25
)

// TrendingWindows are the windows Open Library publishes trending lists for.
var TrendingWindows = []string{"now", "daily", "weekly", "monthly", "yearly", "forever"}

// DefaultTrendingWindow is used when the route omits the window.
const DefaultTrendingWindow = "daily"

type Config struct {
	// Concurrency caps simultaneous enrichment lookups per request.
	Concurrency int
	// CallTimeout bounds each outbound enrichment call.
	CallTimeout time.Duration
}

// Service provides book-related business logic.
type Service struct {
	repo        Repository
	ol          OpenLibrary
	recommender Recommender
	cfg         Config
}

// NewService creates a new book service.
func NewService(repo Repository, ol OpenLibrary, recommender Recommender, cfg Config) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &Service{repo: repo, ol: ol, recommender: recommender, cfg: cfg}
}

// List returns one page of the table with cover URLs.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Book, error) {
	books, err := s.repo.List(ctx, Query{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return withCovers(books), nil
}

// Search matches term against title, author, publisher and isbn. Each result
// names the first column that matched.
func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrSearchTermRequired
	}

	books, err := s.repo.List(ctx, Query{Term: term, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	for i := range books {
		books[i].MatchedColumn = matchedColumn(books[i], term)
	}
	return withCovers(books), nil
}

// Popular returns the PopularLimit books with the highest popularity.
func (s *Service) Popular(ctx context.Context) ([]Book, error) {
	return s.repo.Popular(ctx, PopularLimit)
}

// ByLibrary lists books whose library id contains libraryID.
func (s *Service) ByLibrary(ctx context.Context, libraryID string, limit, offset int) ([]Book, error) {
	libraryID = strings.TrimSpace(libraryID)
	if libraryID == "" {
		return nil, fmt.Errorf("library id is required: %w", ErrInvalidInput)
	}
	return s.repo.List(ctx, Query{LibraryID: libraryID, Limit: limit, Offset: offset})
}

// BySubject cross-references the works Open Library files under subject
// with local titles.
func (s *Service) BySubject(ctx context.Context, subject string, limit, offset int) ([]Book, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("subject is required: %w", ErrInvalidInput)
	}

	list, err := s.ol.Subject(ctx, subject, subjectWorkLimit)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			return nil, ErrNoWorks
		}
		return nil, upstreamErr("subject "+subject, err)
	}
	return s.matchTitles(ctx, list.Titles(), true, limit, offset)
}

// Trending cross-references Open Library's trending list for window with
// local titles.
func (s *Service) Trending(ctx context.Context, window string, limit, offset int) ([]Book, error) {
	list, err := s.ol.Trending(ctx, window)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			return nil, ErrNoWorks
		}
		return nil, upstreamErr("trending "+window, err)
	}

	books, err := s.matchTitles(ctx, list.Titles(), false, limit, offset)
	if err != nil {
		return nil, err
	}
	return withCovers(books), nil
}

// Top cross-references the recommender's ranked titles with local titles.
func (s *Service) Top(ctx context.Context, limit, offset int) ([]Book, error) {
	titles, err := s.recommender.TopBookTitles(ctx)
	if err != nil {
		return nil, upstreamErr("top books", err)
	}

	books, err := s.matchTitles(ctx, titles, false, limit, offset)
	if err != nil {
		return nil, err
	}
	return withCovers(books), nil
}

func (s *Service) matchTitles(ctx context.Context, titles []string, distinct bool, limit, offset int) ([]Book, error) {
	if len(titles) == 0 {
		return nil, ErrNoWorks
	}

	books, err := s.repo.List(ctx, Query{Titles: titles, Distinct: distinct, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNoMatches
	}
	return books, nil
}

type outcome int

const (
	enriched outcome = iota
	noWork
	failed
)

// Info returns one Description per local row whose isbn contains isbn, for
// at most maxInfoRows rows in id order. Lookups run concurrently up to
// Config.Concurrency. A row whose lookup fails or times out is returned
// without subjects and description.
func (s *Service) Info(ctx context.Context, isbn string) ([]Description, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, ErrNotFound
	}

	rows, err := s.repo.List(ctx, Query{ISBN: isbn, Limit: maxInfoRows})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	out := make([]Description, len(rows))
	outcomes := make([]outcome, len(rows))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, row := range rows {
		g.Go(func() error {
			out[i], outcomes[i] = s.describe(ctx, row)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var nEnriched, nFailed int
	for _, o := range outcomes {
		switch o {
		case enriched:
			nEnriched++
		case failed:
			nFailed++
		}
	}

	switch {
	case nEnriched > 0:
		return out, nil
	case nFailed > 0:
		return nil, fmt.Errorf("isbn %s: %d lookups failed: %w", isbn, nFailed, ErrUpstream)
	default:
		return nil, ErrNoWorkMetadata
	}
}

func (s *Service) describe(ctx context.Context, row Book) (Description, outcome) {
	d := Description{ISBN: row.ISBN, LibraryID: row.LibraryID}
	log := logging.Ctx(ctx).With().Str("isbn", row.ISBN).Logger()

	edition, err := callWithTimeout(ctx, s.cfg.CallTimeout, func(ctx context.Context) (*openlibrary.Edition, error) {
		return s.ol.EditionByISBN(ctx, row.ISBN)
	})
	if errors.Is(err, openlibrary.ErrNotFound) {
		return d, noWork
	}
	if err != nil {
		log.Warn().Err(err).Msg("edition lookup failed")
		return d, failed
	}

	keys := edition.WorkKeys()
	if len(keys) == 0 {
		return d, noWork
	}
	d.WorkKey = keys[0]

	work, err := callWithTimeout(ctx, s.cfg.CallTimeout, func(ctx context.Context) (*openlibrary.Work, error) {
		return s.ol.Work(ctx, d.WorkKey)
	})
	if errors.Is(err, openlibrary.ErrNotFound) {
		return d, noWork
	}
	if err != nil {
		log.Warn().Err(err).Str("work", d.WorkKey).Msg("work lookup failed")
		return d, failed
	}

	d.Subjects = work.Subjects
	d.Description = work.DescriptionText()
	return d, enriched
}

// Cover opens the first available cover image among the local rows whose
// isbn contains isbn. The caller must close the returned body.
func (s *Service) Cover(ctx context.Context, isbn, size string) (*openlibrary.Cover, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, ErrNotFound
	}

	rows, err := s.repo.List(ctx, Query{ISBN: isbn, Limit: maxCoverCandidates})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	tried := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.ISBN == "" || tried[row.ISBN] {
			continue
		}
		tried[row.ISBN] = true

		cover, err := s.ol.Cover(ctx, row.ISBN, size)
		if err == nil {
			return cover, nil
		}
		if !errors.Is(err, openlibrary.ErrNotFound) {
			return nil, upstreamErr("cover "+row.ISBN, err)
		}
	}
	return nil, ErrNoCover
}

func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

func upstreamErr(op string, err error) error {
	if errors.Is(err, breaker.ErrOpen) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
