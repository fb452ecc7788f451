package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"bookcatalog/internal/metrics"
	"bookcatalog/internal/platform/breaker"
)

const serviceName = "openlibrary"

// ErrNotFound is returned when Open Library has no record (or no image) for
// the requested resource.
var ErrNotFound = errors.New("openlibrary: not found")

// CoverSizes lists the image sizes served by the covers host.
var CoverSizes = []string{"S", "M", "L"}

type Config struct {
	BaseURL    string
	CoversURL  string
	UserAgent  string
	Timeout    time.Duration
	RPS        float64
	MaxRetries int
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	coversURL  string
	timeout    time.Duration
	limiter    *rate.Limiter
	maxRetries int
	cb         *gobreaker.CircuitBreaker[any]
}

func NewClient(cfg Config) *Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent:  cfg.UserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		coversURL:  strings.TrimRight(cfg.CoversURL, "/"),
		timeout:    cfg.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: cfg.MaxRetries,
		cb: breaker.New(serviceName, breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// WorkRef is one entry of a subject or trending work list.
type WorkRef struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// WorkList matches subjects/{subject}.json and trending/{window}.json.
type WorkList struct {
	Name      string    `json:"name"`
	WorkCount int       `json:"work_count"`
	Works     []WorkRef `json:"works"`
}

// Titles returns the non-empty work titles in order.
func (l *WorkList) Titles() []string {
	titles := make([]string, 0, len(l.Works))
	for _, w := range l.Works {
		if t := strings.TrimSpace(w.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// Edition matches isbn/{isbn}.json (served from books/{olid}.json).
type Edition struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Works []struct {
		Key string `json:"key"`
	} `json:"works"`
}

// WorkKeys returns the edition's work keys, e.g. "/works/OL45804W".
func (e *Edition) WorkKeys() []string {
	keys := make([]string, 0, len(e.Works))
	for _, w := range e.Works {
		if w.Key != "" {
			keys = append(keys, w.Key)
		}
	}
	return keys
}

// Work matches works/{id}.json.
type Work struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Subjects    []string    `json:"subjects"`
	Description interface{} `json:"description"` // string or {type, value}
}

// DescriptionText flattens the description into plain text.
func (w *Work) DescriptionText() string {
	return formatText(w.Description)
}

// Cover is an image response. The caller must close Body.
type Cover struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Subject lists works filed under subject. Subject keys are lowercase with
// underscores, so "Science Fiction" is looked up as science_fiction.
func (c *Client) Subject(ctx context.Context, subject string, limit int) (*WorkList, error) {
	u := fmt.Sprintf("%s/subjects/%s.json", c.baseURL, url.PathEscape(SubjectKey(subject)))
	if limit > 0 {
		u += fmt.Sprintf("?limit=%d", limit)
	}

	var res WorkList
	if err := c.getJSON(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubjectKey normalises a subject name into Open Library's key form.
func SubjectKey(subject string) string {
	return strings.ToLower(strings.Join(strings.Fields(subject), "_"))
}

// Trending lists trending works for a window such as "daily" or "weekly".
func (c *Client) Trending(ctx context.Context, window string) (*WorkList, error) {
	u := fmt.Sprintf("%s/trending/%s.json", c.baseURL, url.PathEscape(window))

	var res WorkList
	if err := c.getJSON(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) EditionByISBN(ctx context.Context, isbn string) (*Edition, error) {
	u := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, url.PathEscape(isbn))

	var res Edition
	if err := c.getJSON(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Work fetches a work by key. Both "/works/OL1W" and "OL1W" are accepted.
func (c *Client) Work(ctx context.Context, key string) (*Work, error) {
	id := strings.TrimPrefix(key, "/works/")
	u := fmt.Sprintf("%s/works/%s.json", c.baseURL, url.PathEscape(id))

	var res Work
	if err := c.getJSON(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CoverURL returns the covers host URL for isbn at size S, M or L.
// default=false makes the host answer 404 instead of a blank placeholder.
func (c *Client) CoverURL(isbn, size string) string {
	return fmt.Sprintf("%s/b/isbn/%s-%s.jpg?default=false", c.coversURL, url.PathEscape(isbn), size)
}

// Cover opens the cover image for isbn. A non-image response is ErrNotFound.
func (c *Client) Cover(ctx context.Context, isbn, size string) (*Cover, error) {
	resp, err := c.do(ctx, c.CoverURL(isbn, size))
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		resp.Body.Close()
		return nil, fmt.Errorf("cover %s: %w", isbn, ErrNotFound)
	}
	return &Cover{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// do performs a rate-limited GET through the circuit breaker, retrying
// 429 and 5xx responses with exponential backoff. On success the caller
// owns resp.Body.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	start := time.Now()
	res, err := c.cb.Execute(func() (any, error) {
		return c.doWithRetry(ctx, url)
	})
	metrics.UpstreamRequestDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "success").Inc()
	case errors.Is(err, ErrNotFound):
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "not_found").Inc()
	default:
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "failure").Inc()
	}
	if err != nil {
		return nil, breaker.Translate(err)
	}
	return res.(*http.Response), nil
}

func (c *Client) doWithRetry(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 250ms, 500ms, 1s...
			backoff := time.Duration(1<<uint(i-1)) * 250 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode == http.StatusNotFound:
			drain(resp)
			return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			drain(resp)
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		default:
			drain(resp)
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// formatText handles fields Open Library serves either as a plain string or
// as {"type": "/type/text", "value": "..."}.
func formatText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if m, ok := v.(map[string]interface{}); ok {
		if s, ok := m["value"].(string); ok {
			return s
		}
	}
	return ""
}
