// Package recommender talks to the local recommendation service that ranks
// top books and suggests nearby libraries.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"bookcatalog/internal/metrics"
	"bookcatalog/internal/platform/breaker"
)

const serviceName = "recommender"

type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker[any]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         breaker.New(serviceName, breaker.Settings{}),
	}
}

// TopBooks matches GET /books.
type TopBooks struct {
	Titles []string `json:"book_name"`
}

// TopBookTitles returns the ranked titles the service currently recommends.
func (c *Client) TopBookTitles(ctx context.Context) ([]string, error) {
	var res TopBooks
	if err := c.getJSON(ctx, c.baseURL+"/books", &res); err != nil {
		return nil, err
	}
	return res.Titles, nil
}

// LibraryRecommendation returns the service's raw JSON answer for the
// libraries closest to the given coordinates.
func (c *Client) LibraryRecommendation(ctx context.Context, latitude, longitude float64) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))

	var res json.RawMessage
	if err := c.getJSON(ctx, c.baseURL+"/library_recommendation?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) getJSON(ctx context.Context, u string, target interface{}) error {
	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.fetch(ctx, u, target)
	})
	metrics.UpstreamRequestDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "failure").Inc()
		return breaker.Translate(err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(serviceName, "success").Inc()
	return nil
}

func (c *Client) fetch(ctx context.Context, u string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return fmt.Errorf("recommender: unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("recommender: decode response: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err came from an open circuit.
func IsUnavailable(err error) bool {
	return errors.Is(err, breaker.ErrOpen)
}
