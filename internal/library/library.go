// Package library lists branch libraries and proxies nearby-library
// recommendations.
package library

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream request failed")
	ErrUnavailable  = errors.New("upstream unavailable")
)

type Library struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a validated coordinate pair.
type Location struct {
	Latitude  *float64 `validate:"required,gte=-90,lte=90"`
	Longitude *float64 `validate:"required,gte=-180,lte=180"`
}

type Repository interface {
	List(ctx context.Context) ([]Library, error)
}

type Recommender interface {
	LibraryRecommendation(ctx context.Context, latitude, longitude float64) (json.RawMessage, error)
}
