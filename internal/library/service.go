package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"bookcatalog/internal/platform/breaker"
)

type Service struct {
	repo        Repository
	recommender Recommender
	validate    *validator.Validate
}

func NewService(repo Repository, recommender Recommender) *Service {
	return &Service{repo: repo, recommender: recommender, validate: validator.New()}
}

// List returns every library ordered by id.
func (s *Service) List(ctx context.Context) ([]Library, error) {
	libs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if libs == nil {
		libs = []Library{}
	}
	return libs, nil
}

// Recommend asks the recommendation service for libraries near loc and
// returns its answer unchanged.
func (s *Service) Recommend(ctx context.Context, loc Location) (json.RawMessage, error) {
	if err := s.validate.Struct(loc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	res, err := s.recommender.LibraryRecommendation(ctx, *loc.Latitude, *loc.Longitude)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, breaker.ErrOpen):
		return nil, fmt.Errorf("library recommendation: %w: %w", ErrUnavailable, err)
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		return nil, fmt.Errorf("library recommendation: %w: %w", ErrUpstream, err)
	}
}
