package library

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/httpx"
	"bookcatalog/internal/platform/breaker"
	"bookcatalog/internal/testutil"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) List(ctx context.Context) ([]Library, error) {
	args := m.Called(ctx)
	libs, _ := args.Get(0).([]Library)
	return libs, args.Error(1)
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) LibraryRecommendation(ctx context.Context, latitude, longitude float64) (json.RawMessage, error) {
	args := m.Called(ctx, latitude, longitude)
	res, _ := args.Get(0).(json.RawMessage)
	return res, args.Error(1)
}

func ptr(f float64) *float64 { return &f }

func TestService_List(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything).Return(nil, nil)
	svc := NewService(repo, &mockRecommender{})

	libs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, libs)
	assert.Empty(t, libs)
}

func TestService_Recommend(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		loc     Location
		upErr   error
		wantErr error
	}{
		{name: "ok", loc: Location{Latitude: ptr(40.7), Longitude: ptr(-74)}},
		{name: "equator and meridian", loc: Location{Latitude: ptr(0), Longitude: ptr(0)}},
		{name: "missing latitude", loc: Location{Longitude: ptr(1)}, wantErr: ErrInvalidInput},
		{name: "latitude out of range", loc: Location{Latitude: ptr(91), Longitude: ptr(0)}, wantErr: ErrInvalidInput},
		{name: "longitude out of range", loc: Location{Latitude: ptr(0), Longitude: ptr(-180.5)}, wantErr: ErrInvalidInput},
		{name: "upstream down", loc: Location{Latitude: ptr(1), Longitude: ptr(1)}, upErr: errors.New("refused"), wantErr: ErrUpstream},
		{name: "circuit open", loc: Location{Latitude: ptr(1), Longitude: ptr(1)}, upErr: breaker.ErrOpen, wantErr: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecommender{}
			rec.On("LibraryRecommendation", mock.Anything, mock.Anything, mock.Anything).
				Return(json.RawMessage(`{"libraries":[]}`), tt.upErr)
			svc := NewService(&mockRepository{}, rec)

			res, err := svc.Recommend(ctx, tt.loc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, `{"libraries":[]}`, string(res))
			rec.AssertCalled(t, "LibraryRecommendation", mock.Anything, *tt.loc.Latitude, *tt.loc.Longitude)
		})
	}
}

func TestHTTPHandler_List(t *testing.T) {
	repo := &mockRepository{}
	repo.On("List", mock.Anything).Return([]Library{
		{ID: "lib-north", Name: "North Branch", Address: "1 Elm St", Latitude: 40.71, Longitude: -74},
	}, nil)
	h := NewHTTPHandler(NewService(repo, &mockRecommender{}))

	w := httptest.NewRecorder()
	h.List(w, testutil.NewRequest(http.MethodGet, "/api/books/libraries", nil))

	res := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusOK, res.Code)
	data, ok := res.Body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "North Branch", data[0].(map[string]interface{})["name"])
}

func TestHTTPHandler_Location(t *testing.T) {
	t.Run("proxies recommendation", func(t *testing.T) {
		rec := &mockRecommender{}
		rec.On("LibraryRecommendation", mock.Anything, 40.5, -73.25).
			Return(json.RawMessage(`[{"name":"North Branch"}]`), nil)
		h := NewHTTPHandler(NewService(&mockRepository{}, rec))

		w := httptest.NewRecorder()
		h.Location(w, testutil.NewRequest(http.MethodGet, "/api/books/location?latitude=40.5&longitude=-73.25", nil))

		res := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "success", res.Body["status"])
		rec.AssertExpectations(t)
	})

	bad := []string{
		"/api/books/location",
		"/api/books/location?latitude=40",
		"/api/books/location?latitude=abc&longitude=1",
		"/api/books/location?latitude=95&longitude=1",
	}
	for _, path := range bad {
		t.Run(path, func(t *testing.T) {
			rec := &mockRecommender{}
			h := NewHTTPHandler(NewService(&mockRepository{}, rec))

			w := httptest.NewRecorder()
			h.Location(w, testutil.NewRequest(http.MethodGet, path, nil))

			res := testutil.RecordHTTPResponse(w)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Equal(t, "fail", res.Body["status"])
			rec.AssertNotCalled(t, "LibraryRecommendation", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("upstream failure", func(t *testing.T) {
		rec := &mockRecommender{}
		rec.On("LibraryRecommendation", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
		h := NewHTTPHandler(NewService(&mockRepository{}, rec))

		w := httptest.NewRecorder()
		h.Location(w, testutil.NewRequest(http.MethodGet, "/api/books/location?latitude=1&longitude=1", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("client went away", func(t *testing.T) {
		rec := &mockRecommender{}
		rec.On("LibraryRecommendation", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)
		h := NewHTTPHandler(NewService(&mockRepository{}, rec))

		w := httptest.NewRecorder()
		h.Location(w, testutil.NewRequest(http.MethodGet, "/api/books/location?latitude=1&longitude=1", nil))

		assert.Equal(t, httpx.StatusClientClosedRequest, w.Code)
	})
}
