package library

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"bookcatalog/internal/httpx"
	"bookcatalog/internal/logging"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /api/books/libraries
// @Summary List libraries
// @Tags libraries
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/libraries [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	libs, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, libs, nil)
}

// Location handles GET /api/books/location
// @Summary Libraries recommended near a coordinate
// @Tags libraries
// @Produce json
// @Param latitude query number true "Latitude, -90 to 90"
// @Param longitude query number true "Longitude, -180 to 180"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /api/books/location [get]
func (h *HTTPHandler) Location(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := parseCoordinate(q.Get("latitude"))
	lon, lonErr := parseCoordinate(q.Get("longitude"))
	if latErr != nil || lonErr != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "latitude and longitude must be numbers")
		return
	}

	res, err := h.service.Recommend(r.Context(), Location{Latitude: lat, Longitude: lon})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, res, nil)
}

// parseCoordinate returns nil for an absent value so validation reports it
// as missing.
func parseCoordinate(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.Ctx(r.Context())

	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST",
			"latitude must be within [-90, 90] and longitude within [-180, 180]")
	case errors.Is(err, ErrUnavailable):
		log.Warn().Err(err).Msg("upstream unavailable")
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Upstream service temporarily unavailable")
	case errors.Is(err, ErrUpstream):
		log.Error().Err(err).Msg("upstream request failed")
		httpx.JSONError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "Upstream service request failed")
	case errors.Is(err, context.Canceled):
		log.Debug().Err(err).Msg("request canceled")
		w.WriteHeader(httpx.StatusClientClosedRequest)
	default:
		log.Error().Err(err).Msg("request failed")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
