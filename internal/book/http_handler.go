package book

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookcatalog/internal/httpx"
	"bookcatalog/internal/logging"
)

var validate = validator.New()

type HTTPHandler struct {
	service     *Service
	maxPageSize int
}

func NewHTTPHandler(service *Service, maxPageSize int) *HTTPHandler {
	return &HTTPHandler{service: service, maxPageSize: maxPageSize}
}

// List handles GET /api/books/all
// @Summary List books
// @Tags books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/books/all [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, h.maxPageSize)

	books, err := h.service.List(r.Context(), page.Size, page.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, page)
}

// Search handles GET /api/books/search/{term}
// @Summary Search books
// @Description Case-insensitive substring match on title, author, publisher and ISBN
// @Tags books
// @Produce json
// @Param term path string true "Search term"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/search/{term} [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, h.maxPageSize)

	term, ok := h.pathParam(w, r, "term")
	if !ok {
		return
	}

	books, err := h.service.Search(r.Context(), term, page.Size, page.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, page)
}

// Popular handles GET /api/books/popular
// @Summary Most popular books
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/popular [get]
func (h *HTTPHandler) Popular(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.Popular(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, nil)
}

// Top handles GET /api/books/top
// @Summary Books ranked by the recommendation service
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /api/books/top [get]
func (h *HTTPHandler) Top(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, h.maxPageSize)

	books, err := h.service.Top(r.Context(), page.Size, page.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, page)
}

// Subject handles GET /api/books/subject/{subject}
// @Summary Local books filed under an Open Library subject
// @Tags books
// @Produce json
// @Param subject path string true "Subject, e.g. science_fiction"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/subject/{subject} [get]
func (h *HTTPHandler) Subject(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, h.maxPageSize)

	subject, ok := h.pathParam(w, r, "subject")
	if !ok {
		return
	}

	books, err := h.service.BySubject(r.Context(), subject, page.Size, page.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, page)
}

// Trending handles GET /api/books/trending/{window}
// @Summary Local books on an Open Library trending list
// @Tags books
// @Produce json
// @Param window path string false "now, daily, weekly, monthly, yearly or forever" default(daily)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/trending/{window} [get]
func (h *HTTPHandler) Trending(w http.ResponseWriter, r *http.Request) {
	window, ok := h.pathParam(w, r, "window")
	if !ok {
		return
	}
	window = strings.ToLower(window)
	if window == "" {
		window = DefaultTrendingWindow
	}
	if err := validate.Var(window, "oneof="+strings.Join(TrendingWindows, " ")); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST",
			"window must be one of: "+strings.Join(TrendingWindows, ", "))
		return
	}

	page := httpx.ParsePage(r, h.maxPageSize)
	books, err := h.service.Trending(r.Context(), window, page.Size, page.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, page)
}

// Info handles GET /api/books/info/{isbn}
// @Summary Subjects and description for every local book matching an ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "ISBN or ISBN fragment"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /api/books/info/{isbn} [get]
func (h *HTTPHandler) Info(w http.ResponseWriter, r *http.Request) {
	isbn, ok := h.pathParam(w, r, "isbn")
	if !ok {
		return
	}

	descriptions, err := h.service.Info(r.Context(), isbn)
	if err != nil {
		h.fail(w, r, err, "ISBN not found")
		return
	}
	httpx.JSONSuccess(w, r, descriptions, nil)
}

// Cover handles GET /api/books/covers/{isbn}
// @Summary Cover image for a local book
// @Tags books
// @Produce image/jpeg
// @Param isbn path string true "ISBN or ISBN fragment"
// @Param size query string false "S, M or L" default(M)
// @Success 200 {file} binary
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/covers/{isbn} [get]
func (h *HTTPHandler) Cover(w http.ResponseWriter, r *http.Request) {
	size := strings.ToUpper(r.URL.Query().Get("size"))
	if size == "" {
		size = "M"
	}
	if err := validate.Var(size, "oneof=S M L"); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "size must be one of: S, M, L")
		return
	}

	isbn, ok := h.pathParam(w, r, "isbn")
	if !ok {
		return
	}

	cover, err := h.service.Cover(r.Context(), isbn, size)
	if err != nil {
		h.fail(w, r, err, "ISBN not found")
		return
	}
	defer cover.Body.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if cover.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(cover.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, cover.Body); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("stream cover")
	}
}

// ByLibrary handles GET /api/books/library/{libraryID}/books
// @Summary Books held by a library
// @Tags libraries
// @Produce json
// @Param libraryID path string true "Library id or fragment"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/library/{libraryID}/books [get]
func (h *HTTPHandler) ByLibrary(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, h.maxPageSize)

	libraryID, ok := h.pathParam(w, r, "libraryID")
	if !ok {
		return
	}

	books, err := h.service.ByLibrary(r.Context(), libraryID, page.Size, page.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	httpx.JSONSuccess(w, r, books, page)
}

// pathParam decodes a path parameter, answering 400 when it is malformed.
func (h *HTTPHandler) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, err := httpx.PathParam(r, name)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Malformed path parameter")
		return "", false
	}
	return v, true
}

// fail maps service errors onto the error envelope. Details stay in the log.
func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	log := logging.Ctx(r.Context())

	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", notFoundMessage(err, notFoundMsg))
	case errors.Is(err, ErrInvalidInput):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request parameters")
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

func notFoundMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrSearchTermRequired):
		return "Search term is required"
	case errors.Is(err, ErrNoWorks):
		return "No books found upstream for this request"
	case errors.Is(err, ErrNoMatches):
		return "No matches found in the database"
	case errors.Is(err, ErrNoWorkMetadata):
		return "No work metadata found for ISBN"
	case errors.Is(err, ErrNoCover):
		return "No cover image found for ISBN"
	case fallback != "":
		return fallback
	default:
		return "Book not found"
	}
}
