package httpx

import (
	"net/http"

	"github.com/goccy/go-json"

	"bookcatalog/internal/logging"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

type SuccessResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Meta   interface{} `json:"meta,omitempty"`
}

// ErrorResponse is the single failure envelope. Status is "fail" for client
// errors and "error" for server errors.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("write response")
	}
}

func JSONSuccess(w http.ResponseWriter, r *http.Request, data interface{}, meta interface{}) {
	writeJSON(w, r, http.StatusOK, SuccessResponse{
		Status: StatusSuccess,
		Data:   data,
		Meta:   meta,
	})
}

func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string) {
	status := StatusFail
	if statusCode >= http.StatusInternalServerError {
		status = StatusError
	}
	writeJSON(w, r, statusCode, ErrorResponse{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// NotFound is the JSON fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed is the JSON fallback for known routes hit with a wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}
