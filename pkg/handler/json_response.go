package handler

import (
	"encoding/json"
	"net/http"
)

// ErrorDetail is the error part of a failed response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorBody is the JSON envelope of every failed response.
type ErrorBody struct {
	OK    bool        `json:"ok"`
	Error ErrorDetail `json:"error"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, j.status, j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus sets a custom HTTP status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// JSON renders v as the response body with status 200 unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error returns a Response that hands err to the error handler.
func Error(err error) Response {
	return errorResponse{err: err}
}

// RenderError writes e as the JSON error envelope.
func RenderError(w http.ResponseWriter, e HTTPError) {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	_ = writeJSON(w, e.Code, ErrorBody{
		OK:    false,
		Error: ErrorDetail{Code: e.Key, Message: msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
