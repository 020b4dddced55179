// Package response writes the JSON envelope shared by the HTTP APIs:
//
//	{"code": "...", "data": ..., "error": {"code": "...", "message": "..."}}
package response

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope is the standard JSON response body.
type Envelope struct {
	Code  string       `json:"code,omitempty"`
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPError carries a status and machine-readable code to the client.
type HTTPError struct {
	Status int
	Code   string
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewError builds an HTTPError.
func NewError(status int, code string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Err: err}
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, code string, data any) {
	write(w, status, Envelope{Code: code, Data: data})
}

// OK writes data with status 200 and code "ok".
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, "ok", data)
}

// Error writes err. An *HTTPError in the chain sets the status and code;
// anything else is a 500 whose message is not exposed.
func Error(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		write(w, httpErr.Status, Envelope{
			Code:  httpErr.Code,
			Error: &ErrorDetail{Code: httpErr.Code, Message: httpErr.Error()},
		})
		return
	}
	write(w, http.StatusInternalServerError, Envelope{
		Code:  "internal_error",
		Error: &ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)},
	})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Decode reads a JSON request body into v, rejecting unknown fields.
// Failures are returned as a 400 HTTPError.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return NewError(http.StatusBadRequest, "invalid_body", err)
	}
	return nil
}
