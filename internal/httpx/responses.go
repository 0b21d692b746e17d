package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MalformedBodyMessage is returned when a request body cannot be decoded.
const MalformedBodyMessage = "There was an error deserializing the data"

// ErrMalformedBody is returned by DecodeJSON for bodies that are not valid JSON
// for the target type.
var ErrMalformedBody = errors.New("malformed request body")

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("empty request body")

// MessageResponse is the body of mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status    int           `json:"status"`
	Error     string        `json:"error"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func JSONMessage(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageResponse{Message: message})
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, message string, details []ErrorDetail) {
	JSON(w, status, ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Details:   details,
		RequestID: RequestIDFrom(r),
	})
}

// DecodeJSON decodes the request body into dst. Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errors.Join(ErrMalformedBody, err)
	}
	return nil
}

// DecodeError writes the response for a DecodeJSON failure.
func DecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		JSONError(w, r, http.StatusRequestEntityTooLarge, "Request body too large", nil)
		return
	}
	JSONError(w, r, http.StatusBadRequest, MalformedBodyMessage, nil)
}
