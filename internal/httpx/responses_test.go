package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(ContextWithRequestID(r.Context(), "req-9"))

	JSONError(w, r, http.StatusNotFound, "Requested author 5 not found.", []ErrorDetail{{Field: "id", Message: "unknown"}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 404, body.Status)
	assert.Equal(t, "Not Found", body.Error)
	assert.Equal(t, "Requested author 5 not found.", body.Message)
	assert.Equal(t, "req-9", body.RequestID)
	assert.Len(t, body.Details, 1)
}

func TestJSONMessage(t *testing.T) {
	w := httptest.NewRecorder()

	JSONMessage(w, http.StatusCreated, "12")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"12"}`, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Page int `json:"page"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"page":2}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, 2, dst.Page)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"page":`))
	assert.ErrorIs(t, DecodeJSON(r, &dst), ErrMalformedBody)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(r, &dst), ErrEmptyBody)
}

func TestDecodeError(t *testing.T) {
	w := httptest.NewRecorder()
	DecodeError(w, httptest.NewRequest(http.MethodPost, "/", nil), errors.Join(ErrMalformedBody, errors.New("eof")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), MalformedBodyMessage)
}
