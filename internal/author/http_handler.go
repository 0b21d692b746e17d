package author

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
	"github.com/dmytrozahor/PS-Task-6/internal/httpx"
	"github.com/dmytrozahor/PS-Task-6/internal/paging"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the author routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/authors", h.Create)
	mux.HandleFunc("POST /api/authors/_list", h.List)
	mux.HandleFunc("GET /api/authors/{id}", h.Get)
	mux.HandleFunc("PUT /api/authors/{id}", h.Update)
	mux.HandleFunc("DELETE /api/authors/{id}", h.Delete)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, apperr.Message(err, "Author not found"), nil)
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, r, http.StatusConflict, apperr.Message(err, "Author already exists"), nil)
	case errors.Is(err, ErrInvalidName), errors.Is(err, paging.ErrInvalid):
		httpx.JSONError(w, r, http.StatusBadRequest, apperr.Message(err, "Invalid request"), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func decodeSaveRequest(w http.ResponseWriter, r *http.Request) (SaveRequest, bool) {
	var req SaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.DecodeError(w, r, err)
		return req, false
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.FirstMessage(details, "Invalid author"), details)
		return req, false
	}
	return req, true
}

// Create handles POST /api/authors
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSaveRequest(w, r)
	if !ok {
		return
	}
	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, http.StatusCreated, strconv.FormatInt(id, 10))
}

// Update handles PUT /api/authors/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	req, ok := decodeSaveRequest(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, http.StatusOK, "OK")
}

// Get handles GET /api/authors/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	details, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

// List handles POST /api/authors/_list. An empty body selects the first page.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := paging.New(defaultPage, defaultSize)
	if err := httpx.DecodeJSON(r, &q); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.DecodeError(w, r, err)
		return
	}
	resp, err := h.service.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/authors/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONMessage(w, http.StatusOK, "OK")
}
