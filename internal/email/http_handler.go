package email

import (
	"errors"
	"net/http"

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

// Register mounts the email query routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/emails", h.List)
	mux.HandleFunc("GET /api/emails/status/{status}", h.ListByStatus)
	mux.HandleFunc("GET /api/emails/{id}", h.Get)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, apperr.Message(err, "Email not found"), nil)
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, paging.ErrInvalid):
		httpx.JSONError(w, r, http.StatusBadRequest, apperr.Message(err, err.Error()), nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func pageRequest(r *http.Request) (paging.Request, error) {
	page, err := httpx.QueryInt(r, "page", defaultPage)
	if err != nil {
		return paging.Request{}, err
	}
	size, err := httpx.QueryInt(r, "size", defaultSize)
	if err != nil {
		return paging.Request{}, err
	}
	return paging.New(page, size), nil
}

// List handles GET /api/emails
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	resp, err := h.service.FindAll(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// ListByStatus handles GET /api/emails/status/{status}
func (h *HTTPHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := ParseStatus(r.PathValue("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	resp, err := h.service.FindByStatus(r.Context(), status, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/emails/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}
