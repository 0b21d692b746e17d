package book

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmytrozahor/PS-Task-6/internal/apperr"
	"github.com/dmytrozahor/PS-Task-6/internal/author"
	"github.com/dmytrozahor/PS-Task-6/internal/httpx"
	"github.com/dmytrozahor/PS-Task-6/internal/paging"
)

// uploadField is the multipart part holding the uploaded JSON array.
const uploadField = "file"

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/books", h.Create)
	mux.HandleFunc("POST /api/books/_list", h.List)
	mux.HandleFunc("POST /api/books/_report", h.Report)
	mux.HandleFunc("POST /api/books/upload", h.Upload)
	mux.HandleFunc("GET /api/books/{id}", h.Get)
	mux.HandleFunc("PUT /api/books/{id}", h.Update)
	mux.HandleFunc("DELETE /api/books/{id}", h.Delete)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, apperr.Message(err, "Book not found"), nil)
	case errors.Is(err, author.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, apperr.Message(err, "Author not found"), nil)
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrUnknownAttribute), errors.Is(err, paging.ErrInvalid):
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
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.FirstMessage(details, "Invalid book"), details)
		return req, false
	}
	return req, true
}

// Create handles POST /api/books
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

// Update handles PUT /api/books/{id}
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

// Get handles GET /api/books/{id}
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

// List handles POST /api/books/_list
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := NewQuery()
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

// Delete handles DELETE /api/books/{id}
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

// Upload handles POST /api/books/upload
func (h *HTTPHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile(uploadField)
	if err != nil {
		httpx.DecodeError(w, r, err)
		return
	}
	defer file.Close()

	resp, err := h.service.Upload(r.Context(), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

// Report handles POST /api/books/_report. Without a body every book is listed.
func (h *HTTPHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req *ReportRequest
	var body ReportRequest
	switch err := httpx.DecodeJSON(r, &body); {
	case err == nil:
		req = &body
	case !errors.Is(err, httpx.ErrEmptyBody):
		httpx.DecodeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Report(r.Context(), req, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ReportFilename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
