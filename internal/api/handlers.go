package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/namohub/internal/apperr"
	"github.com/starford/namohub/internal/checksum"
	"github.com/starford/namohub/internal/decode"
	"github.com/starford/namohub/internal/itemservice"
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/views"
)

// ExportFilename is the download name of the exported collection.
const ExportFilename = "namo-hub-items.json"

// Handler holds API route handlers.
type Handler struct {
	svc *itemservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *itemservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filterFromQuery reads the nature, domain, status and q parameters.
func filterFromQuery(r *http.Request) views.Filter {
	q := r.URL.Query()
	return views.Filter{
		Nature: q.Get("nature"),
		Domain: q.Get("domain"),
		Status: q.Get("status"),
		Text:   q.Get("q"),
	}
}

// ListItems handles GET /api/items.
//
//	@Summary		List items, optionally filtered
//	@Tags			items
//	@Produce		json
//	@Param			nature	query		string	false	"Nature or All"
//	@Param			domain	query		string	false	"Domain or All"
//	@Param			status	query		string	false	"Status or All"
//	@Param			q		query		string	false	"Case-insensitive text over title and content"
//	@Success		200		{object}	ItemListResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), filterFromQuery(r))
	if err != nil {
		internalError(w, "list items failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get a single item by id
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			internalError(w, "get item failed", err, slog.String("id", id))
		}
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CreateItem handles POST /api/items.
//
//	@Summary		Create a new item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateItemRequest	true	"Item to create"
//	@Success		201		{object}	Item
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !readJSON(w, r, &req) {
		return
	}
	it, err := h.svc.Create(r.Context(), itemservice.CreateInput{
		Title:   req.Title,
		Author:  req.Author,
		Content: req.Content,
		Nature:  models.Nature(req.Nature),
		Domain:  models.Domain(req.Domain),
		Status:  models.Status(req.Status),
		Tags:    req.Tags,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			internalError(w, "create item failed", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// SetStatus handles PUT /api/items/{id}/status.
//
//	@Summary		Move an item to another status lane
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item id"
//	@Param			body	body		SetStatusRequest	true	"New status"
//	@Success		200		{object}	Item
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/status [put]
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SetStatusRequest
	if !readJSON(w, r, &req) {
		return
	}
	it, err := h.svc.SetStatus(r.Context(), id, models.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalid):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			internalError(w, "set status failed", err, slog.String("id", id))
		}
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ClearItems handles DELETE /api/items.
//
//	@Summary		Remove every item
//	@Tags			items
//	@Success		204	"Collection cleared"
//	@Security		BearerAuth
//	@Router			/items [delete]
func (h *Handler) ClearItems(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		internalError(w, "clear items failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Classify handles POST /api/classify.
//
//	@Summary		Classify free text
//	@Tags			classify
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClassifyRequest	true	"Text to classify"
//	@Success		200		{object}	Classification
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/classify [post]
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Classify(req.Text))
}

// Import handles POST /api/import.
//
//	@Summary		Replace the collection with an imported document
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string	false	"Checksum of the collection being replaced"
//	@Param			format		query		string	false	"json or yaml; detected when omitted"
//	@Success		200			{object}	ImportOutcome
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	ImportOutcome
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	format := decode.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == decode.FormatAuto {
		format = decode.FormatFromName(r.Header.Get("Content-Type"))
	}

	out, err := h.svc.Import(r.Context(), body, format, r.Header.Get("If-Match"))
	if err != nil {
		switch {
		case errors.Is(err, decode.ErrNotArray):
			writeJSON(w, http.StatusBadRequest, errorBody(decode.ErrNotArray.Error()))
		case errors.Is(err, apperr.ErrInvalid):
			writeJSON(w, http.StatusBadRequest, errorBody(decode.ErrMalformed.Error()))
		case errors.Is(err, apperr.ErrImportRejected):
			writeJSON(w, http.StatusUnprocessableEntity, out)
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			internalError(w, "import failed", err)
		}
		return
	}
	slog.Info("import complete",
		slog.Int("items", len(out.Normalized)),
		slog.Int("warnings", len(out.Warnings)))
	writeJSON(w, http.StatusOK, out)
}

// Export handles GET /api/export.
//
//	@Summary		Download the whole collection
//	@Tags			import
//	@Produce		json
//	@Success		200	{array}		Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	items, sum, err := h.svc.Export(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrEmpty) {
			writeJSON(w, http.StatusNotFound, errorBody("no data to export"))
		} else {
			internalError(w, "export failed", err)
		}
		return
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		internalError(w, "export encode failed", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	w.Header().Set("ETag", checksum.ETag(sum))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across items
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		internalError(w, "search failed", err, slog.String("query", q))
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{ID: hit.ID, Title: hit.Title, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// View handles GET /api/views/{mode}.
//
//	@Summary		Matrix, kanban or mindmap projection of the filtered items
//	@Tags			views
//	@Produce		json
//	@Param			mode	path		string	true	"matrix, kanban or mindmap"
//	@Param			nature	query		string	false	"Nature or All"
//	@Param			domain	query		string	false	"Domain or All"
//	@Param			status	query		string	false	"Status or All"
//	@Param			q		query		string	false	"Text filter"
//	@Success		200		{object}	any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{mode} [get]
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	mode, err := views.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown view mode"))
		return
	}
	v, err := h.svc.View(r.Context(), mode, filterFromQuery(r))
	if err != nil {
		internalError(w, "view failed", err, slog.String("mode", string(mode)))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
