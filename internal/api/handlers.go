package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/kenaz-focus/internal/apperr"
	"github.com/starford/kenaz-focus/internal/focus"
	"github.com/starford/kenaz-focus/internal/models"
)

const defaultPreviewChars = 160

// NoteLister lists note row previews, newest first.
type NoteLister interface {
	ListPreviews(ctx context.Context, limit, previewChars int) ([]models.NotePreview, error)
}

// Handler holds API route handlers.
type Handler struct {
	notes        NoteLister
	ctrl         *focus.Controller
	refresher    *focus.Refresher
	previewChars int
}

// NewHandler creates a new Handler.
func NewHandler(notes NoteLister, ctrl *focus.Controller, refresher *focus.Refresher, previewChars int) *Handler {
	if previewChars <= 0 {
		previewChars = defaultPreviewChars
	}
	return &Handler{notes: notes, ctrl: ctrl, refresher: refresher, previewChars: previewChars}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List note previews, newest first
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Max rows"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.notes.ListPreviews(r.Context(), limit, h.previewChars)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetFocus handles GET /api/focus.
//
//	@Summary		Get the Recent Focus state
//	@Tags			focus
//	@Produce		json
//	@Success		200	{object}	FocusResponse
//	@Security		BearerAuth
//	@Router			/focus [get]
func (h *Handler) GetFocus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.focusResponse(r.Context()))
}

// RefreshFocus handles POST /api/focus/refresh. It generates only when the
// cached report is missing, stale, or built from different notes.
//
//	@Summary		Generate the report if needed
//	@Tags			focus
//	@Produce		json
//	@Success		200	{object}	FocusResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/focus/refresh [post]
func (h *Handler) RefreshFocus(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	digests, err := h.refresher.Digests(ctx)
	if err != nil {
		slog.Error("build digests failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.ctrl.GenerateRecentFocusIfNeeded(ctx, digests); err != nil {
		writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.focusResponse(ctx))
}

// RegenerateFocus handles POST /api/focus/regenerate.
//
//	@Summary		Force a new report
//	@Tags			focus
//	@Produce		json
//	@Success		200	{object}	FocusResponse
//	@Failure		409	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/focus/regenerate [post]
func (h *Handler) RegenerateFocus(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if err := h.refresher.Regenerate(ctx); err != nil {
		writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.focusResponse(ctx))
}

// ResetFocus handles DELETE /api/focus.
//
//	@Summary		Clear the report and its cache
//	@Tags			focus
//	@Success		204	"Reset"
//	@Security		BearerAuth
//	@Router			/focus [delete]
func (h *Handler) ResetFocus(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Reset(r.Context()); err != nil {
		slog.Error("reset focus failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FocusHTML handles GET /api/focus/html.
//
//	@Summary		Render the report as HTML
//	@Tags			focus
//	@Produce		html
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/focus/html [get]
func (h *Handler) FocusHTML(w http.ResponseWriter, _ *http.Request) {
	md := h.ctrl.Snapshot().Markdown()
	if md == "" {
		writeError(w, http.StatusNotFound, "no report yet")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := focusPage.Execute(w, renderMarkdown(md)); err != nil {
		slog.Error("render focus failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) focusResponse(ctx context.Context) FocusResponse {
	resp := FocusResponse{Snapshot: h.ctrl.Snapshot()}
	fp, err := h.ctrl.StoredFingerprint(ctx)
	if err != nil {
		slog.Warn("read fingerprint failed", slog.String("error", err.Error()))
	}
	resp.Fingerprint = fp
	return resp
}

func writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrGenerationInFlight):
		writeError(w, http.StatusConflict, "generation already in progress")
	case errors.Is(err, apperr.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "generator not configured")
	default:
		slog.Warn("generation failed", slog.String("error", err.Error()))
		writeErrorDetail(w, http.StatusBadGateway, "generation failed", err.Error())
	}
}
