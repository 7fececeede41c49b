package api

import (
	"github.com/starford/kenaz-focus/internal/focus"
	"github.com/starford/kenaz-focus/internal/models"
)

// NoteListResponse wraps note row previews.
type NoteListResponse struct {
	Notes []models.NotePreview `json:"notes" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// FocusResponse is the published controller state plus the stored fingerprint.
type FocusResponse struct {
	focus.Snapshot
	Fingerprint string `json:"fingerprint,omitempty" example:"9f86d081884c7d65..."`
}
