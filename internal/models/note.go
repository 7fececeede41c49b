// Package models defines the domain types shared across the service.
package models

import "time"

// Note is a read-only snapshot of a Markdown note taken from the vault.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteWithNotebook pairs a note with the title of the notebook holding it.
type NoteWithNotebook struct {
	Note          Note   `json:"note"`
	NotebookTitle string `json:"notebook_title"`
}

// NoteMetadata is a lightweight representation returned by vault listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotePreview is one row of a note listing.
type NotePreview struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	NotebookTitle string    `json:"notebook_title"`
	Preview       string    `json:"preview"`
	CreatedAt     time.Time `json:"created_at"`
}
