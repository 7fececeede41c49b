// Package storage gives read access to the Markdown files of a vault.
package storage

import "github.com/starford/kenaz-focus/internal/models"

// Provider is the read side of a vault.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	// Hidden directories are skipped.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
