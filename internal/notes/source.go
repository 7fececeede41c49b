// Package notes reads the vault into note snapshots and row previews.
package notes

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/starford/kenaz-focus/internal/checksum"
	"github.com/starford/kenaz-focus/internal/models"
	"github.com/starford/kenaz-focus/internal/parser"
	"github.com/starford/kenaz-focus/internal/sanitize"
	"github.com/starford/kenaz-focus/internal/storage"
)

// DefaultNotebook holds notes that sit at the vault root.
const DefaultNotebook = "Inbox"

type cachedNote struct {
	checksum string
	note     models.NoteWithNotebook
}

// Source snapshots the vault. Parsed notes are memoized by path and content
// checksum so repeated snapshots only re-parse changed files.
type Source struct {
	store  storage.Provider
	logger *slog.Logger

	mu     sync.Mutex
	parsed map[string]cachedNote
}

// NewSource creates a Source over store.
func NewSource(store storage.Provider, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{store: store, logger: logger, parsed: make(map[string]cachedNote)}
}

// Snapshot returns every note in the vault with its notebook title.
// Files that vanish or fail to read mid-walk are skipped.
func (s *Source) Snapshot(ctx context.Context) ([]models.NoteWithNotebook, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}

	out := make([]models.NoteWithNotebook, 0, len(metas))
	seen := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.load(m)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("notes: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			}
			continue
		}
		seen[m.Path] = struct{}{}
		out = append(out, n)
	}

	s.mu.Lock()
	for p := range s.parsed {
		if _, ok := seen[p]; !ok {
			delete(s.parsed, p)
		}
	}
	s.mu.Unlock()
	return out, nil
}

// ListPreviews returns up to limit notes, newest first, each with a
// single-line preview of at most previewChars runes. limit <= 0 means all.
func (s *Source) ListPreviews(ctx context.Context, limit, previewChars int) ([]models.NotePreview, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b models.NoteWithNotebook) int {
		return b.Note.CreatedAt.Compare(a.Note.CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]models.NotePreview, len(all))
	for i, n := range all {
		out[i] = models.NotePreview{
			ID:            n.Note.ID,
			Title:         n.Note.Title,
			NotebookTitle: n.NotebookTitle,
			Preview:       sanitize.ForPreview(n.Note.Content, previewChars),
			CreatedAt:     n.Note.CreatedAt,
		}
	}
	return out, nil
}

func (s *Source) load(m models.NoteMetadata) (models.NoteWithNotebook, error) {
	s.mu.Lock()
	c, ok := s.parsed[m.Path]
	s.mu.Unlock()
	if ok && c.checksum == m.Checksum && c.note.Note.UpdatedAt.Equal(m.UpdatedAt) {
		return c.note, nil
	}

	data, err := s.store.Read(m.Path)
	if err != nil {
		return models.NoteWithNotebook{}, err
	}
	res := parser.Parse(data)

	title := res.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(m.Path), ".md")
	}
	created := res.Created
	if created.IsZero() {
		created = m.UpdatedAt
	}
	n := models.NoteWithNotebook{
		Note: models.Note{
			ID:        m.Path,
			Title:     title,
			Content:   res.Body,
			CreatedAt: created,
			UpdatedAt: m.UpdatedAt,
		},
		NotebookTitle: NotebookFor(m.Path),
	}

	s.mu.Lock()
	s.parsed[m.Path] = cachedNote{checksum: checksum.Sum(data), note: n}
	s.mu.Unlock()
	return n, nil
}

// NotebookFor returns the notebook of a vault-relative note path: its
// top-level folder, or DefaultNotebook at the root.
func NotebookFor(notePath string) string {
	first, _, found := strings.Cut(notePath, "/")
	if !found || first == "" {
		return DefaultNotebook
	}
	return first
}
