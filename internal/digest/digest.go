package digest

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/kenaz-focus/internal/models"
	"github.com/starford/kenaz-focus/internal/sanitize"
)

// minForcedSnippet is the floor applied when the last digest of a batch
// has to be shrunk to fit the total budget.
const minForcedSnippet = 40

var (
	orderedItemRe = regexp.MustCompile(`^\d+[.)]\s+`)
	// openTaskRe matches the checkbox left after a list marker is removed.
	openTaskRe = regexp.MustCompile(`^\[ \](\s+|$)`)
)

// Digest is the structured extract of one note sent to the generator.
type Digest struct {
	NoteID        string   `json:"noteId"`
	NoteTitle     string   `json:"noteTitle"`
	NotebookTitle string   `json:"notebookTitle"`
	CreatedAt     string   `json:"createdAt"`
	Headings      []string `json:"headings"`
	Bullets       []string `json:"bullets"`
	Snippet       string   `json:"snippet"`
}

// Chars returns the number of characters the digest contributes to a batch total.
func (d Digest) Chars() int {
	return utf8.RuneCountInString(d.NoteTitle) +
		utf8.RuneCountInString(d.NotebookTitle) +
		utf8.RuneCountInString(strings.Join(d.Headings, "\n")) +
		utf8.RuneCountInString(strings.Join(d.Bullets, "\n")) +
		utf8.RuneCountInString(d.Snippet)
}

// BuildDigest extracts headings, bullets, and a leading snippet from a note.
// The result is deterministic for identical inputs.
func BuildDigest(note models.Note, notebookTitle string, b Budget) Digest {
	clean := sanitize.ForDigest(note.Content)

	headings := make([]string, 0)
	bullets := make([]string, 0)
	var paragraphs []string

	for _, raw := range strings.Split(clean, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#"):
			if h := strings.TrimSpace(strings.TrimLeft(line, "#")); h != "" {
				headings = append(headings, sanitize.Truncate(h, b.MaxHeadingChars))
			}
		case isBullet(line):
			if item := stripBullet(line); item != "" {
				bullets = append(bullets, sanitize.Truncate(item, b.MaxBulletChars))
			}
		default:
			paragraphs = append(paragraphs, sanitize.Truncate(line, b.MaxParagraphChars))
		}
	}

	headings = firstN(headings, b.MaxHeadingCount)
	bullets = firstN(bullets, b.MaxBulletCount)
	paragraphs = firstN(paragraphs, b.MaxParagraphCount)

	return Digest{
		NoteID:        sanitize.ValidUTF8(note.ID),
		NoteTitle:     sanitize.ValidUTF8(note.Title),
		NotebookTitle: sanitize.ValidUTF8(notebookTitle),
		CreatedAt:     FormatTime(note.CreatedAt),
		Headings:      headings,
		Bullets:       bullets,
		Snippet:       sanitize.Truncate(strings.Join(nonEmpty(paragraphs), " "), b.MaxSnippetChars),
	}
}

// BuildRecentDigests digests the newest notes and trims the batch to the
// total character budget. Older notes are dropped first; if a single digest
// still exceeds the budget its snippet is shrunk.
func BuildRecentDigests(notes []models.NoteWithNotebook, b Budget) []Digest {
	sorted := slices.Clone(notes)
	slices.SortStableFunc(sorted, func(a, c models.NoteWithNotebook) int {
		return c.Note.CreatedAt.Compare(a.Note.CreatedAt)
	})
	if b.MaxNotes < len(sorted) {
		sorted = sorted[:max(b.MaxNotes, 0)]
	}

	digests := make([]Digest, 0, len(sorted))
	for _, n := range sorted {
		digests = append(digests, BuildDigest(n.Note, n.NotebookTitle, b))
	}

	for TotalChars(digests) > b.MaxTotalChars && len(digests) > 1 {
		digests = digests[:len(digests)-1]
	}
	if len(digests) == 1 && TotalChars(digests) > b.MaxTotalChars {
		digests[0].Snippet = sanitize.Truncate(digests[0].Snippet, max(minForcedSnippet, b.MaxSnippetChars/2))
	}
	return digests
}

// TotalChars sums Chars over a batch.
func TotalChars(digests []Digest) int {
	total := 0
	for _, d := range digests {
		total += d.Chars()
	}
	return total
}

// FormatTime renders t as an RFC 3339 UTC timestamp with second precision.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func isBullet(line string) bool {
	switch line {
	case "-", "*", "+":
		return true
	}
	return strings.HasPrefix(line, "- ") ||
		strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "+ ") ||
		orderedItemRe.MatchString(line)
}

// stripBullet removes the list marker and an open checkbox, if any.
func stripBullet(line string) string {
	var item string
	if loc := orderedItemRe.FindStringIndex(line); loc != nil {
		item = line[loc[1]:]
	} else {
		item = line[1:]
	}
	item = strings.TrimSpace(item)
	if loc := openTaskRe.FindStringIndex(item); loc != nil {
		item = item[loc[1]:]
	}
	return strings.TrimSpace(item)
}

func firstN(items []string, n int) []string {
	if n < len(items) {
		return items[:max(n, 0)]
	}
	return items
}

func nonEmpty(items []string) []string {
	out := items[:0:0]
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
