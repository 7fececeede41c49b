// Package focus decides when the Recent Focus report must be regenerated and
// owns its published state.
package focus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/kenaz-focus/internal/digest"
)

// Report is the structured Recent Focus report.
type Report struct {
	Headline  string   `json:"headline"`
	Summary   string   `json:"summary"`
	Themes    []Theme  `json:"themes,omitempty"`
	NextSteps []string `json:"next_steps,omitempty"`
}

// Theme groups notes around one recurring topic.
type Theme struct {
	Title   string   `json:"title"`
	Detail  string   `json:"detail,omitempty"`
	NoteIDs []string `json:"note_ids,omitempty"`
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	if r.Headline != "" {
		fmt.Fprintf(&b, "# %s\n\n", r.Headline)
	}
	if r.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Summary)
	}
	if len(r.Themes) > 0 {
		b.WriteString("## Themes\n\n")
		for _, t := range r.Themes {
			fmt.Fprintf(&b, "### %s\n\n", t.Title)
			if t.Detail != "" {
				fmt.Fprintf(&b, "%s\n\n", t.Detail)
			}
			if len(t.NoteIDs) > 0 {
				fmt.Fprintf(&b, "Notes: %s\n\n", strings.Join(t.NoteIDs, ", "))
			}
		}
	}
	if len(r.NextSteps) > 0 {
		b.WriteString("## Next steps\n\n")
		for _, step := range r.NextSteps {
			fmt.Fprintf(&b, "- %s\n", step)
		}
	}
	return strings.TrimSpace(b.String())
}

// Markdown returns the text to display for s: the raw markdown when present,
// otherwise the rendered report, otherwise "".
func (s Snapshot) Markdown() string {
	if s.RawMarkdown != "" {
		return s.RawMarkdown
	}
	if s.Report != nil {
		return s.Report.Markdown()
	}
	return ""
}

// Params are the generation settings that take part in the fingerprint.
type Params struct {
	ProviderID string
	ModelName  string
	Limit      int
}

// Result is what a Generator returns. Either field may be empty.
type Result struct {
	Report      *Report
	RawMarkdown string
}

// Generator produces a report from a digest batch.
type Generator interface {
	Generate(ctx context.Context, digests []digest.Digest, params Params) (Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, digests []digest.Digest, params Params) (Result, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, digests []digest.Digest, params Params) (Result, error) {
	return f(ctx, digests, params)
}

// DecodeEmbeddedReport looks for a JSON report inside free text. Text that
// starts with "{" is parsed whole; otherwise the span from the first "{" to
// the last "}" is used, even if prose sits between two objects. It returns
// nil when nothing parses.
func DecodeEmbeddedReport(raw string) *Report {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil
	}
	if !strings.HasPrefix(candidate, "{") {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return nil
		}
		candidate = candidate[start : end+1]
	}

	var r Report
	if err := json.Unmarshal([]byte(candidate), &r); err != nil {
		return nil
	}
	// Any object decodes into Report; one without report fields is not a report.
	if r.empty() {
		return nil
	}
	return &r
}

func (r *Report) empty() bool {
	return strings.TrimSpace(r.Headline) == "" &&
		strings.TrimSpace(r.Summary) == "" &&
		len(r.Themes) == 0 &&
		len(r.NextSteps) == 0
}
