// Package digest compresses notes into size-bounded digests for report generation.
package digest

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Budget caps the size of each digest and of a digest batch.
// The service configuration owns the default values.
type Budget struct {
	MaxNotes          int `yaml:"max_notes" json:"max_notes"`
	MaxTotalChars     int `yaml:"max_total_chars" json:"max_total_chars"`
	MaxSnippetChars   int `yaml:"max_snippet_chars" json:"max_snippet_chars"`
	MaxHeadingCount   int `yaml:"max_heading_count" json:"max_heading_count"`
	MaxBulletCount    int `yaml:"max_bullet_count" json:"max_bullet_count"`
	MaxHeadingChars   int `yaml:"max_heading_chars" json:"max_heading_chars"`
	MaxBulletChars    int `yaml:"max_bullet_chars" json:"max_bullet_chars"`
	MaxParagraphCount int `yaml:"max_paragraph_count" json:"max_paragraph_count"`
	MaxParagraphChars int `yaml:"max_paragraph_chars" json:"max_paragraph_chars"`
}

// Validate rejects negative caps.
func (b *Budget) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.MaxNotes, validation.Min(0)),
		validation.Field(&b.MaxTotalChars, validation.Min(0)),
		validation.Field(&b.MaxSnippetChars, validation.Min(0)),
		validation.Field(&b.MaxHeadingCount, validation.Min(0)),
		validation.Field(&b.MaxBulletCount, validation.Min(0)),
		validation.Field(&b.MaxHeadingChars, validation.Min(0)),
		validation.Field(&b.MaxBulletChars, validation.Min(0)),
		validation.Field(&b.MaxParagraphCount, validation.Min(0)),
		validation.Field(&b.MaxParagraphChars, validation.Min(0)),
	)
}
