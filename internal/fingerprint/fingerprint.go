// Package fingerprint derives a stable hash of everything that influences a
// report generation call.
package fingerprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/starford/kenaz-focus/internal/checksum"
	"github.com/starford/kenaz-focus/internal/digest"
)

type generationInput struct {
	ProviderID string          `json:"providerId"`
	ModelName  string          `json:"modelName"`
	Limit      int             `json:"limit"`
	Digests    []digest.Digest `json:"digests"`
}

// Compute returns the lowercase hex SHA-256 of the canonical JSON encoding of
// the digests and generation parameters. It returns "" if encoding fails.
func Compute(digests []digest.Digest, providerID, modelName string, limit int) string {
	if digests == nil {
		digests = []digest.Digest{}
	}
	data, err := Canonical(generationInput{
		ProviderID: providerID,
		ModelName:  modelName,
		Limit:      limit,
		Digests:    digests,
	})
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

// Canonical encodes v as JSON with object keys sorted at every level.
// Array order is preserved.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: marshal: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("fingerprint: decode: %w", err)
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("fingerprint: key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("fingerprint: value: %w", err)
		}
		buf.Write(b)
	}
	return nil
}
