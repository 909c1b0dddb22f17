// Package entry validates raw feed payloads and normalizes them into
// ordered, de-duplicated entries.
package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
)

// Entry is one immutable feed item.
type Entry struct {
	ID        string  `json:"id"`
	Author    string  `json:"author"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// ValidationError reports a payload that does not match the entry schema.
type ValidationError struct {
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Cause == nil {
		return "invalid feed entries: " + e.Reason
	}
	return fmt.Sprintf("invalid feed entries: %s: %v", e.Reason, e.Cause)
}

func (e *ValidationError) Unwrap() []error {
	kind := apperrors.New(apperrors.CodeEntryInvalid, e.Reason)
	if e.Cause == nil {
		return []error{kind}
	}
	return []error{kind, e.Cause}
}

// Schema returns the JSON schema a snapshot payload must satisfy: an array
// of objects with a non-empty string id, string author and content, and a
// numeric timestamp.
func Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"id", "author", "content", "timestamp"},
			Properties: map[string]*jsonschema.Schema{
				"id":        {Type: "string", MinLength: jsonschema.Ptr(1)},
				"author":    {Type: "string"},
				"content":   {Type: "string"},
				"timestamp": {Type: "number"},
			},
		},
	}
}

var (
	resolveOnce sync.Once
	resolved    *jsonschema.Resolved
	resolveErr  error
)

func resolvedSchema() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = Schema().Resolve(nil)
	})
	return resolved, resolveErr
}

// Decode validates a JSON array payload and returns its entries in payload
// order. When an id repeats, the first occurrence wins.
func Decode(data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ValidationError{Reason: "payload is empty"}
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, &ValidationError{Reason: "payload is not JSON", Cause: err}
	}

	schema, err := resolvedSchema()
	if err != nil {
		return nil, fmt.Errorf("resolve entry schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, &ValidationError{Reason: "schema mismatch", Cause: err}
	}

	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: "decode entries", Cause: err}
	}
	return Normalize(raw)
}

// Normalize drops repeated ids (first wins) and rejects blank ids.
func Normalize(raw []Entry) ([]Entry, error) {
	entries := make([]Entry, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, item := range raw {
		if strings.TrimSpace(item.ID) == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("entry %d has a blank id", i)}
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		entries = append(entries, item)
	}
	return entries, nil
}
