package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StringOrSequence accepts either a newline-delimited string or an array of
// strings at the boundary. Items always holds the normalized form.
type StringOrSequence struct {
	Items []string
	set   bool
}

// NewStringOrSequence wraps an already-split list
func NewStringOrSequence(items ...string) StringOrSequence {
	return StringOrSequence{Items: Normalize(items...), set: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (s *StringOrSequence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = StringOrSequence{}
		return nil
	}

	switch data[0] {
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = StringOrSequence{Items: SplitLines(raw), set: true}
	case '[':
		var raw []string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("expected an array of strings: %w", err)
		}
		*s = StringOrSequence{Items: Normalize(raw...), set: true}
	default:
		return fmt.Errorf("expected a string or an array of strings, got %s", data)
	}
	return nil
}

// MarshalJSON always emits the sequence form
func (s StringOrSequence) MarshalJSON() ([]byte, error) {
	if s.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Items)
}

// IsZero reports whether the value was absent or normalized to nothing
func (s StringOrSequence) IsZero() bool {
	return !s.set || len(s.Items) == 0
}

// Slice returns the normalized items, never nil
func (s StringOrSequence) Slice() []string {
	return nonNil(s.Items)
}

// SplitLines splits newline-delimited text, dropping blank lines
func SplitLines(text string) []string {
	return Normalize(strings.Split(text, "\n")...)
}

// Normalize trims each item and drops empty ones, keeping order
func Normalize(items ...string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
