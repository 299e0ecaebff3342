package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IDList is a set of item ids that decodes from either a JSON array or a
// comma-joined string, the two encodings the wizard produces.
type IDList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	switch trimmed[0] {
	case '"':
		var joined string
		if err := json.Unmarshal(trimmed, &joined); err != nil {
			return fmt.Errorf("id list: %w", err)
		}
		*l = ParseIDs(joined)
		return nil
	case '[':
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return fmt.Errorf("id list: %w", err)
		}
		*l = normalize(ids)
		return nil
	default:
		return fmt.Errorf("id list: expected string or array, got %s", string(trimmed))
	}
}

// ParseIDs splits a comma-joined id string, trimming blanks and dropping duplicates.
func ParseIDs(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	return normalize(strings.Split(joined, ","))
}

func normalize(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
