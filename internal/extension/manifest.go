package extension

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unknown is the placeholder for absent manifest fields.
const Unknown = "unknown"

// Manifest is the metadata cached alongside a registry record.
// Any field may be absent in the stored blob.
type Manifest struct {
	Version     string
	Author      string
	AuthorURL   string
	AuthorEmail string
}

// DefaultManifest returns a manifest with every field at its default.
func DefaultManifest() Manifest {
	return Manifest{Version: Unknown, Author: Unknown}
}

// ParseManifest decodes a serialized manifest blob. It always returns a usable
// Manifest; the error only reports that the blob could not be decoded.
func ParseManifest(blob string) (Manifest, error) {
	m := DefaultManifest()

	blob = strings.TrimSpace(blob)
	if blob == "" {
		return m, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if v := scalar(raw["version"]); v != "" {
		m.Version = v
	}
	if v := scalar(raw["author"]); v != "" {
		m.Author = v
	}
	m.AuthorURL = scalar(raw["authorUrl"])
	m.AuthorEmail = scalar(raw["authorEmail"])

	return m, nil
}

// scalar coerces a decoded JSON value to a trimmed string.
// Objects, arrays and null yield "".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
