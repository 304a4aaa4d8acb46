package ingest

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// repairTree walks a decoded JSON value and runs every string through
// repairString, rebuilding containers as it goes. Non-string leaves pass
// through untouched.
func repairTree(v any) any {
	switch t := v.(type) {
	case string:
		return repairString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = repairTree(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = repairTree(val)
		}
		return out
	default:
		return v
	}
}

// repairString undoes the export mojibake where UTF-8 text was written out
// as if it were Latin-1. The string is re-encoded as Latin-1 and kept only
// when the recovered bytes are themselves valid UTF-8; anything that fails
// either leg is left unchanged.
func repairString(s string) string {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return s
	}
	if !utf8.Valid(b) {
		return s
	}
	return string(b)
}
