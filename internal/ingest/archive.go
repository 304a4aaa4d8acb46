package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports a message source path that does not exist, or a
// directory holding no recognized export files.
var ErrNotFound = errors.New("message source not found")

// RawMessage is one inbound record as read from an export file. Content is
// a pointer because absence of the field, not emptiness, marks a record as
// non-textual.
type RawMessage struct {
	SenderName  string  `json:"sender_name"`
	Content     *string `json:"content,omitempty"`
	TimestampMS int64   `json:"timestamp_ms"`
	Share       *Share  `json:"share,omitempty"`
}

// Share carries the attachment metadata some records include.
type Share struct {
	ShareText string `json:"share_text"`
}

// Archive is the flat, unordered message collection produced from one
// export, plus whatever participant metadata the source carried.
type Archive struct {
	Messages     []RawMessage
	Participants []string
}

// LoadArchive reads a message export from a single file or a directory of
// files. Directory entries are decoded in lexicographic file order; a file
// that fails to decode is skipped with a warning and does not abort the
// run.
func LoadArchive(path string, logger *slog.Logger) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if info.IsDir() {
		return loadDir(path, logger)
	}
	return loadFile(path)
}

func loadDir(dir string, logger *slog.Logger) (*Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	// ReadDir returns entries sorted by filename, which fixes the
	// concatenation order across files.
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no .json files in %s", ErrNotFound, dir)
	}

	archive := &Archive{}
	seen := make(map[string]bool)
	for _, name := range names {
		path := filepath.Join(dir, name)
		tree, err := decodeTree(path)
		if err != nil {
			logger.Warn("skipping export file", "path", path, "error", err)
			continue
		}
		msgs, err := bindMessages(extractRecords(tree))
		if err != nil {
			logger.Warn("skipping export file", "path", path, "error", err)
			continue
		}
		archive.Messages = append(archive.Messages, msgs...)
		for _, p := range extractParticipants(tree) {
			if !seen[p] {
				seen[p] = true
				archive.Participants = append(archive.Participants, p)
			}
		}
	}
	return archive, nil
}

func loadFile(path string) (*Archive, error) {
	tree, err := decodeTree(path)
	if err != nil {
		return nil, err
	}

	archive := &Archive{Participants: extractParticipants(tree)}

	// A single file is expected to be a container with a "messages" array;
	// without one the decoded value is the archive record itself and
	// simply has no messages.
	if m, ok := tree.(map[string]any); ok {
		if msgs, ok := m["messages"].([]any); ok {
			bound, err := bindMessages(msgs)
			if err != nil {
				return nil, fmt.Errorf("decode messages: %w", err)
			}
			archive.Messages = bound
		}
	}
	return archive, nil
}

// decodeTree reads one export file into a generic JSON tree and runs the
// encoding repair pass over it before anything else touches the data.
func decodeTree(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return repairTree(tree), nil
}

// extractRecords pulls the message records out of one decoded export file.
// Container objects expose a "messages" field, bare arrays are taken
// element by element, and anything else is treated as a single record.
func extractRecords(tree any) []any {
	switch t := tree.(type) {
	case map[string]any:
		if msgs, ok := t["messages"].([]any); ok {
			return msgs
		}
		return []any{t}
	case []any:
		return t
	default:
		return []any{tree}
	}
}

// bindMessages converts repaired generic records into typed messages.
func bindMessages(records []any) ([]RawMessage, error) {
	if len(records) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("rebind: %w", err)
	}
	var msgs []RawMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("rebind: %w", err)
	}
	return msgs, nil
}

// extractParticipants collects participant names from container metadata.
// Both bare strings and {"name": ...} objects appear in the wild; anything
// else is ignored.
func extractParticipants(tree any) []string {
	m, ok := tree.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := m["participants"].([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, p := range list {
		switch t := p.(type) {
		case string:
			names = append(names, t)
		case map[string]any:
			if name, ok := t["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}
