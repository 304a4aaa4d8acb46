package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arodsan/convoset/internal/segment"
)

// ErrUnsupportedFormat reports a format string outside the closed set.
// Unlike most ingestion problems this one is fatal configuration.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format selects the serialization of a conversation set.
type Format string

const (
	// FormatChatML is the role-tagged transcript format used for fine-tuning,
	// written as one indented JSON array.
	FormatChatML Format = "chatml"
	// FormatText is a human-readable transcript, one block per conversation.
	FormatText Format = "text"
	// FormatJSONL is the role-tagged format, one conversation object per line.
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatChatML, FormatText, FormatJSONL:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// TurnMessage pairs a message with its fine-tuning role label.
type TurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is one conversation in role-tagged form.
type Transcript struct {
	Messages []TurnMessage `json:"messages"`
}

// roleFor maps a resolved sender to a fine-tuning role: the "user" sender
// keeps its role, every other sender becomes the assistant.
func roleFor(sender string) string {
	if strings.EqualFold(sender, "user") {
		return "user"
	}
	return "assistant"
}

// ChatML converts conversations to role-tagged transcripts.
func ChatML(convs []segment.Conversation) []Transcript {
	out := make([]Transcript, 0, len(convs))
	for _, conv := range convs {
		t := Transcript{Messages: make([]TurnMessage, 0, len(conv))}
		for _, msg := range conv {
			t.Messages = append(t.Messages, TurnMessage{
				Role:    roleFor(msg.Sender),
				Content: msg.Content,
			})
		}
		if len(t.Messages) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Text renders one readable block per conversation: an indexed header, one
// "sender: content" line per message, and a trailing blank line.
func Text(convs []segment.Conversation, includeTimestamps bool) []string {
	out := make([]string, 0, len(convs))
	for i, conv := range convs {
		var sb strings.Builder
		fmt.Fprintf(&sb, "=== Conversation %d ===\n", i+1)
		for _, msg := range conv {
			if includeTimestamps && msg.Timestamp != "" {
				fmt.Fprintf(&sb, "[%s] ", msg.Timestamp)
			}
			fmt.Fprintf(&sb, "%s: %s\n", msg.Sender, msg.Content)
		}
		out = append(out, sb.String())
	}
	return out
}

// JSONL renders role-tagged transcripts one JSON object per line.
func JSONL(convs []segment.Conversation) ([]string, error) {
	transcripts := ChatML(convs)
	lines := make([]string, 0, len(transcripts))
	for _, t := range transcripts {
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode transcript: %w", err)
		}
		lines = append(lines, string(data))
	}
	return lines, nil
}

// DecodeJSONL parses line-delimited transcripts back into role-tagged
// records. Blank lines are skipped.
func DecodeJSONL(data []byte) ([]Transcript, error) {
	var out []Transcript
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var t Transcript
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("decode line: %w", err)
		}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return out, nil
}

// WriteFile serializes a conversation set to path in the given format.
func WriteFile(path string, convs []segment.Conversation, format Format, includeTimestamps bool) error {
	var data []byte
	switch format {
	case FormatChatML:
		out, err := json.MarshalIndent(ChatML(convs), "", "  ")
		if err != nil {
			return fmt.Errorf("encode chatml: %w", err)
		}
		data = out
	case FormatText:
		data = []byte(strings.Join(Text(convs, includeTimestamps), "\n"))
	case FormatJSONL:
		lines, err := JSONL(convs)
		if err != nil {
			return err
		}
		data = []byte(strings.Join(lines, "\n"))
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
