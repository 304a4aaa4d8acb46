package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeFixtures(t *testing.T) (messages, users string) {
	t.Helper()
	dir := t.TempDir()
	messages = filepath.Join(dir, "messages.json")
	users = filepath.Join(dir, "users.json")

	msgJSON := `{
		"participants": [{"name": "John Doe"}, {"name": "Ana"}],
		"messages": [
			{"sender_name": "John Doe", "content": "hey", "timestamp_ms": 1000},
			{"sender_name": "Ana", "content": "hola", "timestamp_ms": 5000}
		]
	}`
	if err := os.WriteFile(messages, []byte(msgJSON), 0o644); err != nil {
		t.Fatalf("write messages: %v", err)
	}
	if err := os.WriteFile(users, []byte(`{"user": "John Doe"}`), 0o644); err != nil {
		t.Fatalf("write users: %v", err)
	}
	return messages, users
}

func TestConvertCommand_WritesJSONL(t *testing.T) {
	messages, users := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	rootCmd.SetArgs([]string{"convert", "-m", messages, "-a", users, "-o", out, "-f", "jsonl"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("convert: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var transcript struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(bytes.Split(data, []byte("\n"))[0], &transcript); err != nil {
		t.Fatalf("decode output line: %v", err)
	}
	if len(transcript.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript.Messages))
	}
	if transcript.Messages[0].Role != "user" || transcript.Messages[0].Content != "hey" {
		t.Errorf("message 0 = %+v", transcript.Messages[0])
	}
	if transcript.Messages[1].Role != "assistant" {
		t.Errorf("message 1 role = %q, want assistant", transcript.Messages[1].Role)
	}
}

func TestConvertCommand_UnknownFormatIsFatal(t *testing.T) {
	messages, users := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "out")

	rootCmd.SetArgs([]string{"convert", "-m", messages, "-a", users, "-o", out, "-f", "xml"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("no output should be written for an unknown format")
	}
}

func TestStatsCommand_PrintsCounters(t *testing.T) {
	messages, users := writeFixtures(t)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"stats", "-m", messages, "-a", users})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("stats: %v", err)
	}

	var stats struct {
		TotalMessages       int      `json:"total_messages"`
		MessagesWithContent int      `json:"messages_with_content"`
		TotalConversations  int      `json:"total_conversations"`
		Participants        []string `json:"participants"`
	}
	if err := json.Unmarshal(buf.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats output: %v", err)
	}
	if stats.TotalMessages != 2 || stats.MessagesWithContent != 2 {
		t.Errorf("message counters = %+v", stats)
	}
	if stats.TotalConversations != 1 {
		t.Errorf("total_conversations = %d, want 1", stats.TotalConversations)
	}
	if len(stats.Participants) != 2 {
		t.Errorf("participants = %v", stats.Participants)
	}
}
