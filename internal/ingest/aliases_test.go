package ingest

import (
	"path/filepath"
	"testing"
)

func TestLoadAliases_ReverseLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "users.json", `{"user": "John Doe", "friend": "Ana MarÃ­a"}`)

	aliases := LoadAliases(path, discardLogger())

	if aliases.Len() != 2 {
		t.Fatalf("expected 2 aliases, got %d", aliases.Len())
	}
	if got := aliases.Resolve("john doe"); got != "user" {
		t.Errorf("Resolve(john doe) = %q, want user", got)
	}
	if got := aliases.Resolve("JOHN DOE"); got != "user" {
		t.Errorf("Resolve(JOHN DOE) = %q, want user", got)
	}
	// Identity values go through the encoding repair too.
	if got := aliases.Resolve("ana maría"); got != "friend" {
		t.Errorf("Resolve(ana maría) = %q, want friend", got)
	}
	if got := aliases.Resolve("stranger"); got != "stranger" {
		t.Errorf("Resolve(stranger) = %q, want pass-through", got)
	}
}

func TestLoadAliases_MissingFile(t *testing.T) {
	aliases := LoadAliases(filepath.Join(t.TempDir(), "users.json"), discardLogger())

	if aliases.Len() != 0 {
		t.Errorf("expected empty table, got %d entries", aliases.Len())
	}
	if got := aliases.Resolve("anyone"); got != "anyone" {
		t.Errorf("empty table must pass senders through, got %q", got)
	}
}

func TestLoadAliases_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "users.json", `{"user": `)

	aliases := LoadAliases(path, discardLogger())
	if aliases.Len() != 0 {
		t.Errorf("expected empty table for malformed JSON, got %d entries", aliases.Len())
	}
}

func TestLoadAliases_NonStringValuesIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "users.json", `{"user": "John", "junk": 42}`)

	aliases := LoadAliases(path, discardLogger())
	if aliases.Len() != 1 {
		t.Errorf("expected 1 alias, got %d", aliases.Len())
	}
}

func TestNewAliasTable_SharedIdentityIsDeterministic(t *testing.T) {
	// Two roles pointing at the same identity resolve to the first role in
	// sorted order, every time.
	aliases := NewAliasTable(map[string]string{"zeta": "Sam", "alpha": "Sam"})
	if got := aliases.Resolve("sam"); got != "alpha" {
		t.Errorf("Resolve(sam) = %q, want alpha", got)
	}
}
