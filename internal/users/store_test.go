package users

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleUsers = `
[users.alice]
password_hash = "$2a$04$abcdefghijklmnopqrstuu"

[users.Bob]
password_hash = ""
`

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write users file: %v", err)
	}
	return path
}

func TestLoadAndLookup(t *testing.T) {
	store, err := Load(writeUsersFile(t, sampleUsers))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("unexpected user count: %d", store.Len())
	}

	rec, ok := store.Lookup("alice")
	if !ok {
		t.Fatal("expected alice to exist")
	}
	if rec.Username != "alice" || rec.PasswordHash == "" {
		t.Fatalf("unexpected record: %#v", rec)
	}

	if _, ok := store.Lookup("Alice"); ok {
		t.Fatal("lookup must be case-sensitive")
	}
	if _, ok := store.Lookup("mallory"); ok {
		t.Fatal("unknown user must not be found")
	}

	bob, ok := store.Lookup("Bob")
	if !ok || bob.PasswordHash != "" {
		t.Fatalf("record with empty hash should be kept: %#v", bob)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, ErrNoUsersFile) {
		t.Fatalf("expected ErrNoUsersFile, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	if _, err := Load(writeUsersFile(t, "[users.alice\npassword_hash = 1")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Load(writeUsersFile(t, "[users.alice]\nrole = \"admin\"\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestReload(t *testing.T) {
	path := writeUsersFile(t, sampleUsers)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if err := os.WriteFile(path, []byte("[users.carol]\npassword_hash = \"x\"\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite users file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if _, ok := store.Lookup("alice"); ok {
		t.Fatal("alice should be gone after reload")
	}
	if _, ok := store.Lookup("carol"); !ok {
		t.Fatal("carol should exist after reload")
	}

	if err := os.WriteFile(path, []byte("not toml ["), 0o600); err != nil {
		t.Fatalf("failed to rewrite users file: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error for malformed file")
	}
	if _, ok := store.Lookup("carol"); !ok {
		t.Fatal("failed reload must keep the previous snapshot")
	}
}

func TestNewStoreCannotReload(t *testing.T) {
	store := NewStore(Record{Username: "alice", PasswordHash: "h"})
	if _, ok := store.Lookup("alice"); !ok {
		t.Fatal("expected alice to exist")
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected error when reloading an in-memory store")
	}
}
