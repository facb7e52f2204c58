package main

import (
	"bufio"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smile-education/intake-assistant/internal/models"
	"github.com/smile-education/intake-assistant/internal/store"
)

func stringFlag(v string) *string { return &v }

func TestBuildStore_SelectsBackend(t *testing.T) {
	mem, err := buildStore(Flags{dbDriver: stringFlag("memory"), dbDSN: stringFlag(""), stateDir: stringFlag("")})
	if err != nil {
		t.Fatalf("memory driver failed: %v", err)
	}
	if _, ok := mem.(*store.InMemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", mem)
	}

	dir := t.TempDir()
	sq, err := buildStore(Flags{dbDriver: stringFlag("sqlite3"), dbDSN: stringFlag(""), stateDir: stringFlag(dir)})
	if err != nil {
		t.Fatalf("sqlite3 driver failed: %v", err)
	}
	defer sq.Close()
	if _, ok := sq.(*store.SQLiteStore); !ok {
		t.Errorf("expected SQLite store, got %T", sq)
	}
	if _, err := filepath.Glob(filepath.Join(dir, DefaultDBFileName)); err != nil {
		t.Errorf("expected database under the state dir: %v", err)
	}

	if _, err := buildStore(Flags{dbDriver: stringFlag("oracle"), dbDSN: stringFlag(""), stateDir: stringFlag("")}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestSelectUserType(t *testing.T) {
	tests := []struct {
		input string
		want  models.UserType
	}{
		{"1\n", models.UserTypeCandidate},
		{"2\n", models.UserTypeSchool},
		{"3\n", models.UserTypeGeneral},
		{"bananas\n2\n", models.UserTypeSchool},
	}
	for _, tt := range tests {
		reader := bufio.NewScanner(strings.NewReader(tt.input))
		got, err := selectUserType(reader)
		if err != nil {
			t.Fatalf("selectUserType(%q) failed: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("selectUserType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	reader := bufio.NewScanner(strings.NewReader(""))
	if _, err := selectUserType(reader); err == nil {
		t.Error("expected error on exhausted input")
	}
}
