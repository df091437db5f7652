package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/test-cache")
	if Dir() != "/tmp/test-cache/depviz" {
		t.Errorf("expected /tmp/test-cache/depviz, got %q", Dir())
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "depviz")
	if Dir() != expected {
		t.Errorf("expected %q, got %q", expected, Dir())
	}
}

func TestPutAndGet(t *testing.T) {
	s := New(t.TempDir(), time.Minute)

	if _, ok := s.Get("42"); ok {
		t.Fatal("empty store should miss")
	}
	if err := s.Put("42", []byte(`{"success":true}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, ok := s.Get("42")
	if !ok || string(data) != `{"success":true}` {
		t.Errorf("unexpected cached value %q, %v", data, ok)
	}
}

func TestExpiry(t *testing.T) {
	s := New(t.TempDir(), time.Minute)
	s.Put("7", []byte("x"))

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok := s.Get("7"); ok {
		t.Error("stale entry should miss")
	}

	s.ttl = 0
	if _, ok := s.Get("7"); !ok {
		t.Error("zero TTL should never expire")
	}
}

func TestClearAndSize(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 0)
	s.Put("1", []byte("abc"))
	s.Put("2", []byte("de"))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644)

	n, total := s.Size()
	if n != 2 || total != 5 {
		t.Errorf("expected 2 entries / 5 bytes, got %d / %d", n, total)
	}

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("unrelated files should be left alone")
	}
}

func TestClearMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), 0)
	if n, err := s.Clear(); err != nil || n != 0 {
		t.Errorf("expected 0, nil; got %d, %v", n, err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", "42"},
		{"models/42", "models_42"},
		{"../../etc", "____etc"},
		{"host:8080@1", "host_8080_1"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.input); got != tt.expected {
			t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
