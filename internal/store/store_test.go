package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local) }
	return s
}

func TestSaveRecord(t *testing.T) {
	s := openTestStore(t)

	path, err := s.SaveRecord("# 入院记录")
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if filepath.Base(path) != "medical_record_20240305-140709.md" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "# 入院记录" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSaveRecordNeverOverwrites(t *testing.T) {
	s := openTestStore(t)

	first, err := s.SaveRecord("one")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.SaveRecord("two")
	if err != nil {
		t.Fatal(err)
	}
	third, err := s.SaveRecord("three")
	if err != nil {
		t.Fatal(err)
	}

	if first == second || second == third {
		t.Fatalf("paths collided: %s %s %s", first, second, third)
	}
	if !strings.HasSuffix(second, "-2.md") || !strings.HasSuffix(third, "-3.md") {
		t.Errorf("unexpected suffixes: %s %s", second, third)
	}
	if data, _ := os.ReadFile(first); string(data) != "one" {
		t.Errorf("first record overwritten: %q", data)
	}
}

func TestListRecords(t *testing.T) {
	s := openTestStore(t)

	old, _ := s.SaveRecord("old")
	newer, _ := s.SaveRecord("new")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Path != newer || records[1].Path != old {
		t.Errorf("records not newest first: %s, %s", records[0].Name, records[1].Name)
	}
	if records[0].Size != 3 {
		t.Errorf("unexpected size %d", records[0].Size)
	}
}

func TestReadRecord(t *testing.T) {
	s := openTestStore(t)
	path, _ := s.SaveRecord("body")

	got, err := s.ReadRecord(filepath.Base(path))
	if err != nil || got != "body" {
		t.Fatalf("ReadRecord = %q, %v", got, err)
	}

	for _, name := range []string{"../medical_record_x.md", "notes.txt", ""} {
		if _, err := s.ReadRecord(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ReadRecord(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestCloseRemovesScratchOnly(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatal(err)
	}
	path, _ := s.SaveRecord("keep")
	scratch := s.ScratchDir()
	if err := os.WriteFile(filepath.Join(scratch, "tts.mp3"), []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("scratch directory still present: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("record removed with scratch: %v", err)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/data", "medintake", "records") {
		t.Errorf("unexpected dir %s", dir)
	}
}
