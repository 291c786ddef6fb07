package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	recordPrefix = "medical_record_"
	recordExt    = ".md"
	stampLayout  = "20060102-150405"
)

var ErrInvalidName = errors.New("invalid record name")

// Record describes a saved medical record on disk.
type Record struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Store saves generated records and owns the per-session scratch directory
// used for synthesized audio.
type Store struct {
	dir     string
	scratch string
	now     func() time.Time

	mu     sync.Mutex
	closed bool
}

// DefaultDir is ~/.local/share/medintake/records, honouring XDG_DATA_HOME.
func DefaultDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "medintake", "records"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "medintake", "records"), nil
}

// Open creates the record directory if needed and a fresh scratch directory.
func Open(dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	scratch, err := os.MkdirTemp("", "medintake-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	log.Printf("Store: records in %s, scratch in %s", dir, scratch)
	return &Store{dir: dir, scratch: scratch, now: time.Now}, nil
}

func (s *Store) Dir() string        { return s.dir }
func (s *Store) ScratchDir() string { return s.scratch }

// SaveRecord writes doc to a new timestamped file and returns its path.
// Existing files are never overwritten; a numeric suffix is added instead.
func (s *Store) SaveRecord(doc string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().Format(stampLayout)
	for i := 1; ; i++ {
		name := recordPrefix + stamp + recordExt
		if i > 1 {
			name = fmt.Sprintf("%s%s-%d%s", recordPrefix, stamp, i, recordExt)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create record file: %w", err)
		}

		if _, err := f.WriteString(doc); err != nil {
			f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write record: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close record: %w", err)
		}

		log.Printf("Store: saved record %s (%d bytes)", path, len(doc))
		return path, nil
	}
}

// ListRecords returns saved records, newest first.
func (s *Store) ListRecords() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read record directory: %w", err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() || !isRecordName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		records = append(records, Record{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].ModTime.Equal(records[j].ModTime) {
			return records[i].Name > records[j].Name
		}
		return records[i].ModTime.After(records[j].ModTime)
	})
	return records, nil
}

// ReadRecord returns the contents of a saved record by file name.
func (s *Store) ReadRecord(name string) (string, error) {
	if name != filepath.Base(name) || !isRecordName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close removes the scratch directory. Saved records are kept.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.scratch); err != nil {
		return fmt.Errorf("failed to remove scratch directory: %w", err)
	}
	return nil
}

func isRecordName(name string) bool {
	return strings.HasPrefix(name, recordPrefix) && strings.HasSuffix(name, recordExt)
}
