// Package logstore persists the archive log as a single JSON document.
package logstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/m-a-p/link-archiver/internal/archive"
)

// Log is the on-disk document, a mapping from URL to its archive record.
type Log struct {
	ArchivedLinks map[string]archive.Record `json:"archived_links"`
}

// NewLog returns an empty log.
func NewLog() Log {
	return Log{ArchivedLinks: make(map[string]archive.Record)}
}

// Store reads and writes logs at a fixed path.
type Store struct {
	path   string
	logger *zap.Logger
}

// New creates a Store for the given path.
func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the log file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted log. A missing or corrupt file yields an empty
// log so that a lost history never blocks new archiving; only I/O errors
// are surfaced, since those also doom the final save.
func (s *Store) Load() (Log, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLog(), nil
		}
		return Log{}, fmt.Errorf("read log %s: %w", s.path, err)
	}

	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		s.logger.Warn("log file is corrupt, starting fresh",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return NewLog(), nil
	}
	if l.ArchivedLinks == nil {
		l.ArchivedLinks = make(map[string]archive.Record)
	}
	return l, nil
}

// Save writes the full log atomically: the document lands in a temp file
// in the same directory and is renamed into place, so a crash mid-write
// cannot leave a truncated log behind.
func (s *Store) Save(l Log) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace log %s: %w", s.path, err)
	}

	s.logger.Debug("log saved",
		zap.String("path", s.path),
		zap.Int("urls", len(l.ArchivedLinks)),
	)
	return nil
}

// Merge folds the results for one URL into the log and returns it. For a
// known URL it appends sourceFile to the record's file set and replaces
// only the service entries present in results; a prior successful result
// is never displaced by a new failure, and first_seen never changes. An
// unknown URL gets a fresh record stamped with now.
func Merge(l Log, url string, results map[string]archive.ServiceResult, sourceFile string, now time.Time) Log {
	if l.ArchivedLinks == nil {
		l.ArchivedLinks = make(map[string]archive.Record)
	}

	rec, ok := l.ArchivedLinks[url]
	if !ok {
		rec = archive.Record{
			OriginalURL: url,
			FirstSeen:   now,
			Services:    make(map[string]archive.ServiceResult),
		}
	}
	if rec.Services == nil {
		rec.Services = make(map[string]archive.ServiceResult)
	}

	if sourceFile != "" && !slices.Contains(rec.Files, sourceFile) {
		rec.Files = append(rec.Files, sourceFile)
		slices.Sort(rec.Files)
	}

	for name, res := range results {
		if prev, exists := rec.Services[name]; exists && prev.Success && !res.Success {
			continue
		}
		rec.Services[name] = res
	}

	l.ArchivedLinks[url] = rec
	return l
}
