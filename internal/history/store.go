// Package history persists one file per successful dictation.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FileLayout is the timestamp layout used for transcript file names
const FileLayout = "2006-01-02_15-04-05"

// Format selects how transcripts are rendered on disk
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// maxCollisions bounds the -N suffix search within one second
const maxCollisions = 1000

// Record is one persisted transcription
type Record struct {
	Text      string        `json:"text"`
	Language  string        `json:"language"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"timestamp"`
	Backend   string        `json:"backend,omitempty"`

	// Path is set by Save and List
	Path string `json:"-"`
}

// jsonRecord is the on-disk JSON shape
type jsonRecord struct {
	Record
	DurationSeconds float64 `json:"duration_seconds"`
}

// Store writes transcripts into a directory
type Store struct {
	dir    string
	format Format
	mu     sync.Mutex
	now    func() time.Time
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string, format Format) (*Store, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown transcript format %q (valid: text, json)", format)
	}
	return &Store{dir: dir, format: format, now: time.Now}, nil
}

// Dir returns the transcripts directory
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to a new file. Existing files are never overwritten.
func (s *Store) Save(r Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create transcripts dir: %w", err)
	}

	f, path, err := s.create(r.CreatedAt)
	if err != nil {
		return "", err
	}

	err = s.render(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Warn().Err(rerr).Str("path", path).Msg("failed to remove partial transcript")
		}
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}

func (s *Store) ext() string {
	if s.format == FormatJSON {
		return ".json"
	}
	return ".txt"
}

// create opens a fresh file for ts, adding -N when the name is taken
func (s *Store) create(ts time.Time) (*os.File, string, error) {
	base := ts.Format(FileLayout)
	for i := 0; i < maxCollisions; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(s.dir, name+s.ext())
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create transcript: %w", err)
		}
	}
	return nil, "", fmt.Errorf("failed to create transcript: too many files for %s", base)
}

func (s *Store) render(w io.Writer, r Record) error {
	if s.format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonRecord{Record: r, DurationSeconds: r.Duration.Seconds()})
	}
	return RenderText(w, r)
}

// RenderText writes the plain text transcript form
func RenderText(w io.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "# Voice Transcription\n# Date: %s\n# Duration: %.1fs\n# Language: %s\n\n%s\n",
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		r.Duration.Seconds(),
		r.Language,
		r.Text,
	)
	return err
}

// List returns up to limit transcripts, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read transcripts dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".txt" && ext != ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	// Names start with a sortable timestamp
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	records := make([]Record, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		r, err := readRecord(path)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	if filepath.Ext(path) == ".json" {
		var jr jsonRecord
		if err := json.Unmarshal(data, &jr); err != nil {
			return Record{}, err
		}
		r := jr.Record
		r.Duration = time.Duration(jr.DurationSeconds * float64(time.Second))
		r.Path = path
		return r, nil
	}
	r, err := parseText(string(data))
	r.Path = path
	return r, err
}

func parseText(content string) (Record, error) {
	var r Record
	header, body, found := strings.Cut(content, "\n\n")
	if !found {
		return r, errors.New("missing transcript header")
	}
	for _, line := range strings.Split(header, "\n") {
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "# "), ": ")
		if !ok {
			continue
		}
		switch key {
		case "Date":
			if ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local); err == nil {
				r.CreatedAt = ts
			}
		case "Duration":
			if d, err := time.ParseDuration(value); err == nil {
				r.Duration = d
			}
		case "Language":
			r.Language = value
		}
	}
	r.Text = strings.TrimSuffix(body, "\n")
	return r, nil
}
