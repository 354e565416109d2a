package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedStore(t *testing.T, format Format, ts time.Time) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), format)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	s.now = func() time.Time { return ts }
	return s
}

func TestSaveTextFormat(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	s := fixedStore(t, FormatText, ts)

	path, err := s.Save(Record{Text: "Hola, ¿cómo estás?", Language: "es", Duration: 2500 * time.Millisecond})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != "2024-03-09_14-05-07.txt" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "# Voice Transcription\n# Date: 2024-03-09 14:05:07\n# Duration: 2.5s\n# Language: es\n\nHola, ¿cómo estás?\n"
	if string(data) != want {
		t.Fatalf("unexpected content:\n%s\nwant:\n%s", data, want)
	}
}

func TestSaveNeverOverwrites(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	s := fixedStore(t, FormatText, ts)

	first, err := s.Save(Record{Text: "one", Language: "en"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := s.Save(Record{Text: "two", Language: "en"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if first == second {
		t.Fatalf("second save reused %s", first)
	}
	if !strings.HasSuffix(second, "2024-03-09_14-05-07-1.txt") {
		t.Fatalf("unexpected collision name %s", second)
	}

	data, _ := os.ReadFile(first)
	if !strings.Contains(string(data), "one") {
		t.Fatalf("first transcript was overwritten: %q", data)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := fixedStore(t, FormatText, time.Time{})
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	for i, text := range []string{"first", "second", "third"} {
		_, err := s.Save(Record{Text: text, Language: "en", CreatedAt: base.Add(time.Duration(i) * time.Minute), Duration: time.Second})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	records, err := s.List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Text != "third" || records[1].Text != "second" {
		t.Fatalf("unexpected order: %q, %q", records[0].Text, records[1].Text)
	}
	if records[0].Duration != time.Second || records[0].Language != "en" {
		t.Fatalf("header not parsed: %+v", records[0])
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	s := fixedStore(t, FormatJSON, ts)

	path, err := s.Save(Record{Text: "hello", Language: "en", Duration: 1500 * time.Millisecond, Backend: "whisper-cli"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != ".json" {
		t.Fatalf("unexpected extension %s", path)
	}

	records, err := s.List(0)
	if err != nil || len(records) != 1 {
		t.Fatalf("List: %v, %d records", err, len(records))
	}
	r := records[0]
	if r.Text != "hello" || r.Duration != 1500*time.Millisecond || r.Backend != "whisper-cli" || !r.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestListMissingDir(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "absent"), FormatText)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	records, err := s.List(10)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty list, got %v, %v", records, err)
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := NewStore(t.TempDir(), "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestSaveRemovesPartialFile(t *testing.T) {
	// encoding/json rejects years past 9999 after the file is created
	ts := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := fixedStore(t, FormatJSON, ts)

	if _, err := s.Save(Record{Text: "lost", Language: "en"}); err == nil {
		t.Fatalf("expected write error")
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("partial transcript left behind: %v", entries)
	}
}
