package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teslashibe/focuson/internal/log"
)

const (
	// ReportFile is the human-readable report inside a session folder.
	ReportFile = "report.txt"
	// DataFile is the machine-readable record inside a session folder.
	DataFile = "session_data.json"

	folderPrefix = "session_"
	folderLayout = "20060102_150405"
)

// Paths locates the files written for one session.
type Paths struct {
	Dir    string
	Report string
	Data   string
}

// Writer persists finished sessions under a reports directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		logger: log.Component("session.writer"),
	}
}

// Dir returns the reports directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write creates session_<YYYYmmdd_HHMMSS>/ for rec and writes the report
// and the JSON record into it. An existing folder with the same stamp gets
// a numeric suffix.
func (w *Writer) Write(rec Record) (Paths, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("session: create reports dir: %w", err)
	}

	dir, err := w.folder(rec)
	if err != nil {
		return Paths{}, err
	}
	p := Paths{
		Dir:    dir,
		Report: filepath.Join(dir, ReportFile),
		Data:   filepath.Join(dir, DataFile),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return p, fmt.Errorf("session: marshal record: %w", err)
	}
	if err := writeAtomic(p.Data, data); err != nil {
		return p, fmt.Errorf("session: write %s: %w", DataFile, err)
	}
	if err := writeAtomic(p.Report, []byte(Report(rec))); err != nil {
		return p, fmt.Errorf("session: write %s: %w", ReportFile, err)
	}

	w.logger.Info("session saved", "dir", dir, "id", rec.ID)
	return p, nil
}

func (w *Writer) folder(rec Record) (string, error) {
	base := filepath.Join(w.dir, folderPrefix+rec.Start().Format(folderLayout))
	dir := base
	for i := 2; ; i++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("session: create folder: %w", err)
		}
		dir = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// LoadAll reads every session_*/session_data.json under dir. Unreadable or
// malformed records are skipped with a warning. Results are sorted by start time.
func LoadAll(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("session: read reports dir: %w", err)
	}

	logger := log.Component("session.loader")
	var recs []Record
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), folderPrefix) {
			continue
		}
		path := filepath.Join(dir, e.Name(), DataFile)
		rec, err := Load(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("skipping session", "path", path, "error", err)
			}
			continue
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StartTime < recs[j].StartTime
	})
	return recs, nil
}

// Load reads one session_data.json.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("session: parse %s: %w", path, err)
	}
	if !rec.Valid() {
		return Record{}, fmt.Errorf("session: %s: missing start or end time", path)
	}
	return rec, nil
}
