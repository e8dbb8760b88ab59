// Package export turns a finished (or in-flight) session into a portable
// JSON artifact. Serialization is pure; delivery goes through an injected
// Sink so the engine stays agnostic to whether bytes end up in a file or an
// HTTP download.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavelanni/interviewer/internal/model"
)

// Sink accepts a serialized artifact together with a suggested filename.
type Sink interface {
	Save(name string, data []byte) error
}

// Serialize renders the session settings and history as indented JSON. The
// decoded form is exactly {settings, history}.
func Serialize(settings model.Settings, history []model.HistoryRecord) ([]byte, error) {
	if settings.SelectedTopics == nil {
		settings.SelectedTopics = []string{}
	}
	if history == nil {
		history = []model.HistoryRecord{}
	}
	data, err := json.MarshalIndent(model.SessionExport{
		Settings: settings,
		History:  history,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return data, nil
}

var filenameSanitizer = strings.NewReplacer(":", "-", ".", "-")

// Filename builds a filesystem-safe artifact name from the capture time:
// colons and dots in the timestamp become dashes.
func Filename(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "interview-" + filenameSanitizer.Replace(ts) + ".json"
}

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir string
}

func (d DirSink) Save(name string, data []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
