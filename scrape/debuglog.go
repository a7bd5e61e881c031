package scrape

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/importar-info/importador/models"
)

// debugLog appends one JSON line per scrape to a local file for later
// inspection. Every operation is best effort; problems writing or
// opening the file never affect the scrape itself.
type debugLog struct {
	mu   sync.Mutex
	path string
}

func newDebugLog(path string) *debugLog {
	return &debugLog{path: path}
}

type debugEntry struct {
	Timestamp   string            `json:"timestamp"`
	URL         string            `json:"url"`
	FetchedWith string            `json:"fetchedWith,omitempty"`
	Car         *models.CarData   `json:"car,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorDetail map[string]string `json:"errorDetail,omitempty"`
}

func (d *debugLog) append(url, fetchedWith string, car *models.CarData, scrapeErr error) {
	if d == nil || d.path == "" {
		return
	}

	entry := debugEntry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		URL:         url,
		FetchedWith: fetchedWith,
		Car:         car,
	}
	if scrapeErr != nil {
		entry.Error = scrapeErr.Error()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Debug("debug log unavailable", "path", d.path, "error", err)
		return
	}
	defer f.Close()
	_, _ = f.Write(line)
}
