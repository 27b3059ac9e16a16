package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ObiAU/techpulse/internal/models"
)

const (
	localFilePrefix = "tech_pulse_processed_"
	localFileLayout = "20060102_150405"
)

var ErrNoPulse = errors.New("no pulse saved yet")

// LocalStore writes one indented JSON file per run into a directory.
type LocalStore struct {
	dir string
	now func() time.Time
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir, now: time.Now}
}

// Save writes the pulse to <dir>/tech_pulse_processed_<YYYYMMDD_HHMMSS>.json
// and returns the path.
func (s *LocalStore) Save(pulse *models.Pulse) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(pulse, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode pulse: %w", err)
	}

	path := filepath.Join(s.dir, localFilePrefix+s.now().Format(localFileLayout)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write pulse: %w", err)
	}
	return path, nil
}

// Latest loads the most recent pulse file. The timestamped names sort in
// chronological order.
func (s *LocalStore) Latest() (*models.Pulse, string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNoPulse
		}
		return nil, "", fmt.Errorf("read output dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, localFilePrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, "", ErrNoPulse
	}
	sort.Strings(names)

	path := filepath.Join(s.dir, names[len(names)-1])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read pulse: %w", err)
	}

	var pulse models.Pulse
	if err := json.Unmarshal(data, &pulse); err != nil {
		return nil, "", fmt.Errorf("decode pulse %s: %w", path, err)
	}
	return &pulse, path, nil
}
