package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "techpulse.log")
	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.With(String("run_id", "r1")).Info("source fetched",
		String("source", "github_trending"),
		Int("records", 20),
		Bool("cached", true),
		Duration("elapsed", 1500*time.Millisecond),
		Strings("feeds", []string{"a", "b"}),
	)
	log.Error("run failed", Error(errors.New("boom")))

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "source fetched", first["message"])
	assert.Equal(t, "r1", first["run_id"])
	assert.Equal(t, "github_trending", first["source"])
	assert.Equal(t, 20.0, first["records"])
	assert.Equal(t, true, first["cached"])
	assert.Equal(t, 1500.0, first["elapsed"])
	assert.Equal(t, "a, b", first["feeds"])
	assert.Contains(t, first, "time")

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(&Config{Level: "info", Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		l := Nop().With(Any("k", map[string]int{"a": 1}), Error(nil))
		l.Info("ignored", Error(nil))
	})
}
