package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/httpclient"
	"github.com/ObiAU/techpulse/internal/models"
)

func samplePulse() *models.Pulse {
	return &models.Pulse{
		LanguageDistribution: &models.LanguageChart{
			Labels: []string{"Go"},
			Datasets: []models.LanguageDataset{{
				Label:           "GitHub Trending Languages",
				Data:            []int{3},
				BackgroundColor: []string{"#3572A5"},
				HoverData:       []models.LanguageBucket{{RepoCount: 3, TotalStars: 30, Repos: []models.RepoSummary{}}},
			}},
		},
	}
}

func TestLocalStore_SaveAndLatest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed_data")
	s := NewLocalStore(dir)

	_, _, err := s.Latest()
	assert.ErrorIs(t, err, ErrNoPulse)

	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	older, err := s.Save(&models.Pulse{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tech_pulse_processed_20260102_030405.json"), older)

	s.now = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	newer, err := s.Save(samplePulse())
	require.NoError(t, err)

	raw, err := os.ReadFile(newer)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    \"github_language_distribution\"", "four space indent")
	assert.NotContains(t, string(raw), "news_word_cloud", "absent sections are omitted")

	latest, path, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, newer, path)
	assert.Equal(t, []string{"Go"}, latest.LanguageDistribution.Labels)
}

func TestLocalStore_WriteFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewLocalStore(file).Save(samplePulse())
	assert.Error(t, err)
}

func TestSupabaseStore_Insert(t *testing.T) {
	var got struct {
		path, apikey, auth, prefer string
		body                       []map[string]string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.apikey = r.Header.Get("apikey")
		got.auth = r.Header.Get("Authorization")
		got.prefer = r.Header.Get("Prefer")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got.body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL+"/", "service-key", "tech_pulses", httpclient.New())
	err := s.Insert(context.Background(), Row{ID: "run-1", PulseData: `{"a":1}`})
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/tech_pulses", got.path)
	assert.Equal(t, "service-key", got.apikey)
	assert.Equal(t, "Bearer service-key", got.auth)
	assert.Equal(t, "return=minimal", got.prefer)
	assert.Equal(t, []map[string]string{{"pulse_data": `{"a":1}`}}, got.body)
}

func TestSupabaseStore_InsertFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	s := NewSupabaseStore(srv.URL, "bad", "tech_pulses", httpclient.New())
	err := s.Insert(context.Background(), Row{PulseData: "{}"})

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pulses.db"), "tech_pulses")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(ctx, Row{ID: "a", CreatedAt: base, PulseData: `{"n":1}`}))
	require.NoError(t, s.Insert(ctx, Row{ID: "b", CreatedAt: base.Add(time.Hour), PulseData: `{"n":2}`}))

	rows, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)
	assert.Equal(t, `{"n":1}`, rows[1].PulseData)

	assert.Error(t, s.Insert(ctx, Row{ID: "a", CreatedAt: base, PulseData: "{}"}), "rows are never overwritten")
}

func TestNewSQLiteStore_MigrateFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulses.db")
	s, err := NewSQLiteStore(path, "seed")
	require.NoError(t, err)
	require.NoError(t, s.db.Exec("CREATE VIEW tech_pulses AS SELECT 1 AS one").Error)
	require.NoError(t, s.Close())

	_, err = NewSQLiteStore(path, "tech_pulses")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate tech_pulses")
}

func TestValidateTable(t *testing.T) {
	for _, ok := range []string{"tech_pulses", "_t", "Pulses2026"} {
		assert.NoError(t, validateTable(ok), ok)
	}
	for _, bad := range []string{"", "1pulses", "tech-pulses", "pulses; DROP TABLE x", "db.table"} {
		assert.ErrorIs(t, validateTable(bad), ErrInvalidTable, bad)
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements("techpulse", "techpulse.tech_pulses")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS techpulse", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE IF NOT EXISTS techpulse.tech_pulses (id String"))
}

func TestClickHouseOptions(t *testing.T) {
	opts := clickHouseOptions(ClickHouseConfig{
		Host: "ch.local", Port: 9000, Database: "techpulse", User: "default", Password: "p@ss/w#rd",
		DialTimeout: 5 * time.Second, ReadTimeout: 10 * time.Second, MaxOpenConns: 4,
	})
	assert.Equal(t, clickhouse.Native, opts.Protocol)
	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, clickhouse.Auth{Database: "techpulse", Username: "default", Password: "p@ss/w#rd"}, opts.Auth)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 10*time.Second, opts.ReadTimeout)
	assert.Equal(t, 4, opts.MaxOpenConns)

	opts = clickHouseOptions(ClickHouseConfig{Host: "::1", Port: 8123, Database: "d", User: "u", UseHTTP: true})
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, []string{"[::1]:8123"}, opts.Addr)
	assert.Empty(t, opts.Auth.Password)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "supabase"
	cfg.Store.Table = "tech_pulses"

	_, err := New(context.Background(), cfg, httpclient.New())
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Store.SupabaseURL = "https://example.supabase.co"
	cfg.Store.SupabaseKey = "key"
	store, err := New(context.Background(), cfg, httpclient.New())
	require.NoError(t, err)
	assert.Equal(t, "supabase", store.Name())

	cfg.Store.Table = "tech pulses"
	_, err = New(context.Background(), cfg, httpclient.New())
	assert.ErrorIs(t, err, ErrInvalidTable)

	cfg.Store.Backend = "sqlite"
	cfg.Store.Table = "tech_pulses"
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "p.db")
	store, err = New(context.Background(), cfg, httpclient.New())
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "sqlite", store.Name())
}
