package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/httpclient"
)

var (
	ErrInvalidTable  = errors.New("invalid table name")
	ErrNotConfigured = errors.New("record store not configured")
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Row is one persisted pulse. Every run inserts a new row; rows are never
// updated.
type Row struct {
	ID        string
	CreatedAt time.Time
	PulseData string
}

// RecordStore is the durable remote copy of every pulse.
type RecordStore interface {
	Insert(ctx context.Context, row Row) error
	Name() string
	Close() error
}

// History is implemented by stores that can read their rows back.
type History interface {
	Recent(ctx context.Context, n int) ([]Row, error)
}

// New opens the backend named in cfg.Store. It returns ErrNotConfigured when
// that backend is missing its credentials or DSN.
func New(ctx context.Context, cfg *config.Config, client *httpclient.Client) (RecordStore, error) {
	if !cfg.StoreEnabled() {
		return nil, fmt.Errorf("%w: backend %q", ErrNotConfigured, cfg.Store.Backend)
	}
	if err := validateTable(cfg.Store.Table); err != nil {
		return nil, err
	}

	sc := cfg.Store
	switch sc.Backend {
	case "supabase":
		return NewSupabaseStore(sc.SupabaseURL, sc.SupabaseKey, sc.Table, client), nil
	case "clickhouse":
		store, err := NewClickHouseStore(ctx, sc.Table,
			WithHost(sc.ClickHouse.Host),
			WithPort(sc.ClickHouse.Port),
			WithDatabase(sc.ClickHouse.Database),
			WithCredentials(sc.ClickHouse.User, sc.ClickHouse.Password),
			WithHTTP(sc.ClickHouse.UseHTTP),
			WithTimeouts(sc.ClickHouse.Timeout, sc.ClickHouse.Timeout),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := NewSQLiteStore(sc.SQLitePath, sc.Table)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: backend %q", ErrNotConfigured, sc.Backend)
	}
}

func validateTable(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return nil
}
