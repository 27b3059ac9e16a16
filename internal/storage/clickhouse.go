package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseOption func(*ClickHouseConfig)

type ClickHouseConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	UseHTTP         bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
}

// ClickHouseStore appends pulses to a MergeTree table.
type ClickHouseStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseStore(ctx context.Context, table string, opts ...ClickHouseOption) (*ClickHouseStore, error) {
	cfg := &ClickHouseConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("clickhouse host is required")
	}
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if err := validateTable(cfg.Database); err != nil {
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}

	db := clickhouse.OpenDB(clickHouseOptions(*cfg))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	s := &ClickHouseStore{db: db, table: cfg.Database + "." + table}
	if err := s.initSchema(ctx, cfg.Database); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *ClickHouseStore) initSchema(ctx context.Context, database string) error {
	for _, stmt := range schemaStatements(database, s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id String, created_at DateTime64(3), pulse_data String) ENGINE=MergeTree ORDER BY created_at", table),
	}
}

func (s *ClickHouseStore) Insert(ctx context.Context, row Row) error {
	q := fmt.Sprintf("INSERT INTO %s (id, created_at, pulse_data) VALUES (?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, row.ID, row.CreatedAt, row.PulseData); err != nil {
		return fmt.Errorf("clickhouse insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *ClickHouseStore) Name() string {
	return "clickhouse"
}

func (s *ClickHouseStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// clickHouseOptions maps cfg onto driver options. Credentials are passed
// as-is, never through a DSN string.
func clickHouseOptions(cfg ClickHouseConfig) *clickhouse.Options {
	protocol := clickhouse.Native
	if cfg.UseHTTP {
		protocol = clickhouse.HTTP
	}
	return &clickhouse.Options{
		Protocol: protocol,
		Addr:     []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

func WithHost(host string) ClickHouseOption {
	return func(c *ClickHouseConfig) {
		c.Host = host
	}
}

func WithPort(port int) ClickHouseOption {
	return func(c *ClickHouseConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

func WithDatabase(database string) ClickHouseOption {
	return func(c *ClickHouseConfig) {
		if database != "" {
			c.Database = database
		}
	}
}

func WithCredentials(user, password string) ClickHouseOption {
	return func(c *ClickHouseConfig) {
		c.User = user
		c.Password = password
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) ClickHouseOption {
	return func(c *ClickHouseConfig) {
		c.UseHTTP = useHTTP
	}
}

func WithTimeouts(dial, read time.Duration) ClickHouseOption {
	return func(c *ClickHouseConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}
