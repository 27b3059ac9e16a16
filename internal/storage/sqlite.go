package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PulseRow is the gorm model of a stored pulse.
type PulseRow struct {
	ID        string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	PulseData string    `gorm:"type:text"`
}

// SQLiteStore keeps pulses in a local SQLite database, for single-machine
// setups without a hosted store.
type SQLiteStore struct {
	db    *gorm.DB
	table string
}

var _ History = (*SQLiteStore)(nil)

func NewSQLiteStore(path, table string) (*SQLiteStore, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	s := &SQLiteStore{db: db, table: table}
	if err := db.Table(table).AutoMigrate(&PulseRow{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate %s: %w", table, err)
	}

	return s, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, row Row) error {
	rec := PulseRow{ID: row.ID, CreatedAt: row.CreatedAt, PulseData: row.PulseData}
	if err := s.db.WithContext(ctx).Table(s.table).Create(&rec).Error; err != nil {
		return fmt.Errorf("sqlite insert into %s: %w", s.table, err)
	}
	return nil
}

// Recent returns up to n rows, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Row, error) {
	var recs []PulseRow
	err := s.db.WithContext(ctx).Table(s.table).Order("created_at desc").Limit(n).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite query %s: %w", s.table, err)
	}

	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row{ID: r.ID, CreatedAt: r.CreatedAt, PulseData: r.PulseData})
	}
	return rows, nil
}

func (s *SQLiteStore) Name() string {
	return "sqlite"
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
