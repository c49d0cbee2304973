package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ethanbaker/controlfill/pkg/utils"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store records completed rows for auditing. It is never consulted to
// decide which rows to process
type Store interface {
	Record(ctx context.Context, entry *Entry) error
	ListRun(ctx context.Context, runID uuid.UUID) ([]*Entry, error)
	Close() error
}

// DSNFromConfig builds a MySQL DSN from the MYSQL_* keys. ok is false when
// MYSQL_HOST is unset
func DSNFromConfig(cfg *utils.Config) (string, bool) {
	host := cfg.Get("MYSQL_HOST")
	if host == "" {
		return "", false
	}

	dbConfig := gomysql.Config{
		User:                 cfg.Get("MYSQL_USERNAME"),
		Passwd:               cfg.Get("MYSQL_ROOT_PASSWORD"),
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%s", host, cfg.GetWithDefault("MYSQL_PORT", "3306")),
		DBName:               cfg.Get("MYSQL_DATABASE"),
		ParseTime:            true,
		AllowNativePasswords: true,
	}

	return dbConfig.FormatDSN(), true
}

// MySqlStore persists ledger entries using GORM
type MySqlStore struct {
	db *gorm.DB
}

// NewMySqlStore opens the database and migrates the ledger table
func NewMySqlStore(databaseURL string) (*MySqlStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate tables
	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &MySqlStore{db: db}, nil
}

// Record saves an entry to the database
func (s *MySqlStore) Record(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(toModel(entry)).Error; err != nil {
		return fmt.Errorf("failed to record entry: %w", err)
	}
	return nil
}

// ListRun returns the entries of one run in row order
func (s *MySqlStore) ListRun(ctx context.Context, runID uuid.UUID) ([]*Entry, error) {
	var models []*EntryModel
	result := s.db.WithContext(ctx).
		Where("run_id = ?", runID.String()).
		Order("row_index ASC").Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list run: %w", result.Error)
	}

	entries := make([]*Entry, 0, len(models))
	for _, m := range models {
		e, err := fromModel(m)
		if err != nil {
			return nil, fmt.Errorf("corrupt run id %q: %w", m.RunID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close releases the underlying connection pool
func (s *MySqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
