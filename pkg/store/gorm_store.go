package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"bookstore/pkg/domain"
)

const migrateLockID int64 = 50001227

const saveBatchSize = 100

// GormStoreOptions tunes the GORM connection.
type GormStoreOptions struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

type GormStoreOption func(*GormStoreOptions)

// WithSlowThreshold sets the duration after which queries are logged as slow.
func WithSlowThreshold(d time.Duration) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.SlowThreshold = d
	}
}

// WithLogLevel overrides the GORM logger level (default: warn).
func WithLogLevel(level gormlogger.LogLevel) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.LogLevel = level
	}
}

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{
		SlowThreshold: time.Second,
		LogLevel:      gormlogger.Warn,
	}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&BookModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreWithDB wraps an already opened connection. No migrations are run.
func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Ping checks the underlying connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

func byCategory(category string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if domain.IsAllCategories(category) {
			return tx
		}
		return tx.Where("category = ?", category)
	}
}

// ListBooks counts the filtered books, then loads the requested window ordered by book_id.
func (s *GormStore) ListBooks(ctx context.Context, q BookQuery) ([]domain.Book, int, error) {
	var total int64
	if err := s.db.WithContext(ctx).
		Model(&BookModel{}).
		Scopes(byCategory(q.Category)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	if total == 0 || q.Limit <= 0 || int64(q.Offset) >= total {
		return []domain.Book{}, int(total), nil
	}

	var models []BookModel
	if err := s.db.WithContext(ctx).
		Scopes(byCategory(q.Category)).
		Order("book_id ASC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, int(total), nil
}

// SaveBooks upserts books by book_id.
func (s *GormStore) SaveBooks(ctx context.Context, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}
	models := make([]BookModel, 0, len(books))
	for _, b := range books {
		models = append(models, bookToModel(b))
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		UpdateAll: true,
	}).CreateInBatches(&models, saveBatchSize).Error
}
