package db

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"shopcatalog/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDatabase opens the database at dbPath, migrates the schema and
// publishes the handle as DB.
func InitDatabase(dbPath string) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// Open opens (creating if needed) the SQLite file at dbPath and runs the
// migrations.
func Open(dbPath string) (*gorm.DB, error) {
	// Ensure the directory exists (create if it doesn't)
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		slog.Info("database file does not exist, creating", "path", dbPath)
		file, err := os.Create(dbPath)
		if err != nil {
			return nil, fmt.Errorf("create database file: %w", err)
		}
		file.Close()
	}

	conn, err := connect(dbPath + "?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	slog.Info("database connected", "path", dbPath)
	return conn, nil
}

// OpenMemory opens a private in-memory database. name keeps separate
// callers (tests) from sharing state.
func OpenMemory(name string) (*gorm.DB, error) {
	return connect(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name))
}

// newLogger reports slow queries and real failures. Lookups that find
// nothing are an expected outcome and stay quiet.
func newLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(os.Stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Single connection: code inside a transaction must use its tx, never DB.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate brings the schema up to date.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Address{}, &models.User{}, &models.Category{}, &models.Property{},
		&models.Product{}, &models.Review{}, &models.WishItem{}, &models.Cart{}, &models.CartItem{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
