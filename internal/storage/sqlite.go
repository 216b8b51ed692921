package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/finsight/internal/service"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Compile-time interface check.
var _ service.Storage = (*Store)(nil)

// Store implements service.Storage on top of database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the database named by driver and dsn.
// Driver is one of sqlite, postgres or mysql.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if err := validateString(dsn, "dsn"); err != nil {
		return nil, err
	}
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(dsn)
	case DriverPostgres:
		db, err = openPool("pgx", dsn)
	case DriverMySQL:
		var mysqlDSN string
		mysqlDSN, err = toMySQLDSN(dsn)
		if err == nil {
			db, err = openPool("mysql", mysqlDSN)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// NewSQLiteStorage opens a sqlite database at dbPath.
func NewSQLiteStorage(ctx context.Context, dbPath string) (*Store, error) {
	return Open(ctx, DriverSQLite, dbPath)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports which database the store is connected to.
func (s *Store) Driver() string {
	return s.dialect.name
}

func openSQLite(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

func openPool(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// toMySQLDSN converts mysql:// and mariadb:// URLs to the driver's format.
// Other values pass through unchanged.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user, pass := "", ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	name := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || name == "" {
		return "", fmt.Errorf("%w: mysql dsn needs user, host and database", ErrInvalidDSN)
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, name), nil
}
