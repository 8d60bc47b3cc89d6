// Package database opens gorm connections for the SQL table source and the
// session history store.
package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver (lib/pq)
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"

	// MemoryDSN is a private in-memory SQLite database
	MemoryDSN = ":memory:"
)

var DB *gorm.DB

// Open connects to a SQLite or PostgreSQL database
func Open(dialect, dsn string) (*gorm.DB, error) {
	switch dialect {
	case DialectSQLite, DialectPostgres:
	case "":
		dialect = DialectSQLite
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite && dsn == MemoryDSN {
		// every connection to :memory: is a separate database
		db.DB().SetMaxOpenConns(1)
	}
	return db, nil
}

// InitDB initializes the shared database connection
func InitDB(dialect, dsn string) error {
	db, err := Open(dialect, dsn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
