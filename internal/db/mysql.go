package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to a MySQL source database
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient opens a MySQL connection and verifies it
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ParseDatabaseName extracts the database name from a MySQL DSN of the form
// user:pass@tcp(host:port)/dbname?params. An empty result means the DSN
// names no database.
func ParseDatabaseName(connString string) string {
	idx := strings.LastIndex(connString, "/")
	if idx < 0 {
		return ""
	}
	name := connString[idx+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	return name
}
