package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// SQLiteExtractor discovers abstract schema metadata from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates an extractor for a SQLite database file
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// Discover builds the schema model for the specified tables.
// If tables is empty, every table in the database is included.
func (e *SQLiteExtractor) Discover(ctx context.Context, tables []string) (*schema.Metadata, error) {
	md := &schema.Metadata{FileID: fileIDFromPath(e.client.GetPath())}

	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		table, err := e.discoverTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to discover table %s: %w", tableName, err)
		}
		md.AddTable(*table)
	}

	return md, nil
}

// fileIDFromPath labels the model after the database file, without extension
func fileIDFromPath(path string) string {
	if path == ":memory:" {
		return "memory"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// getTableNames returns the list of tables to discover
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

func (e *SQLiteExtractor) discoverTable(ctx context.Context, tableName string) (*schema.Table, error) {
	refs, err := e.foreignKeyRefs(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}

	columns, err := e.discoverColumns(ctx, tableName, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	return &schema.Table{Name: tableName, Columns: columns}, nil
}

// discoverColumns walks PRAGMA table_info, which carries name, declared
// type, nullability, default, and primary key order in one result set.
func (e *SQLiteExtractor) discoverColumns(ctx context.Context, tableName string, refs map[string]ref) ([]schema.Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	pk := make(map[string]bool)

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pkOrder int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:         name,
			DataType:     abstractSQLiteType(colType),
			IsPrimaryKey: pkOrder > 0,
			IsNullable:   notNull == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = defaultValue.String
		}
		if r, ok := refs[name]; ok {
			col.IsForeignKey = true
			col.ReferencesTable = r.table
			col.ReferencesColumn = r.column
		}
		if pkOrder > 0 {
			pk[name] = true
		}

		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Unique constraints live in the index list, not table_info
	for i := range columns {
		isUnique, err := e.isColumnUnique(ctx, tableName, columns[i].Name, pk)
		if err != nil {
			return nil, err
		}
		columns[i].IsUnique = isUnique
	}

	return columns, nil
}

// foreignKeyRefs returns the reference target per foreign key column. The
// target column is NULL when the constraint references an implicit primary
// key, which leaves an incomplete target.
func (e *SQLiteExtractor) foreignKeyRefs(ctx context.Context, tableName string) (map[string]ref, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[string]ref)
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		refs[fromCol] = ref{table: targetTable, column: toCol.String}
	}

	return refs, rows.Err()
}

// isColumnUnique checks if a column has a single-column unique index.
// Primary key columns are skipped, the key clause covers them.
func (e *SQLiteExtractor) isColumnUnique(ctx context.Context, tableName, columnName string, pk map[string]bool) (bool, error) {
	if pk[columnName] {
		return false, nil
	}

	query := fmt.Sprintf("PRAGMA index_list(%s)", tableName)
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return false, err
		}

		if unique != 1 {
			continue
		}

		indexColumns, err := e.indexColumns(ctx, name)
		if err != nil {
			return false, err
		}
		if len(indexColumns) == 1 && indexColumns[0] == columnName {
			return true, nil
		}
	}

	return false, rows.Err()
}

// indexColumns returns the column names covered by one index
func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", indexName)
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

// abstractSQLiteType maps a declared column type onto the abstract
// vocabulary. SQLite accepts free-form declarations, so after the exact
// matches an affinity-style guess handles the rest.
func abstractSQLiteType(declared string) string {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if t == "" {
		return "VARCHAR"
	}
	if i := strings.Index(t, "("); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "INT", "INTEGER", "MEDIUMINT":
		return "INTEGER"
	case "BIGINT":
		return "BIGINT"
	case "SMALLINT", "TINYINT":
		return "SMALLINT"
	case "VARCHAR", "NVARCHAR":
		return "VARCHAR"
	case "CHAR", "NCHAR":
		return "CHAR"
	case "TEXT", "CLOB":
		return "TEXT"
	case "BOOLEAN", "BOOL":
		return "BOOLEAN"
	case "DATE":
		return "DATE"
	case "DATETIME":
		return "DATETIME"
	case "TIMESTAMP":
		return "TIMESTAMP"
	case "DECIMAL", "NUMERIC":
		return "DECIMAL"
	case "REAL", "FLOAT":
		return "FLOAT"
	case "DOUBLE":
		return "DOUBLE"
	case "JSON":
		return "JSON"
	}

	switch {
	case strings.Contains(t, "INT"):
		return "INTEGER"
	case strings.Contains(t, "CHAR"):
		return "VARCHAR"
	case strings.Contains(t, "TEXT"):
		return "TEXT"
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return "DOUBLE"
	default:
		return t
	}
}
