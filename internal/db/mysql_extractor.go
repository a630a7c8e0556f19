package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// MySQLExtractor discovers abstract schema metadata from MySQL
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates an extractor for one MySQL database
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// Discover builds the schema model for the specified tables.
// If tables is empty, every base table in the database is included.
func (e *MySQLExtractor) Discover(ctx context.Context, tables []string) (*schema.Metadata, error) {
	md := &schema.Metadata{FileID: e.schemaName}

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

// getTableNames returns the list of tables to discover
func (e *MySQLExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (e *MySQLExtractor) discoverTable(ctx context.Context, tableName string) (*schema.Table, error) {
	pk, err := e.primaryKeyColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}

	refs, err := e.foreignKeyRefs(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}

	columns, err := e.discoverColumns(ctx, tableName, pk, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	return &schema.Table{Name: tableName, Columns: columns}, nil
}

func (e *MySQLExtractor) discoverColumns(ctx context.Context, tableName string, pk map[string]bool, refs map[string]ref) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.column_type,
			c.is_nullable,
			c.column_default,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.table_schema = ?
					AND tc.table_name = ?
					AND tc.constraint_type = 'UNIQUE'
					AND kcu.column_name = c.column_name
			) THEN true ELSE false END as is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var name, dataType, columnType, nullable string
		var defaultVal sql.NullString
		var isUnique bool

		if err := rows.Scan(&name, &dataType, &columnType, &nullable, &defaultVal, &isUnique); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:         name,
			DataType:     abstractMySQLType(dataType, columnType),
			IsPrimaryKey: pk[name],
			IsNullable:   nullable == "YES",
			IsUnique:     isUnique,
		}
		if defaultVal.Valid {
			col.DefaultValue = defaultVal.String
		}
		if r, ok := refs[name]; ok {
			col.IsForeignKey = true
			col.ReferencesTable = r.table
			col.ReferencesColumn = r.column
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// primaryKeyColumns returns the set of primary key column names
func (e *MySQLExtractor) primaryKeyColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pk := make(map[string]bool)
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk[colName] = true
	}

	return pk, rows.Err()
}

// foreignKeyRefs returns the reference target per foreign key column. The
// referenced column can come back NULL, which leaves an incomplete target.
func (e *MySQLExtractor) foreignKeyRefs(ctx context.Context, tableName string) (map[string]ref, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[string]ref)
	for rows.Next() {
		var column, refTable string
		var refColumn sql.NullString
		if err := rows.Scan(&column, &refTable, &refColumn); err != nil {
			return nil, err
		}
		refs[column] = ref{table: refTable, column: refColumn.String}
	}

	return refs, rows.Err()
}

// abstractMySQLType maps information_schema type names onto the abstract
// vocabulary. column_type disambiguates tinyint(1), which MySQL uses for
// booleans.
func abstractMySQLType(dataType, columnType string) string {
	switch dataType {
	case "int", "mediumint":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "smallint":
		return "SMALLINT"
	case "tinyint":
		if columnType == "tinyint(1)" {
			return "BOOLEAN"
		}
		return "SMALLINT"
	case "varchar":
		return "VARCHAR"
	case "char":
		return "CHAR"
	case "text", "tinytext", "mediumtext", "longtext":
		return "TEXT"
	case "date":
		return "DATE"
	case "datetime":
		return "DATETIME"
	case "timestamp":
		return "TIMESTAMP"
	case "decimal":
		return "DECIMAL"
	case "float":
		return "FLOAT"
	case "double":
		return "DOUBLE"
	case "json":
		return "JSON"
	case "enum", "set":
		// value lists have no abstract form, fall back to text
		return "VARCHAR"
	default:
		return strings.ToUpper(dataType)
	}
}
