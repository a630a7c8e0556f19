package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// ref is a foreign key target resolved during discovery. Either field may be
// empty when the engine could not report it.
type ref struct {
	table  string
	column string
}

// PostgresExtractor discovers abstract schema metadata from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates an extractor for one PostgreSQL schema
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// Discover builds the schema model for the specified tables.
// If tables is empty, every base table in the schema is included.
func (e *PostgresExtractor) Discover(ctx context.Context, tables []string) (*schema.Metadata, error) {
	md := &schema.Metadata{FileID: e.schema}

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
func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
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

// discoverTable assembles one table: key and reference lookups run first so
// the column walk can fold them into per-column flags.
func (e *PostgresExtractor) discoverTable(ctx context.Context, tableName string) (*schema.Table, error) {
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

// discoverColumns reads column rows in ordinal order and builds the model
// columns, importing primary key and reference lookups as flags.
func (e *PostgresExtractor) discoverColumns(ctx context.Context, tableName string, pk map[string]bool, refs map[string]ref) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.constraint_column_usage ccu
					ON tc.constraint_name = ccu.constraint_name
					AND tc.table_schema = ccu.table_schema
				WHERE tc.table_schema = $1
					AND tc.table_name = $2
					AND tc.constraint_type = 'UNIQUE'
					AND ccu.column_name = c.column_name
			) THEN true ELSE false END as is_unique
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var name, dataType, udtName, nullable string
		var defaultVal *string
		var isUnique bool

		if err := rows.Scan(&name, &dataType, &udtName, &nullable, &defaultVal, &isUnique); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:         name,
			DataType:     abstractPostgresType(dataType, udtName),
			IsPrimaryKey: pk[name],
			IsNullable:   nullable == "YES",
			IsUnique:     isUnique,
			DefaultValue: cleanPostgresDefault(defaultVal),
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
func (e *PostgresExtractor) primaryKeyColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
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

// foreignKeyRefs returns the reference target per foreign key column
func (e *PostgresExtractor) foreignKeyRefs(ctx context.Context, tableName string) (map[string]ref, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make(map[string]ref)
	for rows.Next() {
		var column, refTable, refColumn string
		if err := rows.Scan(&column, &refTable, &refColumn); err != nil {
			return nil, err
		}
		refs[column] = ref{table: refTable, column: refColumn}
	}

	return refs, rows.Err()
}

// abstractPostgresType maps information_schema type names onto the abstract
// vocabulary the generators understand. Types with no abstract equivalent
// pass through upper-cased and land on the type mapper's fallback.
func abstractPostgresType(dataType, udtName string) string {
	switch dataType {
	case "integer":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "smallint":
		return "SMALLINT"
	case "character varying":
		return "VARCHAR"
	case "character":
		return "CHAR"
	case "text":
		return "TEXT"
	case "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "timestamp without time zone", "timestamp with time zone":
		return "TIMESTAMP"
	case "numeric":
		return "DECIMAL"
	case "real":
		return "FLOAT"
	case "double precision":
		return "DOUBLE"
	case "json", "jsonb":
		return "JSON"
	case "USER-DEFINED":
		// enums and domains
		return strings.ToUpper(udtName)
	default:
		return strings.ToUpper(dataType)
	}
}

// cleanPostgresDefault drops sequence-driven defaults and strips type casts,
// so 'active'::character varying comes through as 'active'.
func cleanPostgresDefault(def *string) string {
	if def == nil {
		return ""
	}
	d := *def
	if strings.HasPrefix(d, "nextval(") {
		return ""
	}
	if i := strings.Index(d, "::"); i >= 0 {
		d = d[:i]
	}
	return d
}
