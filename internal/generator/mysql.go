// Package generator translates the abstract schema model into MySQL DDL.
// Output is deterministic: the same model always yields byte-identical SQL,
// and table, column, and statement order follow the model's own order.
package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// DDLGenerator writes a MySQL DDL script for a schema model
type DDLGenerator struct {
	writer io.Writer
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(w io.Writer) *DDLGenerator {
	return &DDLGenerator{writer: w}
}

// Generate writes the full script: one CREATE TABLE per table, then every
// foreign key constraint, then every index. Constraints come after all
// tables exist so forward references never break.
func (g *DDLGenerator) Generate(md *schema.Metadata) error {
	var stmts []string
	for i := range md.Tables {
		stmts = append(stmts, createTable(&md.Tables[i]))
	}
	for i := range md.Tables {
		stmts = append(stmts, foreignKeys(&md.Tables[i])...)
	}
	for i := range md.Tables {
		stmts = append(stmts, indexes(&md.Tables[i])...)
	}

	_, err := io.WriteString(g.writer, strings.Join(stmts, "\n\n")+"\n")
	return err
}

// Script renders the DDL for md as a single string.
func Script(md *schema.Metadata) string {
	var sb strings.Builder
	_ = NewDDLGenerator(&sb).Generate(md) // strings.Builder writes cannot fail
	return sb.String()
}

func createTable(t *schema.Table) string {
	var defs []string
	for i := range t.Columns {
		defs = append(defs, "    "+columnDefinition(&t.Columns[i]))
	}

	// Single PRIMARY KEY clause covering all key columns
	if pks := t.PrimaryKeys(); len(pks) > 0 {
		names := make([]string, len(pks))
		for i, pk := range pks {
			names[i] = SanitizeName(pk.Name)
		}
		defs = append(defs, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(names, ", ")))
	}

	return strings.Join([]string{
		fmt.Sprintf("CREATE TABLE %s (", SanitizeName(t.Name)),
		strings.Join(defs, ",\n"),
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;",
	}, "\n")
}

func columnDefinition(col *schema.Column) string {
	parts := []string{SanitizeName(col.Name), MapType(col.DataType)}

	if col.IsPrimaryKey && IsIntegerType(col.DataType) {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if !col.IsNullable {
		parts = append(parts, "NOT NULL")
	}
	if col.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	if col.DefaultValue != "" {
		parts = append(parts, "DEFAULT "+col.DefaultValue)
	}

	return strings.Join(parts, " ")
}

// foreignKeys emits one ALTER TABLE per foreign key column whose reference
// names both a target table and a target column. The constraint counter
// numbers only those qualifying columns, so a column with a dangling
// reference leaves no gap in the sequence.
func foreignKeys(t *schema.Table) []string {
	var stmts []string
	n := 0
	for _, fk := range t.ForeignKeys() {
		if !fk.HasReference() {
			continue
		}
		n++
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE %s ADD CONSTRAINT fk_%s_%d FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE CASCADE ON UPDATE CASCADE;",
			SanitizeName(t.Name), SanitizeName(t.Name), n, SanitizeName(fk.Name),
			SanitizeName(fk.ReferencesTable), SanitizeName(fk.ReferencesColumn)))
	}
	return stmts
}

// indexes emits one CREATE INDEX per foreign key column, reference or not.
func indexes(t *schema.Table) []string {
	var stmts []string
	for _, fk := range t.ForeignKeys() {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s);",
			SanitizeName(t.Name), SanitizeName(fk.Name),
			SanitizeName(t.Name), SanitizeName(fk.Name)))
	}
	return stmts
}
