// Package erd produces entity-relationship diagrams for the abstract schema
// model: Mermaid source text, plus optional image rendering through a
// headless browser.
package erd

import (
	"fmt"
	"io"
	"strings"

	"github.com/schemaforge/schemaforge/internal/generator"
	"github.com/schemaforge/schemaforge/internal/schema"
)

// Generator writes Mermaid erDiagram source for a schema model
type Generator struct {
	writer io.Writer
}

// NewGenerator creates a new Mermaid generator
func NewGenerator(w io.Writer) *Generator {
	return &Generator{writer: w}
}

// Generate writes the diagram: every entity block first, then every
// relationship line. Entities and their columns follow model order.
func (g *Generator) Generate(md *schema.Metadata) error {
	var sb strings.Builder
	sb.WriteString("erDiagram\n\n")

	for i := range md.Tables {
		writeEntity(&sb, &md.Tables[i])
	}
	for i := range md.Tables {
		writeRelationships(&sb, &md.Tables[i])
	}

	_, err := io.WriteString(g.writer, sb.String())
	return err
}

// Source renders the diagram for md as a single string.
func Source(md *schema.Metadata) string {
	var sb strings.Builder
	_ = NewGenerator(&sb).Generate(md)
	return sb.String()
}

func writeEntity(sb *strings.Builder, t *schema.Table) {
	fmt.Fprintf(sb, "    %s {\n", entityName(t.Name))
	for i := range t.Columns {
		fmt.Fprintf(sb, "        %s\n", attributeLine(&t.Columns[i]))
	}
	sb.WriteString("    }\n\n")
}

// attributeLine renders one entity attribute: cleaned MySQL type, upper-cased
// name, at most one key marker (PK wins over FK), and a quoted tag list.
func attributeLine(col *schema.Column) string {
	line := cleanType(generator.MapType(col.DataType)) + " " + entityName(col.Name)

	switch {
	case col.IsPrimaryKey:
		line += " PK"
	case col.IsForeignKey:
		line += " FK"
	}

	if tags := constraintTags(col); len(tags) > 0 {
		line += ` "` + strings.Join(tags, ", ") + `"`
	}
	return line
}

func constraintTags(col *schema.Column) []string {
	var tags []string
	if col.IsPrimaryKey && generator.IsIntegerType(col.DataType) {
		tags = append(tags, "AUTO_INCREMENT")
	}
	if !col.IsNullable {
		tags = append(tags, "NOT NULL")
	}
	if col.IsUnique {
		tags = append(tags, "UNIQUE")
	}
	if col.DefaultValue != "" {
		tags = append(tags, "DEFAULT "+col.DefaultValue)
	}
	if col.IsForeignKey {
		tags = append(tags, "INDEX")
	}
	return tags
}

// writeRelationships draws one referenced-side to owning-side edge per
// foreign key column that names a target table. The target column is not
// required here, unlike the DDL constraint.
func writeRelationships(sb *strings.Builder, t *schema.Table) {
	for _, fk := range t.ForeignKeys() {
		if fk.ReferencesTable == "" {
			continue
		}
		fmt.Fprintf(sb, "    %s ||--o{ %s : \"FK, ON DELETE CASCADE\"\n",
			entityName(fk.ReferencesTable), entityName(t.Name))
	}
}

// typeCleaner strips the characters Mermaid cannot digest inside a type
// token, so VARCHAR(255) becomes VARCHAR_255 and DECIMAL(18,2) DECIMAL_18_2.
var typeCleaner = strings.NewReplacer("(", "_", ")", "", ",", "_")

func cleanType(mysqlType string) string {
	return typeCleaner.Replace(mysqlType)
}

func entityName(name string) string {
	return strings.ToUpper(generator.SanitizeName(name))
}
