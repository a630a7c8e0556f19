package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "schemaVersion": "1.0",
  "metadata": {
    "generatedAt": "2025-06-01T10:00:00Z",
    "tables": {
      "orders": {
        "description": "Customer orders",
        "columns": [
          {"columnName": "id", "dataType": "INTEGER", "isPrimaryKey": true, "nullable": false},
          {"columnName": "customer_id", "dataType": "INTEGER", "isForeignKey": true,
           "referencesTable": "customers", "referencesColumn": "id"},
          {"columnName": "total", "dataType": "DECIMAL", "defaultValue": 0}
        ]
      },
      "customers": {
        "columns": [
          {"columnName": "id", "dataType": "INTEGER", "isPrimaryKey": true, "nullable": false},
          {"columnName": "email", "isUnique": true},
          {"columnName": "status", "dataType": "VARCHAR", "defaultValue": "active"}
        ]
      },
      "audit_log": {
        "columns": [
          {"columnName": "recorded_at", "dataType": "TIMESTAMP", "nullable": true}
        ]
      }
    }
  }
}`

func TestDecodePreservesTableOrder(t *testing.T) {
	md, err := Decode(strings.NewReader(sampleDocument), "doc-42")
	require.NoError(t, err)

	require.Len(t, md.Tables, 3)
	// document order, not alphabetical
	assert.Equal(t, "orders", md.Tables[0].Name)
	assert.Equal(t, "customers", md.Tables[1].Name)
	assert.Equal(t, "audit_log", md.Tables[2].Name)
	assert.Equal(t, "doc-42", md.FileID)
	assert.Equal(t, 7, md.TotalColumns())
}

func TestDecodeAppliesDefaults(t *testing.T) {
	md, err := Decode(strings.NewReader(sampleDocument), "doc")
	require.NoError(t, err)

	customers := md.Tables[1]
	email := customers.Columns[1]
	assert.Equal(t, "VARCHAR", email.DataType, "missing dataType should default to VARCHAR")
	assert.True(t, email.IsNullable, "missing nullable should default to true")
	assert.True(t, email.IsUnique)

	id := customers.Columns[0]
	assert.False(t, id.IsNullable, "explicit nullable:false must survive")
}

func TestDecodeDefaultValueScalars(t *testing.T) {
	md, err := Decode(strings.NewReader(sampleDocument), "doc")
	require.NoError(t, err)

	total := md.Tables[0].Columns[2]
	assert.Equal(t, "0", total.DefaultValue, "numeric default should render as plain text")

	status := md.Tables[1].Columns[2]
	assert.Equal(t, "active", status.DefaultValue)
}

func TestDecodeTableDescriptions(t *testing.T) {
	md, err := Decode(strings.NewReader(sampleDocument), "doc")
	require.NoError(t, err)

	assert.Equal(t, "Customer orders", md.Tables[0].Description)
	assert.Empty(t, md.Tables[1].Description)
}

func TestDecodeForeignKeyReference(t *testing.T) {
	md, err := Decode(strings.NewReader(sampleDocument), "doc")
	require.NoError(t, err)

	fk := md.Tables[0].Columns[1]
	assert.True(t, fk.IsForeignKey)
	assert.Equal(t, "customers", fk.ReferencesTable)
	assert.Equal(t, "id", fk.ReferencesColumn)
	assert.True(t, fk.HasReference())
}

func TestDecodeDuplicateTableNameReplacesInPlace(t *testing.T) {
	doc := `{"metadata": {"tables": {
	  "users": {"columns": [{"columnName": "id"}]},
	  "orders": {"columns": [{"columnName": "id"}]},
	  "users": {"columns": [{"columnName": "id"}, {"columnName": "name"}]}
	}}}`
	md, err := Decode(strings.NewReader(doc), "doc")
	require.NoError(t, err)

	require.Len(t, md.Tables, 2)
	assert.Equal(t, "users", md.Tables[0].Name, "replaced table keeps its original slot")
	assert.Len(t, md.Tables[0].Columns, 2, "last definition wins")
	assert.Equal(t, "orders", md.Tables[1].Name)
}

func TestDecodeMissingColumnName(t *testing.T) {
	doc := `{"metadata": {"tables": {
	  "orders": {"columns": [{"columnName": "id"}, {"dataType": "TEXT"}]}
	}}}`
	_, err := Decode(strings.NewReader(doc), "doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"orders"`, "error should name the table")
	assert.Contains(t, err.Error(), "column 1", "error should give the column position")
}

func TestDecodeBooleanDefaultValue(t *testing.T) {
	doc := `{"metadata": {"tables": {
	  "flags": {"columns": [{"columnName": "active", "dataType": "BOOLEAN", "defaultValue": true}]}
	}}}`
	md, err := Decode(strings.NewReader(doc), "doc")
	require.NoError(t, err)
	assert.Equal(t, "true", md.Tables[0].Columns[0].DefaultValue)
}

func TestDecodeNullDefaultValue(t *testing.T) {
	doc := `{"metadata": {"tables": {
	  "flags": {"columns": [{"columnName": "active", "defaultValue": null}]}
	}}}`
	md, err := Decode(strings.NewReader(doc), "doc")
	require.NoError(t, err)
	assert.Empty(t, md.Tables[0].Columns[0].DefaultValue)
}

func TestDecodeIgnoresUnknownEnvelopeKeys(t *testing.T) {
	doc := `{
	  "extra": {"nested": [1, 2, 3]},
	  "metadata": {"note": "x", "tables": {"t": {"columns": [{"columnName": "c"}]}}},
	  "trailing": 7
	}`
	md, err := Decode(strings.NewReader(doc), "doc")
	require.NoError(t, err)
	require.Len(t, md.Tables, 1)
	assert.Equal(t, "t", md.Tables[0].Name)
}

func TestDecodeEmptyTables(t *testing.T) {
	md, err := Decode(strings.NewReader(`{"metadata": {"tables": {}}}`), "doc")
	require.NoError(t, err)
	assert.Empty(t, md.Tables)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	md, err := LoadFile(path, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "file-1", md.FileID)
	assert.Len(t, md.Tables, 3)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope", "metadata.json"), "file-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open metadata file")
}
