package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// columnRecord mirrors one column entry of a metadata document. Pointer and
// raw fields distinguish "absent" from zero values so defaults apply only
// when a key is genuinely missing.
type columnRecord struct {
	ColumnName       string          `json:"columnName"`
	DataType         string          `json:"dataType"`
	IsPrimaryKey     bool            `json:"isPrimaryKey"`
	IsForeignKey     bool            `json:"isForeignKey"`
	Nullable         *bool           `json:"nullable"`
	IsUnique         bool            `json:"isUnique"`
	DefaultValue     json.RawMessage `json:"defaultValue"`
	ReferencesTable  string          `json:"referencesTable"`
	ReferencesColumn string          `json:"referencesColumn"`
	Description      string          `json:"description"`
}

type tableRecord struct {
	Description string         `json:"description"`
	Columns     []columnRecord `json:"columns"`
}

// LoadFile reads a metadata document from path and builds the schema model
// for it. fileID labels the resulting Metadata.
func LoadFile(path, fileID string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	md, err := Decode(f, fileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// Decode parses a metadata document of the form
//
//	{"metadata": {"tables": {"<name>": {"description": ..., "columns": [...]}}}}
//
// from r. The tables object is walked token by token so that member order in
// the document becomes table order in the model; a repeated table name
// replaces the earlier entry without changing its position. Unknown keys
// anywhere in the envelope are skipped.
func Decode(r io.Reader, fileID string) (*Metadata, error) {
	dec := json.NewDecoder(r)
	md := &Metadata{FileID: fileID}

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("metadata document: %w", err)
	}
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, fmt.Errorf("metadata document: %w", err)
		}
		if key != "metadata" {
			if err := skipValue(dec); err != nil {
				return nil, fmt.Errorf("metadata document: %w", err)
			}
			continue
		}
		if err := decodeMetadataObject(dec, md); err != nil {
			return nil, err
		}
	}
	return md, nil
}

func decodeMetadataObject(dec *json.Decoder, md *Metadata) error {
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("metadata object: %w", err)
	}
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return fmt.Errorf("metadata object: %w", err)
		}
		if key != "tables" {
			if err := skipValue(dec); err != nil {
				return fmt.Errorf("metadata object: %w", err)
			}
			continue
		}
		if err := decodeTables(dec, md); err != nil {
			return err
		}
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("metadata object: %w", err)
	}
	return nil
}

func decodeTables(dec *json.Decoder, md *Metadata) error {
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("tables object: %w", err)
	}
	for dec.More() {
		name, err := objectKey(dec)
		if err != nil {
			return fmt.Errorf("tables object: %w", err)
		}
		var rec tableRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		t, err := buildTable(name, rec)
		if err != nil {
			return err
		}
		md.AddTable(t)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("tables object: %w", err)
	}
	return nil
}

func buildTable(name string, rec tableRecord) (Table, error) {
	t := Table{Name: name, Description: rec.Description}
	for i, cr := range rec.Columns {
		if strings.TrimSpace(cr.ColumnName) == "" {
			return Table{}, fmt.Errorf("table %q: column %d has no columnName", name, i)
		}
		dataType := cr.DataType
		if dataType == "" {
			dataType = "VARCHAR"
		}
		nullable := true
		if cr.Nullable != nil {
			nullable = *cr.Nullable
		}
		t.Columns = append(t.Columns, Column{
			Name:             cr.ColumnName,
			DataType:         dataType,
			IsPrimaryKey:     cr.IsPrimaryKey,
			IsForeignKey:     cr.IsForeignKey,
			IsNullable:       nullable,
			IsUnique:         cr.IsUnique,
			DefaultValue:     rawScalarString(cr.DefaultValue),
			ReferencesTable:  cr.ReferencesTable,
			ReferencesColumn: cr.ReferencesColumn,
			Description:      cr.Description,
		})
	}
	return t, nil
}

// rawScalarString renders a JSON scalar as the literal text the generators
// emit. Documents carry defaults as strings, numbers, or booleans; all three
// collapse to their plain textual form, and null means no default.
func rawScalarString(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return trimmed
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}
