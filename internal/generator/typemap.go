package generator

import "strings"

// mysqlTypes maps abstract type names to concrete MySQL column types.
var mysqlTypes = map[string]string{
	"INTEGER":   "INT",
	"INT":       "INT",
	"BIGINT":    "BIGINT",
	"SMALLINT":  "SMALLINT",
	"VARCHAR":   "VARCHAR(255)",
	"TEXT":      "TEXT",
	"CHAR":      "CHAR",
	"BOOLEAN":   "BOOLEAN",
	"BOOL":      "BOOLEAN",
	"DATE":      "DATE",
	"TIMESTAMP": "TIMESTAMP",
	"DATETIME":  "DATETIME",
	"DECIMAL":   "DECIMAL(18,2)",
	"NUMERIC":   "DECIMAL(18,2)",
	"FLOAT":     "FLOAT",
	"DOUBLE":    "DOUBLE",
	"JSON":      "JSON",
}

// DefaultType is the MySQL type used for any abstract type outside the map.
const DefaultType = "VARCHAR(255)"

// MapType converts an abstract data type to its MySQL equivalent. The lookup
// is case-insensitive and never fails: unrecognized types fall back to
// DefaultType so generation always produces a usable column.
func MapType(abstract string) string {
	if t, ok := mysqlTypes[strings.ToUpper(abstract)]; ok {
		return t
	}
	return DefaultType
}

// autoIncrementTypes are the abstract types eligible for AUTO_INCREMENT.
var autoIncrementTypes = map[string]struct{}{
	"INTEGER": {},
	"INT":     {},
	"BIGINT":  {},
}

// IsIntegerType reports whether abstract names an integer type that MySQL can
// auto-increment. The match is exact after upper-casing, not a prefix test,
// so SMALLINT and INT8 do not qualify.
func IsIntegerType(abstract string) bool {
	_, ok := autoIncrementTypes[strings.ToUpper(abstract)]
	return ok
}
