package database

import "database/sql"

// execQuerier is satisfied by *sql.DB and *sql.Tx.
type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Dialect covers what the layout store does differently on SQLite and
// PostgreSQL.
type Dialect interface {
	// DriverName returns the driver name for sql.Open().
	DriverName() string

	// Placeholder returns the parameter placeholder for the given position (1-indexed).
	// SQLite: "?" (ignores position), PostgreSQL: "$1", "$2", etc.
	Placeholder(position int) string

	// InitStatements run once after connecting.
	InitStatements() []string

	SerialPrimaryKey() string
	TimestampType() string
	BooleanType() string

	// PathColumn is the column definition holding a layout's main path.
	PathColumn() string

	// EncodePath converts a main path into an argument for PathColumn.
	EncodePath(path []int) any

	// PathScanner returns a Scan destination for PathColumn and a func
	// decoding it once the row has been scanned.
	PathScanner() (dest any, decode func() ([]int, error))

	// InsertID runs an already built INSERT and returns the generated
	// value of column.
	InsertID(ex execQuerier, query, column string, args ...any) (int64, error)
}

// DialectType identifies the database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect creates a new Dialect for the given type.
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}
