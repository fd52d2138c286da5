package database

import (
	"strconv"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite databases.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite"
}

func (d *SQLiteDialect) Placeholder(position int) string {
	return "?"
}

// InitStatements turns on cascading deletes and lets readers run beside
// a saving writer.
func (d *SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

func (d *SQLiteDialect) SerialPrimaryKey() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *SQLiteDialect) TimestampType() string {
	return "TIMESTAMP"
}

func (d *SQLiteDialect) BooleanType() string {
	return "INTEGER"
}

// PathColumn stores the main path as comma separated room ids.
func (d *SQLiteDialect) PathColumn() string {
	return "main_path TEXT NOT NULL DEFAULT ''"
}

func (d *SQLiteDialect) EncodePath(path []int) any {
	return joinInts(path)
}

func (d *SQLiteDialect) PathScanner() (any, func() ([]int, error)) {
	var s string
	return &s, func() ([]int, error) { return splitInts(s) }
}

// InsertID reads the id from LastInsertId; column is implied by the table.
func (d *SQLiteDialect) InsertID(ex execQuerier, query, column string, args ...any) (int64, error) {
	result, err := ex.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
