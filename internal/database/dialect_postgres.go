package database

import (
	"fmt"

	"github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL databases.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// InitStatements returns nothing; foreign keys are always enforced.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

func (d *PostgresDialect) SerialPrimaryKey() string {
	return "BIGSERIAL PRIMARY KEY"
}

func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMPTZ"
}

func (d *PostgresDialect) BooleanType() string {
	return "BOOLEAN"
}

// PathColumn stores the main path as a native integer array.
func (d *PostgresDialect) PathColumn() string {
	return "main_path BIGINT[] NOT NULL DEFAULT '{}'"
}

func (d *PostgresDialect) EncodePath(path []int) any {
	ids := make([]int64, len(path))
	for i, v := range path {
		ids[i] = int64(v)
	}
	return pq.Array(ids)
}

func (d *PostgresDialect) PathScanner() (any, func() ([]int, error)) {
	var ids pq.Int64Array
	return &ids, func() ([]int, error) {
		if len(ids) == 0 {
			return nil, nil
		}
		path := make([]int, len(ids))
		for i, v := range ids {
			path[i] = int(v)
		}
		return path, nil
	}
}

// InsertID appends a RETURNING clause; lib/pq has no LastInsertId.
func (d *PostgresDialect) InsertID(ex execQuerier, query, column string, args ...any) (int64, error) {
	var id int64
	err := ex.QueryRow(query+" RETURNING "+column, args...).Scan(&id)
	return id, err
}
