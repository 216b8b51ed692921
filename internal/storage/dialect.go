package storage

import (
	"strconv"
	"strings"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// dialect captures the SQL differences between the supported databases.
// Queries are written with ? placeholders and rebound per dialect.
type dialect struct {
	name       string
	autoID     string
	timestamp  string
	payload    string
	key        string
	float      string
	boolean    string
	dollarArgs bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:      DriverSQLite,
		autoID:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp: "DATETIME",
		payload:   "TEXT",
		key:       "TEXT",
		float:     "REAL",
		boolean:   "BOOLEAN",
	},
	DriverPostgres: {
		name:       DriverPostgres,
		autoID:     "BIGSERIAL PRIMARY KEY",
		timestamp:  "TIMESTAMPTZ",
		payload:    "TEXT",
		key:        "VARCHAR(128)",
		float:      "DOUBLE PRECISION",
		boolean:    "BOOLEAN",
		dollarArgs: true,
	},
	DriverMySQL: {
		name:      DriverMySQL,
		autoID:    "BIGINT AUTO_INCREMENT PRIMARY KEY",
		timestamp: "DATETIME(6)",
		payload:   "LONGTEXT",
		key:       "VARCHAR(128)",
		float:     "DOUBLE",
		boolean:   "BOOLEAN",
	},
}

// rebind rewrites ? placeholders to $n for postgres.
// Queries must not contain literal question marks.
func (d dialect) rebind(query string) string {
	if !d.dollarArgs {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertIgnore returns an insert statement that skips rows whose primary
// key already exists.
func (d dialect) insertIgnore(table, columns, values string) string {
	switch d.name {
	case DriverMySQL:
		return "INSERT IGNORE INTO " + table + " (" + columns + ") VALUES (" + values + ")"
	case DriverPostgres:
		return "INSERT INTO " + table + " (" + columns + ") VALUES (" + values + ") ON CONFLICT DO NOTHING"
	default:
		return "INSERT OR IGNORE INTO " + table + " (" + columns + ") VALUES (" + values + ")"
	}
}

// upsert returns an insert statement that overwrites updateCols when the
// row identified by keyCol exists.
func (d dialect) upsert(table, keyCol string, columns []string, updateCols []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ")"

	sets := make([]string, len(updateCols))
	for i, col := range updateCols {
		if d.name == DriverMySQL {
			sets[i] = col + " = VALUES(" + col + ")"
		} else {
			sets[i] = col + " = excluded." + col
		}
	}

	if d.name == DriverMySQL {
		return stmt + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return stmt + " ON CONFLICT(" + keyCol + ") DO UPDATE SET " + strings.Join(sets, ", ")
}
