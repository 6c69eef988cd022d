package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/treemetrics/schema"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	backend  schema.DatabaseBackend
	driver   string // database/sql driver name
	quote    string // identifier quote character
	numbered bool   // $1 style bind parameters
	connHint string // shown when the connection fails

	// column types
	keyType    string
	blobType   string
	textType   string
	bigintType string
	intType    string
	timeType   string
	serialPK   string
}

var dialects = map[schema.DatabaseBackend]dialect{
	schema.SQLiteBackend: {
		backend:    schema.SQLiteBackend,
		driver:     "sqlite",
		quote:      `"`,
		connHint:   "Verify the database file is accessible and its directory is writable.",
		keyType:    "TEXT",
		blobType:   "BLOB",
		textType:   "TEXT",
		bigintType: "INTEGER",
		intType:    "INTEGER",
		timeType:   "TEXT",
		serialPK:   "INTEGER PRIMARY KEY AUTOINCREMENT",
	},
	schema.MySQLBackend: {
		backend:    schema.MySQLBackend,
		driver:     "mysql",
		quote:      "`",
		connHint:   "Check that MySQL is running. Connection format: user:password@tcp(host:port)/dbname",
		keyType:    "VARCHAR(255)",
		blobType:   "MEDIUMBLOB",
		textType:   "MEDIUMTEXT",
		bigintType: "BIGINT",
		intType:    "INT",
		timeType:   "DATETIME(6)",
		serialPK:   "BIGINT AUTO_INCREMENT PRIMARY KEY",
	},
	schema.PostgreSQLBackend: {
		backend:    schema.PostgreSQLBackend,
		driver:     "pgx",
		quote:      `"`,
		numbered:   true,
		connHint:   "Check that PostgreSQL is running. Connection format: host=localhost port=5432 user=postgres dbname=mydb",
		keyType:    "TEXT",
		blobType:   "BYTEA",
		textType:   "TEXT",
		bigintType: "BIGINT",
		intType:    "INT",
		timeType:   "TIMESTAMPTZ",
		serialPK:   "BIGSERIAL PRIMARY KEY",
	},
}

// dialectFor returns the dialect of a SQL backend.
func dialectFor(backend schema.DatabaseBackend) (dialect, error) {
	d, ok := dialects[backend]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
	return d, nil
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateTableName rejects names that cannot be used as bare SQL identifiers.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q: must start with a letter or underscore and contain only letters, digits and underscores", name)
	}
	return nil
}

// table quotes an identifier.
func (d dialect) table(name string) string {
	return d.quote + name + d.quote
}

// bind returns the n-th bind parameter, counting from 1.
func (d dialect) bind(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// binds returns a comma-separated list of n bind parameters.
func (d dialect) binds(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.bind(i + 1)
	}
	return strings.Join(parts, ", ")
}

// expand replaces the {key}, {blob}, {text}, {bigint}, {int}, {time} and {serial}
// column type markers of a DDL template.
func (d dialect) expand(ddl string) string {
	return strings.NewReplacer(
		"{key}", d.keyType,
		"{blob}", d.blobType,
		"{text}", d.textType,
		"{bigint}", d.bigintType,
		"{int}", d.intType,
		"{time}", d.timeType,
		"{serial}", d.serialPK,
	).Replace(ddl)
}

// upsert returns an insert statement that replaces the row with the same key.
func (d dialect) upsert(table, key string, cols ...string) string {
	all := append([]string{key}, cols...)
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.table(table), strings.Join(all, ", "), d.binds(len(all)))

	sets := make([]string, len(cols))
	switch d.backend {
	case schema.MySQLBackend:
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = new.%s", c, c)
		}
		return insert + " AS new ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	case schema.PostgreSQLBackend:
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
		}
		return insert + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET ", key) + strings.Join(sets, ", ")
	default:
		return strings.Replace(insert, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	}
}

// open connects to the database and verifies the connection.
// An empty SQLite connection string falls back to defaultPath.
func (d dialect) open(connStr, defaultPath string) (*sql.DB, error) {
	if d.backend == schema.SQLiteBackend && connStr == "" {
		connStr = defaultPath
	}
	db, err := sql.Open(d.driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w. %s", d.backend, err, d.connHint)
	}
	if d.backend == schema.SQLiteBackend {
		// a single connection avoids "database is locked" errors
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", d.backend, err, d.connHint)
	}
	return db, nil
}

// timeValue converts a time to the form stored by the backend.
func (d dialect) timeValue(t time.Time) any {
	if d.backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// sqlTime scans timestamps stored natively or as text.
type sqlTime struct {
	Time  time.Time
	Valid bool
}

// timeLayouts are the text forms a timestamp column may come back in.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05.999999999-07"}

// Scan implements sql.Scanner.
func (s *sqlTime) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		*s = sqlTime{}
		return nil
	case time.Time:
		*s = sqlTime{Time: v, Valid: true}
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", src)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			*s = sqlTime{Time: t, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", text)
}

// ptr returns a pointer to the time, or nil when it is NULL.
func (s sqlTime) ptr() *time.Time {
	if !s.Valid {
		return nil
	}
	t := s.Time
	return &t
}
