package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"   // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/huangsam/treemetrics/internal/contract"
	"github.com/huangsam/treemetrics/schema"
)

// cacheTableDDL creates a key/value table with a version and a unix timestamp per entry.
const cacheTableDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		cache_key {key} PRIMARY KEY,
		cache_value {blob} NOT NULL,
		cache_version {int} NOT NULL,
		cache_timestamp {bigint} NOT NULL
	)`

// SQLCacheStore is a CacheStore kept in one table of a SQL database.
// A store without a database is the disabled cache: reads miss and writes are dropped.
type SQLCacheStore struct {
	db      *sql.DB
	d       dialect
	table   string
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.CacheStore = &SQLCacheStore{} // Compile-time check

// NewCacheStore opens the cache table on the backend, creating it when missing.
func NewCacheStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return &SQLCacheStore{table: tableName, backend: backend}, nil
	}

	d, err := dialectFor(backend)
	if err != nil {
		return nil, err
	}
	db, err := d.open(connStr, contract.GetCacheDBFilePath())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(fmt.Sprintf(d.expand(cacheTableDDL), d.table(tableName))); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	return &SQLCacheStore{db: db, d: d, table: tableName, backend: backend, connStr: connStr}, nil
}

// Get retrieves a value with its version and timestamp. A miss is sql.ErrNoRows.
func (s *SQLCacheStore) Get(key string) ([]byte, int, int64, error) {
	if s.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}
	query := fmt.Sprintf(`SELECT cache_value, cache_version, cache_timestamp FROM %s WHERE cache_key = %s`, s.d.table(s.table), s.d.bind(1))

	var value []byte
	var version int
	var ts int64
	if err := s.db.QueryRow(query, key).Scan(&value, &version, &ts); err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces an entry.
func (s *SQLCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	if s.db == nil {
		return nil
	}
	query := s.d.upsert(s.table, "cache_key", "cache_value", "cache_version", "cache_timestamp")
	_, err := s.db.Exec(query, key, value, version, timestamp)
	return err
}

// Close closes the underlying DB connection.
func (s *SQLCacheStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStatus reports the entry count, entry age range and table size of the cache.
func (s *SQLCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	var newest, oldest sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(*), MAX(cache_timestamp), MIN(cache_timestamp) FROM %s", s.d.table(s.table))
	if err := s.db.QueryRow(query).Scan(&status.TotalEntries, &newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to read cache statistics: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}
	status.LastEntryTime = time.Unix(newest.Int64, 0)
	status.OldestEntryTime = time.Unix(oldest.Int64, 0)
	status.TableSizeBytes = s.tableSize(status.TotalEntries)
	return status, nil
}

// tableSize asks the backend for the size of the cache table, falling back to
// a rough per-entry estimate.
func (s *SQLCacheStore) tableSize(entries int) int64 {
	estimate := int64(entries) * 1000

	var query string
	var args []any
	switch s.backend {
	case schema.SQLiteBackend:
		query = "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(s.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		query = "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		args = []any{cfg.DBName, s.table}
	case schema.PostgreSQLBackend:
		query = "SELECT pg_total_relation_size($1)"
		args = []any{s.table}
	default:
		return estimate
	}

	var size int64
	if err := s.db.QueryRow(query, args...).Scan(&size); err != nil {
		return estimate
	}
	return size
}
