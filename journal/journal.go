// Package journal keeps a log of the requests handled by the proxy in SQLite.
package journal

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/pkg/errors"
)

// MemoryDSN opens a shared in-memory database.
const MemoryDSN = "file::memory:?cache=shared"

// Entry is one handled client connection.
type Entry struct {
	Time        time.Time     `json:"time"`
	Client      string        `json:"client"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	Status      int           `json:"status"`
	CacheStatus string        `json:"cacheStatus"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

type Journal struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// Open opens (and creates if needed) the journal at the given SQLite data source.
// "memory" or an empty name opens an in-memory journal.
func Open(dsn string) (*Journal, error) {
	if dsn == "" || dsn == "memory" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening journal %s", dsn)
	}
	// a single connection keeps in-memory databases alive and serializes writers
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time INTEGER,
		client TEXT,
		method TEXT,
		url TEXT,
		status INTEGER,
		cache_status TEXT,
		bytes INTEGER,
		duration INTEGER,
		error TEXT
	)`)
	if err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "creating requests table")
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS url_idx ON requests (url)")
	if err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "creating url index")
	}
	return &Journal{
		db:         db,
		writeMutex: &sync.Mutex{},
	}, nil
}

// Record appends an entry.
func (j *Journal) Record(e Entry) error {
	j.writeMutex.Lock()
	defer j.writeMutex.Unlock()
	_, err := j.db.Exec(`INSERT INTO requests
		(time, client, method, url, status, cache_status, bytes, duration, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UnixNano(), e.Client, e.Method, e.URL, e.Status, e.CacheStatus,
		e.Bytes, int64(e.Duration), e.Error)
	return errors.WithMessage(err, "inserting journal entry")
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(`SELECT
		time, client, method, url, status, cache_status, bytes, duration, error
		FROM requests ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WithMessage(err, "querying journal")
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForURL returns up to limit entries for the given URL, newest first.
func (j *Journal) ForURL(url string, limit int) ([]Entry, error) {
	rows, err := j.db.Query(`SELECT
		time, client, method, url, status, cache_status, bytes, duration, error
		FROM requests WHERE url = ? ORDER BY id DESC LIMIT ?`, url, limit)
	if err != nil {
		return nil, errors.WithMessage(err, "querying journal")
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var ts, dur int64
		if err := rows.Scan(&ts, &e.Client, &e.Method, &e.URL, &e.Status,
			&e.CacheStatus, &e.Bytes, &dur, &e.Error); err != nil {
			return entries, err
		}
		e.Time = time.Unix(0, ts)
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
