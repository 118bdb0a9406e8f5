package device

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	_ "modernc.org/sqlite"
)

// ---------------------------------------------------------------------------
// SQLiteStorage: a whole file system in one database file
// ---------------------------------------------------------------------------

// SQLiteStorage keeps files and directories as rows of a single SQLite
// database, the way a small device keeps a flash file system in one image.
// The root directory always exists.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLiteStorage opens (creating if needed) the database at dsn. Use
// ":memory:" for a throwaway file system.
func OpenSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises access.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		path   TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		is_dir INTEGER NOT NULL,
		data   BLOB
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

func (s *SQLiteStorage) kind(p string) (exists, isDir bool) {
	p = cleanPath(p)
	if p == "/" {
		return true, true
	}
	var d int
	err := s.db.QueryRow(`SELECT is_dir FROM entries WHERE path = ?`, p).Scan(&d)
	if err != nil {
		return false, false
	}
	return true, d != 0
}

func (s *SQLiteStorage) Open(p string) (Stream, error) {
	p = cleanPath(p)
	exists, isDir := s.kind(p)
	if isDir {
		return nil, ErrExists
	}
	var data []byte
	if exists {
		if err := s.db.QueryRow(`SELECT data FROM entries WHERE path = ?`, p).Scan(&data); err != nil {
			return nil, err
		}
	} else {
		if !s.DirExists(path.Dir(p)) {
			return nil, ErrNotFound
		}
		_, err := s.db.Exec(`INSERT INTO entries (path, parent, is_dir, data) VALUES (?, ?, 0, ?)`,
			p, path.Dir(p), []byte{})
		if err != nil {
			return nil, translateSQL(err)
		}
	}
	b := &memBacking{data: data}
	b.persist = func(content []byte) error {
		_, err := s.db.Exec(`UPDATE entries SET data = ? WHERE path = ?`, content, p)
		return translateSQL(err)
	}
	return newFileStream(p, b), nil
}

func (s *SQLiteStorage) FileExists(p string) bool {
	exists, isDir := s.kind(p)
	return exists && !isDir
}

func (s *SQLiteStorage) DirExists(p string) bool {
	exists, isDir := s.kind(p)
	return exists && isDir
}

func (s *SQLiteStorage) FileDelete(p string) error {
	if !s.FileExists(p) {
		return ErrNotFound
	}
	_, err := s.db.Exec(`DELETE FROM entries WHERE path = ?`, cleanPath(p))
	return translateSQL(err)
}

func (s *SQLiteStorage) DirCreate(p string) error {
	p = cleanPath(p)
	if exists, _ := s.kind(p); exists {
		return ErrExists
	}
	if !s.DirExists(path.Dir(p)) {
		return ErrNotFound
	}
	_, err := s.db.Exec(`INSERT INTO entries (path, parent, is_dir) VALUES (?, ?, 1)`, p, path.Dir(p))
	return translateSQL(err)
}

func (s *SQLiteStorage) DirDelete(p string) error {
	p = cleanPath(p)
	if p == "/" || !s.DirExists(p) {
		return ErrNotFound
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE parent = ?`, p).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrNotEmpty
	}
	_, err := s.db.Exec(`DELETE FROM entries WHERE path = ?`, p)
	return translateSQL(err)
}

func (s *SQLiteStorage) Rename(from, to string) error {
	from, to = cleanPath(from), cleanPath(to)
	exists, isDir := s.kind(from)
	if !exists || from == "/" {
		return ErrNotFound
	}
	if e, _ := s.kind(to); e {
		return ErrExists
	}
	if !s.DirExists(path.Dir(to)) {
		return ErrNotFound
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE entries SET path = ?, parent = ? WHERE path = ?`, to, path.Dir(to), from); err != nil {
		return translateSQL(err)
	}
	if isDir {
		rows, err := tx.Query(`SELECT path FROM entries WHERE path LIKE ? ESCAPE '\'`, likePrefix(from))
		if err != nil {
			return err
		}
		var children []string
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				rows.Close()
				return err
			}
			children = append(children, c)
		}
		rows.Close()
		for _, c := range children {
			moved := to + strings.TrimPrefix(c, from)
			if _, err := tx.Exec(`UPDATE entries SET path = ?, parent = ? WHERE path = ?`, moved, path.Dir(moved), c); err != nil {
				return translateSQL(err)
			}
		}
	}
	return tx.Commit()
}

func likePrefix(dir string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(dir) + "/%"
}

func (s *SQLiteStorage) FileSize(p string) (int64, error) {
	if !s.FileExists(p) {
		return 0, ErrNotFound
	}
	var n int64
	err := s.db.QueryRow(`SELECT length(data) FROM entries WHERE path = ?`, cleanPath(p)).Scan(&n)
	return n, err
}

func (s *SQLiteStorage) ListDirectory(p string, fn func(Entry) bool, filter EntryKind) error {
	p = cleanPath(p)
	if !s.DirExists(p) {
		return ErrNotFound
	}
	rows, err := s.db.Query(`SELECT path, is_dir FROM entries WHERE parent = ?`, p)
	if err != nil {
		return err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var full string
		var d int
		if err := rows.Scan(&full, &d); err != nil {
			return err
		}
		entries = append(entries, Entry{Name: path.Base(full), IsDir: d != 0})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return emit(entries, fn, filter)
}

func translateSQL(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "database or disk is full") {
		return ErrDiskFull
	}
	return err
}
