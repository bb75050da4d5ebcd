package spacetraveling

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Page is one generated file recorded in the build manifest.
type Page struct {
	Slug        string
	Path        string // relative to the output directory
	Hash        string // sha256 of the rendered HTML
	Banner      string // optimized banner relative to the output directory, if any
	BuildID     string
	GeneratedAt time.Time
}

// BuildRecord summarizes one completed or failed build.
type BuildRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Written    int
	Pruned     int
	Err        string
}

// Store wraps a SQLite database holding the build manifest: which pages were
// generated, from which content, by which build.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the server read the manifest while a rebuild writes it; the
	// busy timeout makes concurrent page writers wait instead of failing.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    slug TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    hash TEXT NOT NULL,
    banner TEXT NOT NULL DEFAULT '',
    build_id TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS builds (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    pages INTEGER NOT NULL,
    written INTEGER NOT NULL,
    pruned INTEGER NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`ALTER TABLE pages ADD COLUMN banner TEXT NOT NULL DEFAULT '';`); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return nil
		}
		return err
	}
	return nil
}

// GetPage returns the manifest entry for slug, or sql.ErrNoRows.
func (s *Store) GetPage(slug string) (Page, error) {
	var path, hash, banner, buildID, generatedAt string
	err := s.db.QueryRow(`SELECT path, hash, banner, build_id, generated_at FROM pages WHERE slug = ?`, slug).
		Scan(&path, &hash, &banner, &buildID, &generatedAt)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Slug:        slug,
		Path:        path,
		Hash:        hash,
		Banner:      banner,
		BuildID:     buildID,
		GeneratedAt: parseTime(generatedAt),
	}, nil
}

// ListPages returns every manifest entry ordered by slug.
func (s *Store) ListPages() ([]Page, error) {
	rows, err := s.db.Query(`SELECT slug, path, hash, banner, build_id, generated_at FROM pages ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var slug, path, hash, banner, buildID, generatedAt string
		if err := rows.Scan(&slug, &path, &hash, &banner, &buildID, &generatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, Page{
			Slug:        slug,
			Path:        path,
			Hash:        hash,
			Banner:      banner,
			BuildID:     buildID,
			GeneratedAt: parseTime(generatedAt),
		})
	}
	return pages, rows.Err()
}

// SavePage upserts a manifest entry.
func (s *Store) SavePage(p Page) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO pages (slug, path, hash, banner, build_id, generated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Path, p.Hash, p.Banner, p.BuildID, formatTime(p.GeneratedAt))
	return err
}

// DeletePage removes a manifest entry by slug.
func (s *Store) DeletePage(slug string) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE slug = ?`, slug)
	return err
}

// SaveBuild records the outcome of a build.
func (s *Store) SaveBuild(b BuildRecord) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO builds (id, started_at, finished_at, pages, written, pruned, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, formatTime(b.StartedAt), formatTime(b.FinishedAt), b.Pages, b.Written, b.Pruned, b.Err)
	return err
}

// LatestBuild returns the most recently started build, or sql.ErrNoRows.
func (s *Store) LatestBuild() (BuildRecord, error) {
	var b BuildRecord
	var started, finished string
	err := s.db.QueryRow(`SELECT id, started_at, finished_at, pages, written, pruned, error FROM builds ORDER BY started_at DESC LIMIT 1`).
		Scan(&b.ID, &started, &finished, &b.Pages, &b.Written, &b.Pruned, &b.Err)
	if err != nil {
		return BuildRecord{}, err
	}
	b.StartedAt = parseTime(started)
	b.FinishedAt = parseTime(finished)
	return b, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
