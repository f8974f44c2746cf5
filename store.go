package blogpanel

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides CRUD plus cursor-seekable
// listing for blog records.
type Store struct {
	db *sql.DB

	// now stamps created_at/updated_at; overridable in tests.
	now func() time.Time
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
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction; larger cache and mmap reduce disk I/O.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
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
CREATE TABLE IF NOT EXISTS blog_contents (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    publish INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '',
    cover_image_url TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blog_contents_updated ON blog_contents (updated_at DESC, id DESC);
`)
	return err
}

const recordColumns = `id, title, description, content, publish, tags, cover_image_url, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (BlogRecord, error) {
	var r BlogRecord
	var publish int
	var tags string
	var created, updated int64
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Content, &publish, &tags, &r.CoverImageURL, &created, &updated); err != nil {
		return BlogRecord{}, err
	}
	r.Publish = publish == 1
	r.Tags = ParseTags(tags)
	r.CreatedAt = time.Unix(0, created).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return r, nil
}

// Create inserts a new record with a server-assigned id and identical
// created_at/updated_at stamps, and returns the stored record.
func (s *Store) Create(r BlogRecord) (BlogRecord, error) {
	r.ID = uuid.NewString()
	now := s.now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := s.db.Exec(
		`INSERT INTO blog_contents (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.Content, boolInt(r.Publish), joinTags(r.Tags),
		r.CoverImageURL, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return BlogRecord{}, err
	}
	r.Tags = ParseTags(joinTags(r.Tags))
	return r, nil
}

// RecordUpdate carries a partial mutation; nil fields are left untouched.
type RecordUpdate struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Content       *string  `json:"content"`
	Publish       *bool    `json:"publish"`
	Tags          []string `json:"tags"`
	CoverImageURL *string  `json:"cover_image_url"`
}

// Update applies a partial mutation and rewrites updated_at. The created_at
// stamp is never touched, so updated_at >= created_at holds by construction.
func (s *Store) Update(id string, upd RecordUpdate) (BlogRecord, error) {
	r, err := s.Get(id)
	if err != nil {
		return BlogRecord{}, err
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.Content != nil {
		r.Content = *upd.Content
	}
	if upd.Publish != nil {
		r.Publish = *upd.Publish
	}
	if upd.Tags != nil {
		r.Tags = upd.Tags
	}
	if upd.CoverImageURL != nil {
		r.CoverImageURL = *upd.CoverImageURL
	}
	r.UpdatedAt = s.now().UTC()
	_, err = s.db.Exec(
		`UPDATE blog_contents SET title = ?, description = ?, content = ?, publish = ?, tags = ?, cover_image_url = ?, updated_at = ? WHERE id = ?`,
		r.Title, r.Description, r.Content, boolInt(r.Publish), joinTags(r.Tags),
		r.CoverImageURL, r.UpdatedAt.UnixNano(), id,
	)
	if err != nil {
		return BlogRecord{}, err
	}
	r.Tags = ParseTags(joinTags(r.Tags))
	return r, nil
}

// Get returns a single record by id regardless of publish status.
func (s *Store) Get(id string) (BlogRecord, error) {
	row := s.db.QueryRow(`SELECT `+recordColumns+` FROM blog_contents WHERE id = ?`, id)
	return scanRecord(row)
}

// ListPage returns one page of records ordered by updated_at descending,
// starting strictly after the cursor position when one is given. It requests
// pageSize+1 rows so HasMore reflects whether an extra record existed.
func (s *Store) ListPage(pageSize int, cursor string) (Page, error) {
	var rows *sql.Rows
	var err error
	if cursor == "" {
		rows, err = s.db.Query(
			`SELECT `+recordColumns+` FROM blog_contents ORDER BY updated_at DESC, id DESC LIMIT ?`,
			pageSize+1,
		)
	} else {
		var pos cursorPos
		pos, err = decodeCursor(cursor)
		if err != nil {
			return Page{}, err
		}
		rows, err = s.db.Query(
			`SELECT `+recordColumns+` FROM blog_contents
			 WHERE updated_at < ? OR (updated_at = ? AND id < ?)
			 ORDER BY updated_at DESC, id DESC LIMIT ?`,
			pos.UpdatedAt, pos.UpdatedAt, pos.ID, pageSize+1,
		)
	}
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var items []BlogRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return Page{}, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	hasMore := len(items) > pageSize
	if hasMore {
		items = items[:pageSize]
	}
	page := Page{Items: items, HasMore: hasMore}
	if len(items) > 0 {
		last := items[len(items)-1]
		page.Cursor = encodeCursor(cursorPos{UpdatedAt: last.UpdatedAt.UnixNano(), ID: last.ID})
	}
	return page, nil
}

// ListPublished returns published records only, newest first.
func (s *Store) ListPublished() ([]BlogRecord, error) {
	rows, err := s.db.Query(`SELECT ` + recordColumns + ` FROM blog_contents WHERE publish = 1 ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []BlogRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// joinTags stores tags as a comma-delimited, lowercase string (",go,web,") so
// exact-tag matching stays possible in SQL.
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		return ""
	}
	return "," + strings.Join(normalized, ",") + ","
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
