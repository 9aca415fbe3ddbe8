package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ymori/itemshelf/internal/model"
)

// schema creates the items table on first open.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	author     TEXT,
	image      TEXT,
	format     TEXT,
	point      INTEGER NOT NULL DEFAULT 0,
	user_id    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC, id DESC);
`

// SQLiteStore implements Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the SQLite database at
// path and ensures the schema exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

const itemColumns = "id, title, author, image, format, point, user_id, created_at"

// List returns all items from the store, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Search returns items whose title or author contains the keyword,
// matched case-insensitively, newest first.
func (s *SQLiteStore) Search(ctx context.Context, keyword string) ([]model.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items"+
			" WHERE LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(IFNULL(author, '')) LIKE ? ESCAPE '\\'"+
			" ORDER BY created_at DESC, id DESC",
		pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Get retrieves an item by its ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = ?", id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// Create adds a new item and returns it with a generated ID, zero
// point, and a creation timestamp.
func (s *SQLiteStore) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO items (title, author, image, format, point, user_id, created_at)"+
			" VALUES (?, ?, ?, ?, 0, ?, ?)",
		item.Title, item.Author, item.Image, item.Format,
		item.UserID, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create item: last insert id: %w", err)
	}

	return s.Get(ctx, id)
}

// UpdatePoint sets the rating of an existing item and returns the
// full updated row.
func (s *SQLiteStore) UpdatePoint(ctx context.Context, id int64, point int) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	if point < model.MinPoint || point > model.MaxPoint {
		return nil, model.ErrInvalidPoint
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET point = ? WHERE id = ?", point, id)
	if err != nil {
		return nil, fmt.Errorf("update point: %w", err)
	}

	if err := requireRowAffected(res); err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// UpdateField sets one of title/author/image/format on an existing
// item and returns the full updated row.
func (s *SQLiteStore) UpdateField(
	ctx context.Context,
	id int64,
	field string,
	value *string,
) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	if !model.UpdatableField(field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if field == model.FieldTitle && (value == nil || *value == "") {
		return nil, model.ErrEmptyTitle
	}

	// field is checked against the closed UpdatableField set above,
	// so interpolating the column name is safe.
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE items SET %s = ? WHERE id = ?", field), value, id)
	if err != nil {
		return nil, fmt.Errorf("update field: %w", err)
	}

	if err := requireRowAffected(res); err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes an item from the store by its ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return requireRowAffected(res)
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// requireRowAffected maps a zero-row write to ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanItem.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem reads one item row.
func scanItem(row scanner) (*model.Item, error) {
	var (
		item      model.Item
		createdAt string
	)

	err := row.Scan(&item.ID, &item.Title, &item.Author, &item.Image,
		&item.Format, &item.Point, &item.UserID, &createdAt)
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	item.CreatedAt = ts

	return &item, nil
}

// scanItems reads all item rows.
func scanItems(rows *sql.Rows) ([]model.Item, error) {
	items := make([]model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// escapeLike escapes LIKE wildcards in user-supplied keywords.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
