package gutenberg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Book is one catalog entry in the metadata index.
type Book struct {
	ID       int
	Title    string
	Language string
	Authors  []string
	Subjects []string
}

// MetadataStore is a local SQLite index of Gutenberg catalog metadata.
type MetadataStore struct {
	db *sql.DB
}

// OpenMetadata opens (or creates) the metadata index at dbPath.
func OpenMetadata(dbPath string) (*MetadataStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open metadata index: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &MetadataStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *MetadataStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			book_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'en'
		)`,
		`CREATE TABLE IF NOT EXISTS book_authors (
			book_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (book_id, name),
			FOREIGN KEY (book_id) REFERENCES books(book_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS book_subjects (
			book_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (book_id, name),
			FOREIGN KEY (book_id) REFERENCES books(book_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_book_authors_name ON book_authors(name)`,
		`CREATE INDEX IF NOT EXISTS idx_book_subjects_name ON book_subjects(name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *MetadataStore) Close() error {
	return s.db.Close()
}

// UpsertBook inserts or replaces a catalog entry, including its author and
// subject rows.
func (s *MetadataStore) UpsertBook(ctx context.Context, book Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert book %d: %w", book.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO books (book_id, title, language) VALUES (?, ?, ?)
		 ON CONFLICT(book_id) DO UPDATE SET title = excluded.title, language = excluded.language`,
		book.ID, book.Title, book.Language,
	); err != nil {
		return fmt.Errorf("upsert book %d: %w", book.ID, err)
	}

	for table, values := range map[string][]string{
		"book_authors":  book.Authors,
		"book_subjects": book.Subjects,
	} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE book_id = ?", table), book.ID); err != nil {
			return fmt.Errorf("upsert book %d: %w", book.ID, err)
		}
		for _, value := range values {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("INSERT OR IGNORE INTO %s (book_id, name) VALUES (?, ?)", table),
				book.ID, value,
			); err != nil {
				return fmt.Errorf("upsert book %d: %w", book.ID, err)
			}
		}
	}

	return tx.Commit()
}

// TitlesFor returns the title(s) recorded for a book ID.
func (s *MetadataStore) TitlesFor(ctx context.Context, bookID int) ([]string, error) {
	return s.stringColumn(ctx, "SELECT title FROM books WHERE book_id = ?", bookID)
}

// AuthorsFor returns the authors recorded for a book ID.
func (s *MetadataStore) AuthorsFor(ctx context.Context, bookID int) ([]string, error) {
	return s.stringColumn(ctx, "SELECT name FROM book_authors WHERE book_id = ? ORDER BY name", bookID)
}

// SubjectsFor returns the subjects recorded for a book ID.
func (s *MetadataStore) SubjectsFor(ctx context.Context, bookID int) ([]string, error) {
	return s.stringColumn(ctx, "SELECT name FROM book_subjects WHERE book_id = ? ORDER BY name", bookID)
}

// LanguagesFor returns the language recorded for a book ID.
func (s *MetadataStore) LanguagesFor(ctx context.Context, bookID int) ([]string, error) {
	return s.stringColumn(ctx, "SELECT language FROM books WHERE book_id = ?", bookID)
}

func (s *MetadataStore) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Filter selects books by substring match on catalog fields. Empty fields
// match everything.
type Filter struct {
	Author   string
	Title    string
	Language string
	Subject  string
}

// Search returns the book IDs matching every non-empty filter field,
// ordered by ID.
func (s *MetadataStore) Search(ctx context.Context, f Filter) ([]int, error) {
	query := `SELECT DISTINCT b.book_id FROM books b
		LEFT JOIN book_authors a ON a.book_id = b.book_id
		LEFT JOIN book_subjects sub ON sub.book_id = b.book_id`

	var conds []string
	var args []any
	if f.Author != "" {
		conds = append(conds, "a.name LIKE ?")
		args = append(args, "%"+f.Author+"%")
	}
	if f.Title != "" {
		conds = append(conds, "b.title LIKE ?")
		args = append(args, "%"+f.Title+"%")
	}
	if f.Language != "" {
		conds = append(conds, "b.language = ?")
		args = append(args, f.Language)
	}
	if f.Subject != "" {
		conds = append(conds, "sub.name LIKE ?")
		args = append(args, "%"+f.Subject+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.book_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search metadata: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
