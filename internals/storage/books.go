package storage

import (
	"context"
	"strings"

	"library-api/internals/models"
)

const bookColumns = `id, title, description, author, genre, department, count,
	vendor, vendor_id, publisher, publisher_id`

// CreateBook inserts a catalog record. Used by the import tool and tests;
// the HTTP surface never creates books.
func (s *Store) CreateBook(ctx context.Context, b models.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (title, description, author, genre, department, count,
			vendor, vendor_id, publisher, publisher_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Title, b.Description, b.Author, b.Genre, b.Department, b.Count,
		b.Vendor, b.VendorId, b.Publisher, b.PublisherId)
	if err != nil {
		return mapErr(err)
	}
	s.bumpGeneration()
	return nil
}

// GetBookByTitle performs the exact-title lookup.
func (s *Store) GetBookByTitle(ctx context.Context, title string) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title = ? LIMIT 1`, title)
	return scanBook(row)
}

// SearchBooks matches the title substring case-insensitively.
// An empty result is returned as an empty slice, not an error.
func (s *Store) SearchBooks(ctx context.Context, title string) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE instr(lower(title), lower(?)) > 0 ORDER BY id`,
		title)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// NewArrivals returns the most recently added books, newest first.
func (s *Store) NewArrivals(ctx context.Context, limit int) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// Recommendations fans out over the issued titles: for each issued book it
// queries other books sharing author, genre, department or a keyword of the
// title, excluding everything already issued, and unions the results into a
// deduplicated set capped at limit. Ordering beyond that is whatever the
// queries return first.
func (s *Store) Recommendations(ctx context.Context, issuedTitles []string, limit int) ([]models.Book, error) {
	if len(issuedTitles) == 0 {
		return []models.Book{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(issuedTitles)), ",")
	inArgs := make([]any, len(issuedTitles))
	for i, t := range issuedTitles {
		inArgs[i] = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title IN (`+placeholders+`)`, inArgs...)
	if err != nil {
		return nil, mapErr(err)
	}
	sources, err := collectBooks(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	recs := []models.Book{}
	seen := map[string]bool{}
	for _, t := range issuedTitles {
		seen[t] = true
	}

	for _, src := range sources {
		remaining := limit - len(recs)
		if remaining <= 0 {
			break
		}

		conds := []string{"author = ?", "genre = ?", "department = ?"}
		args := []any{src.Author, src.Genre, src.Department}
		for _, kw := range strings.Fields(src.Title) {
			conds = append(conds, "instr(lower(title), lower(?)) > 0")
			args = append(args, kw)
		}

		query := `SELECT ` + bookColumns + ` FROM books WHERE (` +
			strings.Join(conds, " OR ") + `) AND title NOT IN (` + placeholders + `) LIMIT ?`
		args = append(args, inArgs...)
		args = append(args, remaining)

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, mapErr(err)
		}
		matches, err := collectBooks(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			if len(recs) >= limit {
				break
			}
			if seen[m.Title] {
				continue
			}
			seen[m.Title] = true
			recs = append(recs, m)
		}
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	b := &models.Book{}
	err := row.Scan(&b.Id, &b.Title, &b.Description, &b.Author, &b.Genre,
		&b.Department, &b.Count, &b.Vendor, &b.VendorId, &b.Publisher, &b.PublisherId)
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func collectBooks(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]models.Book, error) {
	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}
