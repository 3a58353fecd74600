package storage

import (
	"context"

	"library-api/internals/models"
)

const (
	sqlInsertUser = `
		INSERT INTO users (username, email, password, favourite_book, favourite_author)
		VALUES (?, ?, ?, ?, ?)`

	sqlUserByEmail = `
		SELECT id, username, email, password, favourite_book, favourite_author
		FROM   users
		WHERE  email = ?
		LIMIT  1`

	sqlUserByCredentials = `
		SELECT id, username, email, password, favourite_book, favourite_author
		FROM   users
		WHERE  email = ? AND password = ?
		LIMIT  1`

	sqlIssuedByUser = `
		SELECT title, issue_date, due_date
		FROM   issued_books
		WHERE  user_id = ?
		ORDER  BY id`
)

// CreateUser inserts a new user with an empty issued list.
// Returns ErrDuplicate when the username or email is already taken.
func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, sqlInsertUser,
		u.Username, u.Email, u.Password, u.FavouriteBook, u.FavouriteAuthor)
	return mapErr(err)
}

// DeleteUserByEmail removes a user record if one exists. Re-registration
// deletes and recreates the record for an email, so a missing row is not an
// error.
func (s *Store) DeleteUserByEmail(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	return mapErr(err)
}

// GetUserByEmail returns the full profile including the issued-books list.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, sqlUserByEmail, email)
}

// GetUserByCredentials performs the plaintext-equality login lookup.
// Returns ErrNotFound when no record matches; the caller reports that as an
// invalid-credentials result, not a server error.
func (s *Store) GetUserByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	return s.getUser(ctx, sqlUserByCredentials, email, password)
}

func (s *Store) getUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&u.Id, &u.Username, &u.Email, &u.Password, &u.FavouriteBook, &u.FavouriteAuthor)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := s.db.QueryContext(ctx, sqlIssuedByUser, u.Id)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	u.BooksIssued = []models.IssuedBook{}
	for rows.Next() {
		var b models.IssuedBook
		if err := rows.Scan(&b.Title, &b.IssueDate, &b.DueDate); err != nil {
			return nil, err
		}
		u.BooksIssued = append(u.BooksIssued, b)
	}
	return u, rows.Err()
}
