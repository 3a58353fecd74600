package storage

import (
	"context"
	"errors"
	"time"
)

// errEntryGone signals that an overdue entry vanished between the scan and
// the per-entry transaction, i.e. it was returned explicitly in the meantime.
var errEntryGone = errors.New("storage: issued entry already removed")

// CheckoutBook issues the titled book to the user in one transaction. The
// stock decrement is conditional on count > 0, so two concurrent checkouts of
// the last copy cannot both succeed.
// Returns ErrNotFound when the user is missing, and also when the book is
// missing or out of stock (merged signal).
func (s *Store) CheckoutBook(ctx context.Context, email, title string, issueDate, dueDate time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	var userID int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&userID); err != nil {
		return mapErr(err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET count = count - 1 WHERE title = ? AND count > 0`, title)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO issued_books (user_id, title, issue_date, due_date) VALUES (?, ?, ?, ?)`,
		userID, title, issueDate, dueDate); err != nil {
		return mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	s.bumpGeneration()
	return nil
}

// ReturnBook removes every issued entry matching the title from the user's
// list and increments the book's count by exactly one, matching the
// historical behaviour even when multiple entries match.
// Returns ErrNotFound when the user or the book is missing.
func (s *Store) ReturnBook(ctx context.Context, email, title string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	var userID int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&userID); err != nil {
		return mapErr(err)
	}
	var bookID int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM books WHERE title = ? LIMIT 1`, title).Scan(&bookID); err != nil {
		return mapErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM issued_books WHERE user_id = ? AND title = ?`, userID, title); err != nil {
		return mapErr(err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET count = count + 1 WHERE id = ?`, bookID); err != nil {
		return mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	s.bumpGeneration()
	return nil
}

// OverdueLoan is one issued entry whose due date has passed, joined with the
// borrower for notification purposes.
type OverdueLoan struct {
	Email    string
	Username string
	Title    string
	DueDate  time.Time
}

// CollectOverdue removes every issued entry due before now and restores its
// book to stock, one transaction per entry so a single failure does not stop
// the sweep. It returns the loans that were auto-returned. The sweep is
// best-effort and may race with an explicit return of the same entry.
func (s *Store) CollectOverdue(ctx context.Context, now time.Time) ([]OverdueLoan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.title, i.due_date, u.email, u.username
		FROM   issued_books i
		JOIN   users u ON u.id = i.user_id
		WHERE  i.due_date < ?
		ORDER  BY i.id`, now)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	type overdueRow struct {
		id   int
		loan OverdueLoan
	}
	var due []overdueRow
	for rows.Next() {
		var r overdueRow
		if err := rows.Scan(&r.id, &r.loan.Title, &r.loan.DueDate, &r.loan.Email, &r.loan.Username); err != nil {
			return nil, err
		}
		due = append(due, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	collected := []OverdueLoan{}
	for _, r := range due {
		if err := s.returnOverdueEntry(ctx, r.id, r.loan.Title); err != nil {
			if errors.Is(err, errEntryGone) {
				continue
			}
			return collected, err
		}
		collected = append(collected, r.loan)
	}
	if len(collected) > 0 {
		s.bumpGeneration()
	}
	return collected, nil
}

func (s *Store) returnOverdueEntry(ctx context.Context, entryID int, title string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM issued_books WHERE id = ?`, entryID)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errEntryGone
	}

	// The title may no longer resolve to a book; zero rows updated is fine.
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET count = count + 1 WHERE title = ?`, title); err != nil {
		return mapErr(err)
	}
	return mapErr(tx.Commit())
}
