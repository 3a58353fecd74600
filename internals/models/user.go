package models

import "time"

// IssuedBook is one entry in a user's borrowed list. Books are referenced by
// title for compatibility with the catalog lookups; the row id in storage is
// the real identity.
type IssuedBook struct {
	Title     string    `json:"title" db:"title"`
	IssueDate time.Time `json:"issue_date" db:"issue_date"`
	DueDate   time.Time `json:"due_date" db:"due_date"`
}

type User struct {
	Id              int          `json:"-" db:"id"`
	Username        string       `json:"username" db:"username"`
	Email           string       `json:"email" db:"email"`
	Password        string       `json:"-" db:"password"` // stored and compared as plain text
	FavouriteBook   string       `json:"favourite_book" db:"favourite_book"`
	FavouriteAuthor string       `json:"favourite_author" db:"favourite_author"`
	BooksIssued     []IssuedBook `json:"books_issued"`
}
