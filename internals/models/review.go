package models

import "time"

// Review is append-only and tied to a book by title match, not a foreign key.
type Review struct {
	Id         int       `json:"-" db:"id"`
	Email      string    `json:"email" db:"email"`
	Title      string    `json:"title" db:"title"`
	Review     string    `json:"review" db:"review"`
	Rating     int       `json:"rating" db:"rating"`
	ReviewDate time.Time `json:"review_date" db:"review_date"`
}
