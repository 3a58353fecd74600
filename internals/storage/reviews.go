package storage

import (
	"context"

	"library-api/internals/models"
)

// CreateReview appends a review record. No rating-range or purchase check;
// reviews are free-form by design of the product.
func (s *Store) CreateReview(ctx context.Context, r models.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (email, title, review, rating, review_date)
		VALUES (?, ?, ?, ?, ?)`,
		r.Email, r.Title, r.Review, r.Rating, r.ReviewDate)
	return mapErr(err)
}

// ReviewsByTitle returns all reviews sharing the book title, oldest first.
func (s *Store) ReviewsByTitle(ctx context.Context, title string) ([]models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, title, review, rating, review_date
		FROM   reviews
		WHERE  title = ?
		ORDER  BY id`, title)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.Id, &r.Email, &r.Title, &r.Review, &r.Rating, &r.ReviewDate); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
