package storage

import (
	"context"
	"time"

	"library-api/internals/models"
)

// UpsertOtp stores the pending code for an email, superseding any earlier
// code for the same address.
func (s *Store) UpsertOtp(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO otps (email, otp, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET otp = excluded.otp, expires_at = excluded.expires_at`,
		email, code, expiresAt)
	return mapErr(err)
}

// LookupOtp finds the record matching both email and code.
// Expiry is the caller's decision; the record is returned either way.
func (s *Store) LookupOtp(ctx context.Context, email, code string) (*models.OtpRecord, error) {
	rec := &models.OtpRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT email, otp, expires_at FROM otps WHERE email = ? AND otp = ?`, email, code).
		Scan(&rec.Email, &rec.Code, &rec.ExpiresAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return rec, nil
}

// DeleteOtp removes the record after successful verification so the code can
// never be redeemed twice.
func (s *Store) DeleteOtp(ctx context.Context, email, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM otps WHERE email = ? AND otp = ?`, email, code)
	return mapErr(err)
}
