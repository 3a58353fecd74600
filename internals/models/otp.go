package models

import "time"

// OtpRecord holds the pending-registration code for one email. A repeated
// request overwrites the record; successful verification deletes it.
type OtpRecord struct {
	Email     string    `json:"email" db:"email"`
	Code      string    `json:"otp" db:"otp"`
	ExpiresAt time.Time `json:"otpExpires" db:"expires_at"`
}
