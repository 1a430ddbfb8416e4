package models

import "time"

// OTPRecord is the single mutable slot per phone number. The code is
// stored bcrypt-hashed; CreatedAt anchors the request cooldown and
// ExpiresAt the verification window.
type OTPRecord struct {
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *OTPRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
