package models

import "time"

// Profile holds the optional public-facing fields attached to a user.
// Username is unique case-insensitively; an empty username means the
// profile is not publicly addressable.
type Profile struct {
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	Username     string    `json:"username,omitempty" dynamodbav:"username,omitempty"`
	Bio          string    `json:"bio,omitempty" dynamodbav:"bio,omitempty"`
	InstagramURL string    `json:"instagram_url,omitempty" dynamodbav:"instagram_url,omitempty"`
	LinkedinURL  string    `json:"linkedin_url,omitempty" dynamodbav:"linkedin_url,omitempty"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (p *Profile) GetPK() string {
	return "PROFILE#" + p.UserID
}

func (p *Profile) GetSK() string {
	return "METADATA"
}
