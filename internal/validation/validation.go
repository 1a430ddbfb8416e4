package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mehmaan/mehmaan/internal/apperr"
)

const (
	PhoneNumberLength = 11
	OTPCodeLength     = 4
)

var (
	phoneRegex    = regexp.MustCompile(`^09\d{9}$`)
	otpCodeRegex  = regexp.MustCompile(`^\d{4}$`)
	usernameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{2,31}$`)

	reservedUsernames = map[string]bool{
		"admin":  true,
		"api":    true,
		"www":    true,
		"mail":   true,
		"root":   true,
		"system": true,
	}
)

// Phone validates the local mobile format: exactly 11 digits starting
// with 09. Returns the trimmed value.
func Phone(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", apperr.New(apperr.KindValidation, "phone number is required")
	}
	if !phoneRegex.MatchString(value) {
		return "", apperr.New(apperr.KindValidation, "phone number must be 11 digits starting with 09")
	}
	return value, nil
}

// OTPCode validates a submitted code: exactly 4 numeric digits.
func OTPCode(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if !otpCodeRegex.MatchString(value) {
		return "", apperr.New(apperr.KindValidation, "OTP code must be exactly 4 digits")
	}
	return value, nil
}

func FirstName(raw string) (string, error) {
	return nameField(raw, "first name")
}

func LastName(raw string) (string, error) {
	return nameField(raw, "last name")
}

func nameField(raw, field string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", apperr.New(apperr.KindValidation, field+" cannot be empty")
	}
	if len(value) < 2 {
		return "", apperr.New(apperr.KindValidation, field+" must be at least 2 characters long")
	}
	if len(value) > 150 {
		return "", apperr.New(apperr.KindValidation, field+" cannot exceed 150 characters")
	}
	return value, nil
}

// Username normalizes to lower case before matching; usernames are
// unique case-insensitively. Allowed: letters, digits and hyphens,
// starting with a letter, no double or trailing hyphen, 3-32 chars.
func Username(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if !usernameRegex.MatchString(value) {
		return "", apperr.New(apperr.KindValidation, "username must be 3-32 characters of letters, digits and hyphens, starting with a letter")
	}
	if strings.Contains(value, "--") {
		return "", apperr.New(apperr.KindValidation, "username cannot contain consecutive hyphens")
	}
	if strings.HasSuffix(value, "-") {
		return "", apperr.New(apperr.KindValidation, "username cannot end with a hyphen")
	}
	if reservedUsernames[value] {
		return "", apperr.New(apperr.KindValidation, "this username is reserved")
	}
	return value, nil
}

// Bio caps the free-text profile field.
func Bio(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if len(value) > 500 {
		return "", apperr.New(apperr.KindValidation, "bio cannot exceed 500 characters")
	}
	return value, nil
}

// InstagramURL accepts an empty value or an https instagram.com link.
func InstagramURL(raw string) (string, error) {
	return socialURL(raw, "instagram.com", "instagram URL")
}

// LinkedinURL accepts an empty value or an https linkedin.com link.
func LinkedinURL(raw string) (string, error) {
	return socialURL(raw, "linkedin.com", "linkedin URL")
}

func socialURL(raw, host, field string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	if len(value) > 200 {
		return "", apperr.New(apperr.KindValidation, field+" cannot exceed 200 characters")
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme != "https" {
		return "", apperr.New(apperr.KindValidation, field+" must be an https link")
	}
	hostname := u.Hostname()
	if hostname != host && !strings.HasSuffix(hostname, "."+host) {
		return "", apperr.New(apperr.KindValidation, field+" must point to "+host)
	}
	return value, nil
}

// MaskPhone hides the middle digits for log fields. Never log a full
// phone number.
func MaskPhone(phone string) string {
	if len(phone) != PhoneNumberLength {
		return "***"
	}
	return phone[:4] + "****" + phone[8:]
}
