package cookies

import (
	"fmt"
	"time"
)

// Status summarizes a cookie file
type Status string

const (
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusInvalid Status = "invalid"
)

// ValidationResult contains the result of cookie validation
type ValidationResult struct {
	Status    Status
	Message   string
	ExpiresAt time.Time // zero when only session cookies are present
}

// Usable is false only when yt-dlp cannot authenticate with the file at all
func (r ValidationResult) Usable() bool {
	return r.Status == StatusValid
}

// ValidateFile parses path and checks expiration timestamps against now
func ValidateFile(path string, now time.Time) ValidationResult {
	cookies, err := ParseFile(path)
	if err != nil {
		return ValidationResult{
			Status:  StatusInvalid,
			Message: fmt.Sprintf("failed to parse cookie file: %v", err),
		}
	}
	return ValidateExpiration(cookies, now)
}

// ValidateExpiration reports expired when every persistent cookie has expired
func ValidateExpiration(cookies []NetscapeCookie, now time.Time) ValidationResult {
	if len(cookies) == 0 {
		return ValidationResult{Status: StatusInvalid, Message: "no cookies found"}
	}

	expired, persistent := 0, 0
	for _, c := range cookies {
		if c.Session() {
			continue
		}
		persistent++
		if c.Expiration < now.Unix() {
			expired++
		}
	}

	expiresAt := EarliestExpiration(cookies)
	switch {
	case persistent > 0 && expired == persistent:
		return ValidationResult{
			Status:    StatusExpired,
			Message:   fmt.Sprintf("all %d cookies expired", persistent),
			ExpiresAt: expiresAt,
		}
	case expired > 0:
		return ValidationResult{
			Status:    StatusValid,
			Message:   fmt.Sprintf("%d of %d cookies expired", expired, persistent),
			ExpiresAt: expiresAt,
		}
	case expiresAt.IsZero():
		return ValidationResult{
			Status:  StatusValid,
			Message: fmt.Sprintf("%d session cookies", len(cookies)),
		}
	default:
		return ValidationResult{
			Status:    StatusValid,
			Message:   fmt.Sprintf("all %d cookies valid, expires %s", len(cookies), expiresAt.Format("2006-01-02")),
			ExpiresAt: expiresAt,
		}
	}
}
