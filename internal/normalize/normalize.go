// Package normalize canonicalizes contact fields so identity matching is
// insensitive to case, whitespace, and phone formatting.
package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
)

// DefaultRegion is assumed when a phone number has no country code.
const DefaultRegion = "US"

var folder = cases.Fold()

// Email lowercases and trims an email address. Empty in, empty out.
func Email(email string) string {
	return folder.String(strings.TrimSpace(email))
}

// Username lowercases and trims a platform handle, dropping a leading @.
func Username(username string) string {
	u := strings.TrimSpace(username)
	u = strings.TrimPrefix(u, "@")
	return folder.String(u)
}

// PhoneDigits strips everything but digits from a phone number.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// PhoneKey returns the last-10-digit matching key for a phone number, or ""
// when the number has fewer than 10 digits. Short numbers never participate
// in identity matching: seven digits cannot distinguish area codes.
func PhoneKey(phone string) string {
	digits := PhoneDigits(phone)
	if len(digits) < 10 {
		return ""
	}
	return digits[len(digits)-10:]
}

// PhoneE164 formats a phone number to E.164 for storage and display. Falls
// back to the trimmed input when the number does not parse or validate;
// matching never depends on this succeeding.
func PhoneE164(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}
	num, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
