package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameMinLen     = 4
	nameMaxLen     = 100
	phoneMinDigits = 8
	phoneMaxDigits = 15
	emailMaxLen    = 254
	localPartMax   = 64
)

var (
	phoneCharsRe = regexp.MustCompile(`^[\d\s+\-()]+$`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Latvian letters accepted in names besides ASCII letters.
const latvianLetters = "āčēģīķļņšūžĀČĒĢĪĶĻŅŠŪŽ"

// ValidateName returns an empty string when name is acceptable, otherwise the error message.
func ValidateName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required"
	}
	n := utf8.RuneCountInString(name)
	if n < nameMinLen {
		return "Name must be at least 4 characters"
	}
	if n > nameMaxLen {
		return "Name must be at most 100 characters"
	}
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
		case strings.ContainsRune(latvianLetters, r):
		case r == ' ' || r == '-' || r == '\'':
		default:
			return "Name may only contain letters, spaces, hyphens and apostrophes"
		}
	}
	return ""
}

// ValidatePhone accepts digits, spaces, '+', '-' and parentheses with 8 to 15 digits in total.
func ValidatePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "Phone is required"
	}
	if !phoneCharsRe.MatchString(phone) {
		return "Phone may only contain digits, spaces, +, - and parentheses"
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < phoneMinDigits || digits > phoneMaxDigits {
		return "Phone must have between 8 and 15 digits"
	}
	return ""
}

// ValidateEmail applies the length limits, the dot rules and the address pattern.
func ValidateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	if len(email) > emailMaxLen {
		return "Email is too long"
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "Invalid email format"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) > localPartMax {
		return "Email local part is too long"
	}
	if strings.Contains(email, "..") {
		return "Email must not contain consecutive dots"
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") ||
		strings.HasPrefix(local, "-") || strings.HasSuffix(local, "-") ||
		strings.HasPrefix(domain, ".") || strings.HasPrefix(domain, "-") ||
		strings.HasSuffix(domain, ".") || strings.HasSuffix(domain, "-") {
		return "Email parts must not start or end with a dot or hyphen"
	}
	if !emailRe.MatchString(email) {
		return "Invalid email format"
	}
	return ""
}

// Contact checks the three contact fields together and collects one message per field.
func Contact(name, phone, email string) FieldErrors {
	errs := FieldErrors{}
	errs.Add("name", ValidateName(name))
	errs.Add("phone", ValidatePhone(phone))
	errs.Add("email", ValidateEmail(email))
	return errs.OrNil()
}
