package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field limits.
const (
	MaxEmailLength    = 254
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MinNameLength     = 2
	MaxNameLength     = 50
	MinAge            = 13
	MaxAge            = 120
	MinPhoneDigits    = 10
	MaxPhoneDigits    = 15

	// DateLayout is the wire format of date_of_birth.
	DateLayout = "2006-01-02"
)

// emailPattern is a simplified RFC 5322 address.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_\x60{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// namePattern allows ASCII letters, whitespace, hyphens and apostrophes.
var namePattern = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)

// commonDomainTypos maps misspelled mail domains to the intended one.
var commonDomainTypos = map[string]string{
	"gmial.com":  "gmail.com",
	"gmai.com":   "gmail.com",
	"yahooo.com": "yahoo.com",
	"outlok.com": "outlook.com",
}

// CheckEmail returns a user-facing message when email is unacceptable, or "".
func CheckEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if len(email) > MaxEmailLength {
		return "Email is too long"
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email address"
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if fixed, ok := commonDomainTypos[domain]; ok {
		return fmt.Sprintf("Did you mean %s?", strings.Replace(email, domain, fixed, 1))
	}
	return ""
}

// CheckPassword enforces the password policy for new passwords.
func CheckPassword(password string) string {
	if password == "" {
		return "Password is required"
	}

	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Sprintf("Password is too long (max %d characters)", MaxPasswordLength)
	}

	classes := classify(password)
	switch {
	case !classes.lower:
		return "Password must contain at least one lowercase letter"
	case !classes.upper:
		return "Password must contain at least one uppercase letter"
	case !classes.digit:
		return "Password must contain at least one number"
	case !classes.special:
		return "Password must contain at least one special character"
	}

	if PasswordStrength(password).Score < 3 {
		return "Password is too weak. Please make it stronger."
	}
	return ""
}

// CheckName validates a person name; label prefixes the message ("First name").
func CheckName(name, label string) string {
	if name == "" {
		return label + " is required"
	}
	n := utf8.RuneCountInString(name)
	if n < MinNameLength {
		return fmt.Sprintf("%s must be at least %d characters", label, MinNameLength)
	}
	if n > MaxNameLength {
		return fmt.Sprintf("%s must be less than %d characters", label, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return label + " can only contain letters, spaces, hyphens, and apostrophes"
	}
	return ""
}

// CheckDateOfBirth validates a YYYY-MM-DD birth date against now.
// Age is the difference in calendar years.
func CheckDateOfBirth(date string, now time.Time) string {
	if date == "" {
		return "Date of birth is required"
	}
	birth, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return "Please enter a valid date"
	}
	if birth.After(now) {
		return "Date of birth cannot be in the future"
	}

	age := now.Year() - birth.Year()
	if age < MinAge {
		return fmt.Sprintf("You must be at least %d years old", MinAge)
	}
	if age > MaxAge {
		return "Please enter a valid date of birth"
	}
	return ""
}

// CheckPhone validates an optional phone number by its digit count.
func CheckPhone(phone string) string {
	if phone == "" {
		return ""
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < MinPhoneDigits {
		return fmt.Sprintf("Phone number must be at least %d digits", MinPhoneDigits)
	}
	if digits > MaxPhoneDigits {
		return "Phone number is too long"
	}
	return ""
}

// CheckURL validates an optional absolute URL.
func CheckURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return "Please enter a valid URL"
	}
	return ""
}

// FileRules bounds an upload.
type FileRules struct {
	MaxSize           int64
	AllowedTypes      []string
	AllowedExtensions []string
}

// DefaultImageRules accepts common web image formats up to 5MB.
var DefaultImageRules = FileRules{
	MaxSize:           5 * 1024 * 1024,
	AllowedTypes:      []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
}

// CheckFile validates an upload by size, MIME type and file extension, in that order.
func CheckFile(name, mimeType string, size int64, rules FileRules) string {
	if name == "" {
		return "File is required"
	}
	if size > rules.MaxSize {
		return fmt.Sprintf("File size must be less than %dMB", rules.MaxSize/1024/1024)
	}

	typeOK := false
	for _, t := range rules.AllowedTypes {
		if t == mimeType {
			typeOK = true
			break
		}
	}
	if !typeOK {
		return "File type must be one of: " + strings.Join(rules.AllowedTypes, ", ")
	}

	lower := strings.ToLower(name)
	for _, ext := range rules.AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return ""
		}
	}
	return "File extension must be one of: " + strings.Join(rules.AllowedExtensions, ", ")
}

// charClasses records which character classes a string uses.
type charClasses struct {
	lower, upper, digit, special bool
}

// classify uses ASCII classes: anything outside [A-Za-z0-9] counts as special.
func classify(s string) charClasses {
	var c charClasses
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= '0' && r <= '9':
			c.digit = true
		default:
			c.special = true
		}
	}
	return c
}

// fieldLabel turns a JSON field name into a sentence-case label ("first_name" -> "First name").
func fieldLabel(field string) string {
	words := strings.ReplaceAll(field, "_", " ")
	r, size := utf8.DecodeRuneInString(words)
	if r == utf8.RuneError {
		return words
	}
	return string(unicode.ToUpper(r)) + words[size:]
}
