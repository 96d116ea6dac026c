package validator

import "strings"

const minPasswordLength = 8

// commonPasswords is a short deny-list of passwords seen in every breach
// corpus. Checked lowercased.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"sunshine1":   {},
	"welcome1":    {},
	"admin123":    {},
	"letmein1":    {},
	"football1":   {},
	"baseball1":   {},
	"dragon123":   {},
	"monkey123":   {},
	"shadow123":   {},
	"superman1":   {},
	"trustno1":    {},
}

// CheckPassword applies the minimum-strength policy to a candidate password:
// length, all-numeric, common-password and similarity checks. similarTo holds
// other submitted identifiers (username, email) the password must not echo.
// It returns one message per violated rule, empty when the password passes.
func CheckPassword(password string, similarTo ...string) []string {
	var errs []string

	if len(password) < minPasswordLength {
		errs = append(errs, "This password is too short. It must contain at least 8 characters.")
	}

	if password != "" && strings.IndexFunc(password, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		errs = append(errs, "This password is entirely numeric.")
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		errs = append(errs, "This password is too common.")
	}

	lower := strings.ToLower(password)
	for _, attr := range similarTo {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		// Local part of an email counts on its own.
		if at := strings.IndexByte(attr, '@'); at > 0 {
			attr = attr[:at]
		}
		if len(attr) >= 4 && (strings.Contains(lower, attr) || strings.Contains(attr, lower)) {
			errs = append(errs, "The password is too similar to your other account details.")
			break
		}
	}

	return errs
}
