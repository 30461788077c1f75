// Package validate holds the format rules applied to free-text answers.
package validate

import "regexp"

var (
	phonePattern = regexp.MustCompile(`^\+\d+$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.com$`)
)

// Phone reports whether s is a plus sign followed only by digits.
func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

// Email reports whether s is a local@domain.com address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}
