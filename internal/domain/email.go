package domain

import (
	"regexp"
	"strings"
)

// Local part: dot-separated atoms, so no leading, trailing or doubled dots.
// Domain: alphanumeric labels that may contain inner hyphens, then an alphabetic TLD of 2+.
var emailPattern = regexp.MustCompile(
	"^[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+(\\.[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+)*" +
		"@([A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?\\.)+[A-Za-z]{2,}$",
)

type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Email{}, Validationf("Email: value cannot be empty")
	}
	if !emailPattern.MatchString(v) {
		return Email{}, Validationf("Email: invalid format %q", v)
	}
	return Email{value: v}, nil
}

func (e Email) Value() string  { return e.value }
func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

func (e Email) Equals(other Email) bool { return e.value == other.value }
