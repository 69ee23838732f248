package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const passwordSpecialChars = "!@#$%^&*(),.?\":{}|<>_-+=[]\\/;'`~"

type PasswordPolicy struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
}

// DefaultPasswordPolicy requires 8 to 128 characters and every character class.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSpecial:   true,
	}
}

// Password is a plaintext that passed a policy check. It is handed to a hasher
// and never persisted.
type Password struct {
	value string
}

func NewPassword(raw string, policy PasswordPolicy) (Password, error) {
	if policy.MinLength <= 0 {
		policy.MinLength = 8
	}
	if policy.MaxLength <= 0 {
		policy.MaxLength = 128
	}
	v := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(v)
	if n < policy.MinLength {
		return Password{}, Validationf("Password: must be at least %d characters", policy.MinLength)
	}
	if n > policy.MaxLength {
		return Password{}, Validationf("Password: must be at most %d characters", policy.MaxLength)
	}

	var upper, lower, digit, special bool
	for _, r := range v {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			special = true
		}
	}
	if policy.RequireUppercase && !upper {
		return Password{}, Validationf("Password: must contain an uppercase letter")
	}
	if policy.RequireLowercase && !lower {
		return Password{}, Validationf("Password: must contain a lowercase letter")
	}
	if policy.RequireDigit && !digit {
		return Password{}, Validationf("Password: must contain a digit")
	}
	if policy.RequireSpecial && !special {
		return Password{}, Validationf("Password: must contain a special character")
	}
	return Password{value: v}, nil
}

func (p Password) Value() string { return p.value }

// String hides the plaintext from logs and fmt verbs.
func (p Password) String() string { return "********" }

// HashedPassword is an opaque digest. It knows nothing about the algorithm.
type HashedPassword struct {
	value string
}

func NewHashedPassword(raw string) (HashedPassword, error) {
	if len(raw) < 10 {
		return HashedPassword{}, Validationf("HashedPassword: value is too short")
	}
	return HashedPassword{value: raw}, nil
}

func (h HashedPassword) Value() string { return h.value }
func (h HashedPassword) IsZero() bool  { return h.value == "" }

func (h HashedPassword) Equals(other HashedPassword) bool { return h.value == other.value }
