package domain

import (
	"strings"
	"unicode/utf8"
)

type TextOptions struct {
	// MaxLength caps the trimmed length in characters. Zero means no cap.
	MaxLength int
	// NotEmpty rejects values that are empty after trimming.
	NotEmpty bool
}

// Text is a trimmed string with optional length and emptiness rules.
type Text struct {
	value string
}

func NewText(raw string, opts TextOptions) (Text, error) {
	v := strings.TrimSpace(raw)
	if opts.NotEmpty && v == "" {
		return Text{}, Validationf("Text: value cannot be empty")
	}
	if opts.MaxLength > 0 && utf8.RuneCountInString(v) > opts.MaxLength {
		return Text{}, Validationf("Text: value exceeds max length of %d characters", opts.MaxLength)
	}
	return Text{value: v}, nil
}

func (t Text) Value() string  { return t.value }
func (t Text) String() string { return t.value }

func (t Text) Equals(other Text) bool { return t.value == other.value }
