package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ID identifies an entity. It is never empty once constructed.
type ID struct {
	value string
}

func NewID(raw string) (ID, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ID{}, Validationf("Id: value cannot be empty")
	}
	return ID{value: v}, nil
}

// GenerateID returns a fresh random identifier.
func GenerateID() ID {
	return ID{value: uuid.NewString()}
}

func (id ID) Value() string  { return id.value }
func (id ID) String() string { return id.value }
func (id ID) IsZero() bool   { return id.value == "" }

// Equals is false when either side is the zero ID.
func (id ID) Equals(other ID) bool {
	return !id.IsZero() && !other.IsZero() && id.value == other.value
}
