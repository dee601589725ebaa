package valueobjects

import (
	"errors"
	"strings"
)

// MaxSystemNameLength bounds a system name in bytes
const MaxSystemNameLength = 128

var (
	ErrEmptySystemName   = errors.New("system name cannot be empty")
	ErrInvalidSystemName = errors.New("system name must be a single path segment without leading dot")
)

// SystemName is a value object naming a system. A valid name is usable as
// a single directory entry on every supported store.
type SystemName struct {
	value string
}

// NewSystemName trims and validates raw input
func NewSystemName(raw string) (SystemName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return SystemName{}, ErrEmptySystemName
	}
	if len(name) > MaxSystemNameLength ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, "/\\\x00") {
		return SystemName{}, ErrInvalidSystemName
	}
	return SystemName{value: name}, nil
}

// MustSystemName panics on invalid input. Intended for tests and constants.
func MustSystemName(raw string) SystemName {
	name, err := NewSystemName(raw)
	if err != nil {
		panic(err)
	}
	return name
}

// String returns the name
func (n SystemName) String() string {
	return n.value
}

// IsZero reports whether the name is unset
func (n SystemName) IsZero() bool {
	return n.value == ""
}

// Equals compares two names
func (n SystemName) Equals(other SystemName) bool {
	return n.value == other.value
}
