// Package environment defines the climatic context a population lives in.
package environment

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a value outside the closed set is used.
var ErrInvalidValue = errors.New("invalid environment value")

// Environment is the physical/climatic setting of a simulation.
// The zero value is not a member of the set.
type Environment uint8

const (
	Equator Environment = iota + 1 // Warm, brown ground
	Arctic                         // Cold, white ground
)

// values lists every member in declaration order.
var values = [...]Environment{Equator, Arctic}

// Values returns all environments in declaration order.
func Values() []Environment {
	out := make([]Environment, len(values))
	copy(out, values[:])
	return out
}

// Valid reports whether e is a member of the set.
func (e Environment) Valid() bool {
	return e == Equator || e == Arctic
}

// String returns the canonical lowercase name.
func (e Environment) String() string {
	switch e {
	case Equator:
		return "equator"
	case Arctic:
		return "arctic"
	default:
		return fmt.Sprintf("environment(%d)", uint8(e))
	}
}

// LabelKey returns the string-resource key for the display label.
func (e Environment) LabelKey() string {
	return e.String()
}

// Parse converts a canonical name into an Environment.
func Parse(s string) (Environment, error) {
	for _, v := range values {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidValue, s)
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Environment {
	e, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("environment: %v", err))
	}
	return e
}

// FromInt converts a raw integer into an Environment.
func FromInt(v int) (Environment, error) {
	e := Environment(v)
	if v < 0 || v > 255 || !e.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidValue, v)
	}
	return e, nil
}

// Check returns ErrInvalidValue if e is not a member of the set.
func Check(e Environment) error {
	if !e.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidValue, uint8(e))
	}
	return nil
}

// Equal compares two environments, failing if either is outside the set.
func Equal(a, b Environment) (bool, error) {
	if err := Check(a); err != nil {
		return false, err
	}
	if err := Check(b); err != nil {
		return false, err
	}
	return a == b, nil
}

// MarshalText implements encoding.TextMarshaler.
func (e Environment) MarshalText() ([]byte, error) {
	if err := Check(e); err != nil {
		return nil, err
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Environment) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
