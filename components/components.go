// Package components defines ECS components for the population.
package components

import "github.com/pthm-cable/natsel/genetics"

// Cause records why an individual died.
type Cause uint8

const (
	CauseNone      Cause = iota // Still alive
	CauseSelection              // Killed by a selection agent (see Vitals.Agent)
	CauseOldAge                 // Exceeded maximum age
	CauseCapacity               // Culled when the population exceeded capacity
)

// String returns the snake_case name used in logs and CSV output.
func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseSelection:
		return "selection"
	case CauseOldAge:
		return "old_age"
	case CauseCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// Identity holds the stable ID and lineage of an individual.
type Identity struct {
	ID         uint32
	Generation int32  // Generation the individual was born in
	MotherID   uint32 // 0 for founders
	FatherID   uint32 // 0 for founders
}

// Vitals holds per-generation life state.
type Vitals struct {
	Age   int32 // Generations survived
	Alive bool
	Cause Cause
	Agent string // Selection agent name when Cause == CauseSelection
}

// Heredity holds the genotype.
type Heredity struct {
	Genotype genetics.Genotype
}
