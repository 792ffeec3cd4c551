package agents

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/genetics"
)

// ErrPrecondition is returned when evaluation inputs are missing or invalid.
var ErrPrecondition = errors.New("selection agent precondition violated")

// Individual is the read-only view of one organism handed to agents.
type Individual struct {
	ID       uint32
	Genotype genetics.Genotype
}

// Adjustment is an agent's verdict for one individual.
type Adjustment struct {
	ID        uint32
	Mortality float64 // Probability of death this generation, in [0, 1]
	Fertility float64 // Relative litter change; -1 = sterile, 0 = unchanged
}

// SelectionAgent is a factor that, when enabled, adjusts outcomes for
// individuals according to their alleles and the environment.
//
// Evaluate must be a pure function of (alleles, environment) given the
// enabled flag. A disabled agent returns no adjustments. A nil population
// or an invalid environment is an ErrPrecondition.
type SelectionAgent interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	Reset()
	Subscribe(fn Listener) (cancel func())
	Evaluate(individuals []Individual, env environment.Environment) ([]Adjustment, error)
}

// checkInputs validates evaluation preconditions.
func checkInputs(name string, individuals []Individual, env environment.Environment) error {
	if individuals == nil {
		return fmt.Errorf("%w: %s: population not provided", ErrPrecondition, name)
	}
	if err := environment.Check(env); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPrecondition, name, err)
	}
	return nil
}

// Combine merges adjustments from several agents per individual.
// Mortality is summed and clamped to [0, 1]; fertility is summed.
func Combine(sets ...[]Adjustment) map[uint32]Adjustment {
	out := make(map[uint32]Adjustment)
	for _, set := range sets {
		for _, adj := range set {
			cur := out[adj.ID]
			cur.ID = adj.ID
			cur.Mortality = clamp01(cur.Mortality + adj.Mortality)
			cur.Fertility += adj.Fertility
			out[adj.ID] = cur
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
