package agents

import (
	"fmt"

	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/genetics"
)

// Agent names double as string-resource keys.
const (
	NameLimitedFood = "limitedFood"
	NameWolves      = "wolves"
	NameToughFood   = "toughFood"
)

// LimitedFood starves part of the population every generation and lowers
// litter sizes. Scarcity is worse in the arctic.
type LimitedFood struct {
	*Factor
	pressure *Pressure
}

// NewLimitedFood creates a disabled LimitedFood agent.
func NewLimitedFood(tax *genetics.Taxonomy, def PressureDef) (*LimitedFood, error) {
	p, err := CompilePressure(tax, def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NameLimitedFood, err)
	}
	return &LimitedFood{Factor: NewFactor(NameLimitedFood), pressure: p}, nil
}

// Evaluate implements SelectionAgent.
func (a *LimitedFood) Evaluate(individuals []Individual, env environment.Environment) ([]Adjustment, error) {
	return a.pressure.evaluate(a.Factor, individuals, env)
}

// Wolves hunt individuals whose fur stands out against the ground.
type Wolves struct {
	*Factor
	pressure *Pressure
}

// NewWolves creates a disabled Wolves agent.
func NewWolves(tax *genetics.Taxonomy, def PressureDef) (*Wolves, error) {
	p, err := CompilePressure(tax, def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NameWolves, err)
	}
	return &Wolves{Factor: NewFactor(NameWolves), pressure: p}, nil
}

// Evaluate implements SelectionAgent.
func (a *Wolves) Evaluate(individuals []Individual, env environment.Environment) ([]Adjustment, error) {
	return a.pressure.evaluate(a.Factor, individuals, env)
}

// ToughFood favors individuals that can chew it.
type ToughFood struct {
	*Factor
	pressure *Pressure
}

// NewToughFood creates a disabled ToughFood agent.
func NewToughFood(tax *genetics.Taxonomy, def PressureDef) (*ToughFood, error) {
	p, err := CompilePressure(tax, def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NameToughFood, err)
	}
	return &ToughFood{Factor: NewFactor(NameToughFood), pressure: p}, nil
}

// Evaluate implements SelectionAgent.
func (a *ToughFood) Evaluate(individuals []Individual, env environment.Environment) ([]Adjustment, error) {
	return a.pressure.evaluate(a.Factor, individuals, env)
}

// New builds the agent registered under name.
func New(name string, tax *genetics.Taxonomy, def PressureDef) (SelectionAgent, error) {
	var (
		agent SelectionAgent
		err   error
	)
	switch name {
	case NameLimitedFood:
		agent, err = NewLimitedFood(tax, def)
	case NameWolves:
		agent, err = NewWolves(tax, def)
	case NameToughFood:
		agent, err = NewToughFood(tax, def)
	default:
		return nil, &genetics.ConfigError{Reason: fmt.Sprintf("unknown selection agent %q", name)}
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

var (
	_ SelectionAgent = (*LimitedFood)(nil)
	_ SelectionAgent = (*Wolves)(nil)
	_ SelectionAgent = (*ToughFood)(nil)
)

// Names returns the known agent names in evaluation order.
func Names() []string {
	return []string{NameLimitedFood, NameWolves, NameToughFood}
}

// DefaultDefs returns the stock pressures for the default gene set.
func DefaultDefs() map[string]PressureDef {
	return map[string]PressureDef{
		NameLimitedFood: {Rules: []Rule{
			{Mortality: 0.15, Fertility: -0.2},
			{Environment: environment.Arctic, Mortality: 0.10},
		}},
		NameWolves: {Rules: []Rule{
			{Mortality: 0.25},
			{Allele: "whiteFur", Environment: environment.Arctic, Mortality: -0.20},
			{Allele: "brownFur", Environment: environment.Equator, Mortality: -0.20},
			{Allele: "tallEars", Mortality: -0.05},
		}},
		NameToughFood: {Rules: []Rule{
			{Mortality: 0.10},
			{Allele: "shortTeeth", Mortality: 0.20},
			{Allele: "longTeeth", Mortality: -0.05},
		}},
	}
}
