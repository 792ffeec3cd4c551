package agents

import (
	"fmt"

	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/genetics"
)

// Rule adds mortality and fertility deltas to matching individuals.
type Rule struct {
	Allele      string                  `yaml:"allele,omitempty"`      // Empty = every individual
	Environment environment.Environment `yaml:"environment,omitempty"` // Unset = every environment
	Mortality   float64                 `yaml:"mortality,omitempty"`
	Fertility   float64                 `yaml:"fertility,omitempty"`
}

// PressureDef is the configurable rule set of one selection agent.
type PressureDef struct {
	Rules []Rule `yaml:"rules"`
}

type compiledRule struct {
	allele    *genetics.Allele
	env       environment.Environment
	mortality float64
	fertility float64
}

// Pressure is a compiled PressureDef bound to a taxonomy.
type Pressure struct {
	rules []compiledRule
}

// CompilePressure resolves allele IDs against tax. Unknown alleles and
// out-of-range deltas are configuration errors.
func CompilePressure(tax *genetics.Taxonomy, def PressureDef) (*Pressure, error) {
	p := &Pressure{rules: make([]compiledRule, 0, len(def.Rules))}
	for i, r := range def.Rules {
		cr := compiledRule{
			env:       r.Environment,
			mortality: r.Mortality,
			fertility: r.Fertility,
		}
		if r.Allele != "" {
			a, ok := tax.Allele(r.Allele)
			if !ok {
				return nil, &genetics.ConfigError{Allele: r.Allele, Reason: fmt.Sprintf("rule %d: unknown allele", i)}
			}
			cr.allele = a
		}
		if r.Environment != 0 && !r.Environment.Valid() {
			return nil, &genetics.ConfigError{Reason: fmt.Sprintf("rule %d: invalid environment %d", i, uint8(r.Environment))}
		}
		if r.Mortality < -1 || r.Mortality > 1 {
			return nil, &genetics.ConfigError{Allele: r.Allele, Reason: fmt.Sprintf("rule %d: mortality %v outside [-1, 1]", i, r.Mortality)}
		}
		if r.Fertility < -1 {
			return nil, &genetics.ConfigError{Allele: r.Allele, Reason: fmt.Sprintf("rule %d: fertility %v below -1", i, r.Fertility)}
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// Outcome computes the adjustment for one individual. It has no side effects.
func (p *Pressure) Outcome(ind Individual, env environment.Environment) Adjustment {
	var m, f float64
	for _, r := range p.rules {
		if r.env != 0 && r.env != env {
			continue
		}
		if r.allele != nil && !ind.Genotype.Has(r.allele) {
			continue
		}
		m += r.mortality
		f += r.fertility
	}
	return Adjustment{ID: ind.ID, Mortality: clamp01(m), Fertility: f}
}

// evaluate implements SelectionAgent.Evaluate for pressure-driven agents.
func (p *Pressure) evaluate(f *Factor, individuals []Individual, env environment.Environment) ([]Adjustment, error) {
	if err := checkInputs(f.Name(), individuals, env); err != nil {
		return nil, err
	}
	if !f.Enabled() || len(individuals) == 0 {
		return nil, nil
	}

	out := make([]Adjustment, len(individuals))
	for i, ind := range individuals {
		out[i] = p.Outcome(ind, env)
	}
	return out, nil
}
