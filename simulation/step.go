package simulation

import (
	"fmt"
	"math"

	"github.com/pthm-cable/natsel/agents"
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/telemetry"
)

// Step advances one generation:
//  1. enabled agents evaluate the living population
//  2. each agent rolls mortality for its adjustments, in evaluation order
//  3. survivors age; those past max age die
//  4. survivors pair at random and breed, litter scaled by fertility
//  5. excess above carrying capacity is culled at random
//  6. telemetry is recorded
func (s *Simulation) Step() (telemetry.GenerationStats, error) {
	results, err := s.registry.Evaluate(s.pop.Individuals(), s.env)
	if err != nil {
		return telemetry.GenerationStats{}, fmt.Errorf("generation %d: %w", s.generation+1, err)
	}

	s.applyMortality(results)
	fertility := fertilityOf(results)

	s.pop.AgeAll(s.cfg.Simulation.MaxAge)
	s.recordDeaths()

	s.generation++
	s.breed(fertility)
	s.cullToCapacity()

	return s.flushTelemetry(), nil
}

// applyMortality kills individuals by rolling each agent's mortality in turn.
// The first agent whose roll succeeds is recorded as the cause.
func (s *Simulation) applyMortality(results []agents.Result) {
	for _, r := range results {
		for _, adj := range r.Adjustments {
			if adj.Mortality <= 0 || !s.pop.Alive(adj.ID) {
				continue
			}
			if s.rng.Float64() < adj.Mortality {
				s.pop.Kill(adj.ID, components.CauseSelection, r.Agent)
			}
		}
	}
}

func fertilityOf(results []agents.Result) map[uint32]float64 {
	sets := make([][]agents.Adjustment, len(results))
	for i, r := range results {
		sets[i] = r.Adjustments
	}
	combined := agents.Combine(sets...)

	out := make(map[uint32]float64, len(combined))
	for id, adj := range combined {
		out[id] = adj.Fertility
	}
	return out
}

// recordDeaths removes dead individuals and counts them.
func (s *Simulation) recordDeaths() {
	for _, d := range s.pop.RemoveDead() {
		s.collector.RecordDeath(d.Cause, d.Agent)
	}
}

// litterSize returns the offspring count for a pair given their mean
// fertility adjustment. Negative scale means no offspring.
func litterSize(base, fertility float64) int {
	scale := math.Max(0, 1+fertility)
	return int(math.Round(base * scale))
}

// breed pairs survivors at random. An odd individual out does not breed.
func (s *Simulation) breed(fertility map[uint32]float64) {
	parents := s.pop.Members()
	s.rng.Shuffle(len(parents), func(i, j int) {
		parents[i], parents[j] = parents[j], parents[i]
	})

	rates := s.cfg.Derived.MutationRates
	for i := 0; i+1 < len(parents); i += 2 {
		mother, father := parents[i], parents[i+1]
		fert := (fertility[mother.ID] + fertility[father.ID]) / 2
		n := litterSize(s.cfg.Simulation.LitterSize, fert)
		for k := 0; k < n; k++ {
			child := s.tax.Inherit(mother.Genotype, father.Genotype, s.rng, rates)
			s.pop.Spawn(child, s.generation, mother.ID, father.ID)
			s.collector.RecordBirth()
		}
	}
}

// cullToCapacity kills random individuals until the population fits.
func (s *Simulation) cullToCapacity() {
	limit := s.cfg.Simulation.MaxPopulation
	members := s.pop.Members()
	excess := len(members) - limit
	if limit <= 0 || excess <= 0 {
		return
	}

	s.rng.Shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})
	for _, m := range members[:excess] {
		s.pop.Kill(m.ID, components.CauseCapacity, "")
	}
	s.recordDeaths()
}
