package telemetry

import (
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/genetics"
)

// Collector accumulates events within a generation and produces GenerationStats.
type Collector struct {
	births        int
	deathsByCause map[components.Cause]int
	deathsByAgent map[string]int
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{
		deathsByCause: make(map[components.Cause]int),
		deathsByAgent: make(map[string]int),
	}
}

// RecordBirth records a birth.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records a death and, for selection deaths, the responsible agent.
func (c *Collector) RecordDeath(cause components.Cause, agent string) {
	c.deathsByCause[cause]++
	if cause == components.CauseSelection && agent != "" {
		c.deathsByAgent[agent]++
	}
}

// PopulationSample holds the living population state sampled at generation end.
type PopulationSample struct {
	Count        int
	AlleleCounts map[string]int
	Ages         []float64
}

// Flush produces the generation record and resets counters for the next one.
func (c *Collector) Flush(
	generation int32,
	env environment.Environment,
	enabledAgents []string,
	tax *genetics.Taxonomy,
	sample PopulationSample,
) (GenerationStats, []AlleleFrequency) {
	freqs := ComputeAlleleFrequencies(generation, tax, sample.AlleleCounts, sample.Count)
	ageMean, ageStd := ComputeAgeStats(sample.Ages)

	deaths := 0
	for _, n := range c.deathsByCause {
		deaths += n
	}

	byAgent := make(map[string]int, len(c.deathsByAgent))
	for k, v := range c.deathsByAgent {
		byAgent[k] = v
	}

	stats := GenerationStats{
		Generation:      generation,
		Environment:     env.String(),
		Agents:          JoinAgents(enabledAgents),
		Population:      sample.Count,
		Births:          c.births,
		Deaths:          deaths,
		DeathsSelection: c.deathsByCause[components.CauseSelection],
		DeathsOldAge:    c.deathsByCause[components.CauseOldAge],
		DeathsCapacity:  c.deathsByCause[components.CauseCapacity],
		AgeMean:         ageMean,
		AgeStd:          ageStd,
		Diversity:       Diversity(freqs),
		DeathsByAgent:   byAgent,
	}

	c.Reset()
	return stats, freqs
}

// Reset clears all counters.
func (c *Collector) Reset() {
	c.births = 0
	c.deathsByCause = make(map[components.Cause]int)
	c.deathsByAgent = make(map[string]int)
}
