// Package telemetry provides per-generation statistics, CSV output, bookmarks and snapshots.
package telemetry

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/natsel/genetics"
)

// GenerationStats holds aggregated statistics for one generation.
type GenerationStats struct {
	Generation  int32  `csv:"generation"`
	Environment string `csv:"environment"`
	Agents      string `csv:"agents"` // Enabled agents, semicolon separated

	Population int `csv:"population"`
	Births     int `csv:"births"`
	Deaths     int `csv:"deaths"`

	// Deaths by cause
	DeathsSelection int `csv:"deaths_selection"`
	DeathsOldAge    int `csv:"deaths_old_age"`
	DeathsCapacity  int `csv:"deaths_capacity"`

	AgeMean float64 `csv:"age_mean"`
	AgeStd  float64 `csv:"age_std"`

	// Mean normalized Shannon entropy across genes: 0 = every gene fixed, 1 = uniform
	Diversity float64 `csv:"diversity"`

	DeathsByAgent map[string]int `csv:"-"`
}

// AlleleFrequency is one allele's share of the living population.
type AlleleFrequency struct {
	Generation int32   `csv:"generation"`
	Gene       string  `csv:"gene"`
	Allele     string  `csv:"allele"`
	Count      int     `csv:"count"`
	Frequency  float64 `csv:"frequency"`
}

// ComputeAlleleFrequencies converts carrier counts into per-allele rows in
// taxonomy order. Frequencies are 0 when the population is empty.
func ComputeAlleleFrequencies(generation int32, tax *genetics.Taxonomy, counts map[string]int, population int) []AlleleFrequency {
	var rows []AlleleFrequency
	for _, g := range tax.Genes() {
		for _, a := range g.Alleles() {
			n := counts[a.ID()]
			var freq float64
			if population > 0 {
				freq = float64(n) / float64(population)
			}
			rows = append(rows, AlleleFrequency{
				Generation: generation,
				Gene:       g.ID(),
				Allele:     a.ID(),
				Count:      n,
				Frequency:  freq,
			})
		}
	}
	return rows
}

// Diversity averages the normalized Shannon entropy of each gene's allele
// distribution. Single-allele genes are skipped. Returns 0 for an empty population.
func Diversity(freqs []AlleleFrequency) float64 {
	byGene := make(map[string][]float64)
	var order []string
	for _, f := range freqs {
		if _, seen := byGene[f.Gene]; !seen {
			order = append(order, f.Gene)
		}
		byGene[f.Gene] = append(byGene[f.Gene], f.Frequency)
	}

	var entropies []float64
	for _, gene := range order {
		p := byGene[gene]
		if len(p) < 2 {
			continue
		}
		total := floats.Sum(p)
		if total == 0 {
			continue
		}
		norm := make([]float64, len(p))
		copy(norm, p)
		floats.Scale(1/total, norm)
		entropies = append(entropies, stat.Entropy(norm)/math.Log(float64(len(p))))
	}

	if len(entropies) == 0 {
		return 0
	}
	return stat.Mean(entropies, nil)
}

// ComputeAgeStats returns the population mean and standard deviation of ages.
func ComputeAgeStats(ages []float64) (mean, std float64) {
	if len(ages) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(ages, nil)
}

// JoinAgents formats agent names for the CSV agents column.
func JoinAgents(names []string) string {
	return strings.Join(names, ";")
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", int(s.Generation)),
		slog.String("environment", s.Environment),
		slog.String("agents", s.Agents),
		slog.Int("population", s.Population),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("deaths_selection", s.DeathsSelection),
		slog.Int("deaths_old_age", s.DeathsOldAge),
		slog.Int("deaths_capacity", s.DeathsCapacity),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("age_std", s.AgeStd),
		slog.Float64("diversity", s.Diversity),
	}
	names := make([]string, 0, len(s.DeathsByAgent))
	for name := range s.DeathsByAgent {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attrs = append(attrs, slog.Int("deaths_"+name, s.DeathsByAgent[name]))
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (f AlleleFrequency) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("gene", f.Gene),
		slog.String("allele", f.Allele),
		slog.Int("count", f.Count),
		slog.Float64("frequency", f.Frequency),
	)
}
