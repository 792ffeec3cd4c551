package simulation

import (
	"log/slog"

	"github.com/pthm-cable/natsel/genetics"
)

// AlleleShare is one allele's share of the living population, with display labels.
type AlleleShare struct {
	Gene        string
	GeneLabel   string
	Allele      string
	AlleleLabel string
	Count       int
	Frequency   float64
}

// LogValue implements slog.LogValuer for structured logging.
func (a AlleleShare) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("gene", a.GeneLabel),
		slog.String("allele", a.AlleleLabel),
		slog.Int("count", a.Count),
		slog.Float64("frequency", a.Frequency),
	)
}

// Report returns allele shares in taxonomy order, labelled through the
// simulation's string provider.
func (s *Simulation) Report() []AlleleShare {
	counts := s.pop.AlleleCounts(s.tax)
	total := s.pop.Count()

	var out []AlleleShare
	for _, g := range s.tax.Genes() {
		for _, a := range g.Alleles() {
			share := AlleleShare{
				Gene:        g.ID(),
				GeneLabel:   genetics.GeneLabel(g, s.strings),
				Allele:      a.ID(),
				AlleleLabel: genetics.LabelOf(a, s.strings),
				Count:       counts[a.ID()],
			}
			if total > 0 {
				share.Frequency = float64(share.Count) / float64(total)
			}
			out = append(out, share)
		}
	}
	return out
}

// EnvironmentLabel returns the display label of the current environment.
func (s *Simulation) EnvironmentLabel() string {
	key := s.env.LabelKey()
	if s.strings == nil {
		return key
	}
	if text, ok := s.strings.Lookup(key); ok {
		return text
	}
	return key
}
