package simulation

import (
	"fmt"
	"slices"

	"github.com/pthm-cable/natsel/telemetry"
)

// Snapshot captures the state needed to resume the run.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	genes := make([]string, 0, s.tax.NumGenes())
	for _, g := range s.tax.Genes() {
		genes = append(genes, g.ID())
	}

	return &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     s.rngSeed,
		Generation:  s.generation,
		Environment: s.env,
		Agents:      s.registry.States(),
		Genes:       genes,
		NextID:      s.pop.NextID(),
		Members:     s.pop.Members(),
	}
}

// Restore replaces the current state with a snapshot. The snapshot must have
// been taken with the same gene set. On error the simulation is unchanged.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	genes := make([]string, 0, s.tax.NumGenes())
	for _, g := range s.tax.Genes() {
		genes = append(genes, g.ID())
	}
	if !slices.Equal(genes, snap.Genes) {
		return fmt.Errorf("snapshot genes %v do not match taxonomy %v", snap.Genes, genes)
	}
	for name := range snap.Agents {
		if _, ok := s.registry.Get(name); !ok {
			return fmt.Errorf("snapshot names unknown agent %q", name)
		}
	}
	seen := make(map[uint32]bool, len(snap.Members))
	for _, m := range snap.Members {
		if m.ID == 0 || seen[m.ID] {
			return fmt.Errorf("snapshot member id %d missing or repeated", m.ID)
		}
		seen[m.ID] = true
		if err := m.Genotype.Validate(s.tax); err != nil {
			return fmt.Errorf("snapshot member %d: %w", m.ID, err)
		}
	}
	if err := s.SetEnvironment(snap.Environment); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	s.pop.Clear()
	for _, m := range snap.Members {
		if err := s.pop.Restore(m); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	s.pop.SetNextID(snap.NextID)

	for _, a := range s.registry.All() {
		a.SetEnabled(snap.Agents[a.Name()])
	}

	s.generation = snap.Generation
	s.collector.Reset()
	s.bookmarkDetector.Reset()
	return nil
}
