package simulation

import (
	"log/slog"

	"github.com/pthm-cable/natsel/telemetry"
)

// flushTelemetry records the finished generation, writes output and checks bookmarks.
func (s *Simulation) flushTelemetry() telemetry.GenerationStats {
	sample := telemetry.PopulationSample{
		Count:        s.pop.Count(),
		AlleleCounts: s.pop.AlleleCounts(s.tax),
		Ages:         s.pop.Ages(),
	}
	stats, freqs := s.collector.Flush(s.generation, s.env, s.registry.EnabledNames(), s.tax, sample)

	logEvery := s.cfg.Telemetry.LogEvery
	if s.logStats && logEvery > 0 && int(s.generation)%logEvery == 0 {
		stats.LogStats()
	}

	if err := s.outputManager.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation", "error", err)
	}
	if err := s.outputManager.WriteAlleles(freqs); err != nil {
		slog.Error("failed to write alleles", "error", err)
	}

	for _, bm := range s.bookmarkDetector.Check(stats, freqs) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.snapshotDir != "" {
			s.saveSnapshot(&bm)
		}
	}

	return stats
}

// saveSnapshot creates and saves a snapshot to disk.
func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := s.Snapshot()
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, s.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "generation", s.generation)
}
