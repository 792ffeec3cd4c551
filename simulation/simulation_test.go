package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/natsel/agents"
	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/i18n"
	"github.com/pthm-cable/natsel/telemetry"
)

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, seed int64) *Simulation {
	t.Helper()
	s, err := New(cfg, nil, Options{Seed: seed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Wolves kill every brown individual and spare every white one in the arctic.
const huntConfig = `
environment: arctic
agents:
  wolves:
    rules:
      - mortality: 1
      - allele: whiteFur
        environment: arctic
        mortality: -1
presets: []
`

func alleleCount(s *Simulation, allele string) int {
	for _, share := range s.Report() {
		if share.Allele == allele {
			return share.Count
		}
	}
	return -1
}

func TestNewSeedsFounders(t *testing.T) {
	cfg := loadConfig(t, "")
	s := newSim(t, cfg, 1)

	if s.Population() != cfg.Simulation.InitialPopulation {
		t.Errorf("Population = %d, want %d", s.Population(), cfg.Simulation.InitialPopulation)
	}
	if s.Generation() != 0 {
		t.Errorf("Generation = %d, want 0", s.Generation())
	}
	if s.Environment() != environment.Equator {
		t.Errorf("Environment = %v", s.Environment())
	}

	var names []string
	for _, a := range s.Agents() {
		names = append(names, a.Name())
		if a.Enabled() {
			t.Errorf("agent %s enabled at start", a.Name())
		}
	}
	if diff := cmp.Diff(agents.Names(), names); diff != "" {
		t.Errorf("agent order mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEnvironmentOverride(t *testing.T) {
	cfg := loadConfig(t, "")
	s, err := New(cfg, nil, Options{Seed: 1, Environment: environment.Arctic})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if s.Environment() != environment.Arctic {
		t.Errorf("Environment = %v, want arctic", s.Environment())
	}
}

func TestSetEnvironmentRejectsInvalid(t *testing.T) {
	s := newSim(t, loadConfig(t, ""), 1)
	if err := s.SetEnvironment(environment.Environment(3)); !errors.Is(err, environment.ErrInvalidValue) {
		t.Errorf("SetEnvironment(3) error = %v, want ErrInvalidValue", err)
	}
	if s.Environment() != environment.Equator {
		t.Errorf("environment changed after rejected set: %v", s.Environment())
	}
}

func TestStepWithoutAgentsKillsOnlyByAgeOrCapacity(t *testing.T) {
	s := newSim(t, loadConfig(t, "simulation:\n  max_population: 60\n"), 7)

	for i := 0; i < 10 && !s.Extinct(); i++ {
		stats, err := s.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if stats.DeathsSelection != 0 {
			t.Fatalf("generation %d: %d selection deaths with no agents enabled", stats.Generation, stats.DeathsSelection)
		}
		if stats.Deaths != stats.DeathsOldAge+stats.DeathsCapacity {
			t.Fatalf("generation %d: deaths %d != old age %d + capacity %d",
				stats.Generation, stats.Deaths, stats.DeathsOldAge, stats.DeathsCapacity)
		}
		if stats.Population > 60 {
			t.Fatalf("population %d above capacity", stats.Population)
		}
	}
}

func TestStepStablePopulation(t *testing.T) {
	s := newSim(t, loadConfig(t, "simulation:\n  max_age: 0\n  litter_size: 0\n"), 3)
	before := s.Members()

	stats, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if stats.Births != 0 || stats.Deaths != 0 {
		t.Errorf("births=%d deaths=%d, want none", stats.Births, stats.Deaths)
	}
	if stats.Generation != 1 || s.Generation() != 1 {
		t.Errorf("generation = %d/%d, want 1", stats.Generation, s.Generation())
	}

	after := s.Members()
	if len(after) != len(before) {
		t.Fatalf("population %d -> %d", len(before), len(after))
	}
	for i := range after {
		if after[i].Age != before[i].Age+1 {
			t.Errorf("member %d age %d, want %d", after[i].ID, after[i].Age, before[i].Age+1)
		}
	}
}

func TestWolvesSelectCamouflage(t *testing.T) {
	s := newSim(t, loadConfig(t, huntConfig), 11)
	if err := s.EnableAgents(agents.NameWolves); err != nil {
		t.Fatalf("EnableAgents: %v", err)
	}

	brown := alleleCount(s, "brownFur")
	if brown == 0 || brown == s.Population() {
		t.Fatalf("seed gave a single fur color (%d brown of %d)", brown, s.Population())
	}

	stats, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if stats.DeathsSelection != brown {
		t.Errorf("selection deaths = %d, want %d", stats.DeathsSelection, brown)
	}
	if stats.DeathsByAgent[agents.NameWolves] != brown {
		t.Errorf("wolves deaths = %d, want %d", stats.DeathsByAgent[agents.NameWolves], brown)
	}
	if got := alleleCount(s, "brownFur"); got != 0 {
		t.Errorf("brownFur carriers after selection = %d, want 0", got)
	}
	if s.Extinct() {
		t.Error("white individuals should survive")
	}
}

func TestDisabledAgentChangesNothing(t *testing.T) {
	cfg := loadConfig(t, huntConfig)

	a := newSim(t, cfg, 5)
	b := newSim(t, cfg, 5)
	wolves, _ := b.Agent(agents.NameWolves)
	wolves.SetEnabled(true)
	wolves.SetEnabled(false)

	for i := 0; i < 5; i++ {
		sa, err := a.Step()
		if err != nil {
			t.Fatal(err)
		}
		sb, err := b.Step()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(sa, sb); diff != "" {
			t.Fatalf("generation %d differs (-a +b):\n%s", i+1, diff)
		}
	}
	if diff := cmp.Diff(a.Members(), b.Members()); diff != "" {
		t.Errorf("members differ (-a +b):\n%s", diff)
	}
}

func TestStepDeterministic(t *testing.T) {
	cfg := loadConfig(t, "")
	run := func() []telemetry.GenerationStats {
		s := newSim(t, cfg, 42)
		if err := s.ApplyPreset("full_pressure"); err != nil {
			t.Fatalf("ApplyPreset: %v", err)
		}
		var out []telemetry.GenerationStats
		for i := 0; i < 8; i++ {
			stats, err := s.Step()
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			out = append(out, stats)
		}
		return out
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed produced different runs (-first +second):\n%s", diff)
	}
}

func TestExtinctPopulationStillSteps(t *testing.T) {
	cfg := loadConfig(t, `
agents:
  wolves:
    rules:
      - mortality: 1
presets: []
`)
	s := newSim(t, cfg, 2)
	if err := s.EnableAgents(agents.NameWolves); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !s.Extinct() || stats.Population != 0 {
		t.Fatalf("population = %d, want extinction", stats.Population)
	}
	if stats.Births != 0 {
		t.Errorf("births = %d after total kill", stats.Births)
	}

	if _, err := s.Step(); err != nil {
		t.Errorf("Step on empty population: %v", err)
	}
}

func TestApplyPreset(t *testing.T) {
	s := newSim(t, loadConfig(t, ""), 1)

	// Pre-existing toggles are cleared
	food, _ := s.Agent(agents.NameToughFood)
	food.SetEnabled(true)

	if err := s.ApplyPreset("camouflage"); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if s.Environment() != environment.Arctic {
		t.Errorf("Environment = %v, want arctic", s.Environment())
	}
	states := map[string]bool{}
	for _, a := range s.Agents() {
		states[a.Name()] = a.Enabled()
	}
	want := map[string]bool{agents.NameLimitedFood: false, agents.NameWolves: true, agents.NameToughFood: false}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("agent states mismatch (-want +got):\n%s", diff)
	}

	// tough_times names no environment: keep arctic
	if err := s.ApplyPreset("tough_times"); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if s.Environment() != environment.Arctic {
		t.Errorf("Environment = %v, want arctic kept", s.Environment())
	}

	if err := s.ApplyPreset("nope"); err == nil {
		t.Error("unknown preset should fail")
	}
}

func TestEnableUnknownAgent(t *testing.T) {
	s := newSim(t, loadConfig(t, ""), 1)
	if err := s.EnableAgents("eagles"); err == nil {
		t.Error("expected error for unknown agent")
	}
}

func TestReset(t *testing.T) {
	cfg := loadConfig(t, "")
	s := newSim(t, cfg, 9)
	if err := s.ApplyPreset("full_pressure"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}

	s.Reset()

	if s.Generation() != 0 {
		t.Errorf("Generation = %d after reset", s.Generation())
	}
	if s.Population() != cfg.Simulation.InitialPopulation {
		t.Errorf("Population = %d after reset, want %d", s.Population(), cfg.Simulation.InitialPopulation)
	}
	for _, a := range s.Agents() {
		if a.Enabled() {
			t.Errorf("agent %s still enabled after reset", a.Name())
		}
	}
	for _, m := range s.Members() {
		if m.Age != 0 || m.Generation != 0 {
			t.Errorf("member %d not a fresh founder: %+v", m.ID, m)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	cfg := loadConfig(t, "")
	src := newSim(t, cfg, 13)
	if err := src.ApplyPreset("camouflage"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := src.Step(); err != nil {
			t.Fatal(err)
		}
	}

	path, err := telemetry.SaveSnapshot(src.Snapshot(), t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	dst := newSim(t, cfg, 99)
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if dst.Generation() != src.Generation() {
		t.Errorf("Generation = %d, want %d", dst.Generation(), src.Generation())
	}
	if dst.Environment() != src.Environment() {
		t.Errorf("Environment = %v, want %v", dst.Environment(), src.Environment())
	}
	if diff := cmp.Diff(src.Members(), dst.Members()); diff != "" {
		t.Errorf("members mismatch (-src +dst):\n%s", diff)
	}
	// The RNG seed belongs to the restoring simulation
	want, got := src.Snapshot(), dst.Snapshot()
	got.RNGSeed = want.RNGSeed
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-src +dst):\n%s", diff)
	}
	wolves, _ := dst.Agent(agents.NameWolves)
	if !wolves.Enabled() {
		t.Error("wolves not enabled after restore")
	}
}

func agentStates(s *Simulation) map[string]bool {
	states := make(map[string]bool)
	for _, a := range s.Agents() {
		states[a.Name()] = a.Enabled()
	}
	return states
}

func TestRestoreRejectsInvalidSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(snap *telemetry.Snapshot)
	}{
		{"foreign genes", func(snap *telemetry.Snapshot) { snap.Genes = []string{"wings"} }},
		{"unknown agent", func(snap *telemetry.Snapshot) { snap.Agents["eagles"] = true }},
		{"duplicate member id", func(snap *telemetry.Snapshot) {
			snap.Members = append(snap.Members, snap.Members[0])
		}},
		{"zero member id", func(snap *telemetry.Snapshot) { snap.Members[len(snap.Members)-1].ID = 0 }},
		{"allele index out of range", func(snap *telemetry.Snapshot) { snap.Members[len(snap.Members)-1].Genotype[1] = 9 }},
		{"invalid environment", func(snap *telemetry.Snapshot) { snap.Environment = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSim(t, loadConfig(t, ""), 1)
			if err := s.ApplyPreset("camouflage"); err != nil {
				t.Fatal(err)
			}

			// A snapshot that differs from the live state in every restored field
			snap := s.Snapshot()
			snap.Generation = 12
			snap.Environment = environment.Equator
			for name := range snap.Agents {
				snap.Agents[name] = name == agents.NameToughFood
			}
			snap.Members = snap.Members[1:]
			tt.mutate(snap)

			beforeMembers := s.Members()
			beforeStates := agentStates(s)

			if err := s.Restore(snap); err == nil {
				t.Fatal("expected restore error")
			}
			if diff := cmp.Diff(beforeMembers, s.Members()); diff != "" {
				t.Errorf("population changed on failed restore (-want +got):\n%s", diff)
			}
			if s.Environment() != environment.Arctic {
				t.Errorf("Environment = %v after failed restore, want arctic", s.Environment())
			}
			if diff := cmp.Diff(beforeStates, agentStates(s)); diff != "" {
				t.Errorf("agent states changed on failed restore (-want +got):\n%s", diff)
			}
			if s.Generation() != 0 {
				t.Errorf("Generation = %d after failed restore", s.Generation())
			}
		})
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(loadConfig(t, ""), nil, Options{Seed: 1, OutputDir: dir, SnapshotDir: filepath.Join(dir, "snapshots")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"config.yaml", "generations.csv", "alleles.csv", "bookmarks.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestReportLabels(t *testing.T) {
	strings, err := i18n.New("es")
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	s, err := New(loadConfig(t, ""), strings, Options{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	report := s.Report()
	total := 0
	for _, share := range report {
		if share.AlleleLabel == "" || share.GeneLabel == "" {
			t.Errorf("empty label in %+v", share)
		}
		if share.Gene == "fur" {
			total += share.Count
		}
	}
	if total != s.Population() {
		t.Errorf("fur carriers = %d, want population %d", total, s.Population())
	}
	if s.EnvironmentLabel() == "" {
		t.Error("empty environment label")
	}
}
