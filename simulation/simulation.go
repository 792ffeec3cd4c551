// Package simulation runs generations of a population under selection agents.
package simulation

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/natsel/agents"
	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/genetics"
	"github.com/pthm-cable/natsel/population"
	"github.com/pthm-cable/natsel/telemetry"
)

// Options configures a simulation instance.
type Options struct {
	Seed        int64
	Environment environment.Environment // Zero = use config
	LogStats    bool                    // Log generation stats via slog
	OutputDir   string                  // CSV/config output (empty = disabled)
	SnapshotDir string                  // Snapshots on bookmarks (empty = disabled)
}

// Simulation holds the complete model state.
type Simulation struct {
	cfg     *config.Config
	tax     *genetics.Taxonomy
	strings genetics.Strings
	rng     *rand.Rand
	rngSeed int64

	pop      *population.Population
	registry *agents.Registry
	env      environment.Environment

	generation int32

	// Telemetry
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string

	unsubscribe func()
}

// New creates a simulation from cfg and seeds the founder population.
// strings resolves display labels and may be nil.
func New(cfg *config.Config, strings genetics.Strings, opts Options) (*Simulation, error) {
	if cfg.Derived.Taxonomy == nil {
		return nil, fmt.Errorf("simulation: config has no taxonomy")
	}

	env := cfg.Environment
	if opts.Environment != 0 {
		env = opts.Environment
	}
	if err := environment.Check(env); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	registry := agents.NewRegistry()
	for _, name := range agents.Names() {
		def, ok := cfg.Agents[name]
		if !ok {
			continue
		}
		agent, err := agents.New(name, cfg.Derived.Taxonomy, def)
		if err != nil {
			return nil, fmt.Errorf("simulation: %w", err)
		}
		if err := registry.Register(agent); err != nil {
			return nil, fmt.Errorf("simulation: %w", err)
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("simulation: %w", err)
	}

	s := &Simulation{
		cfg:              cfg,
		tax:              cfg.Derived.Taxonomy,
		strings:          strings,
		rng:              rand.New(rand.NewSource(opts.Seed)),
		rngSeed:          opts.Seed,
		pop:              population.New(),
		registry:         registry,
		env:              env,
		collector:        telemetry.NewCollector(),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Simulation.MaxPopulation),
		outputManager:    om,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
	}

	s.unsubscribe = registry.Subscribe(func(name string, enabled bool) {
		slog.Debug("agent toggled", "agent", name, "enabled", enabled, "generation", s.generation)
	})

	s.seedFounders()
	return s, nil
}

// seedFounders spawns the initial population with random genotypes.
func (s *Simulation) seedFounders() {
	for i := 0; i < s.cfg.Simulation.InitialPopulation; i++ {
		s.pop.Spawn(s.tax.RandomGenotype(s.rng), 0, 0, 0)
	}
}

// Taxonomy returns the gene taxonomy in use.
func (s *Simulation) Taxonomy() *genetics.Taxonomy {
	return s.tax
}

// Generation returns the number of completed generations.
func (s *Simulation) Generation() int32 {
	return s.generation
}

// Population returns the number of living individuals.
func (s *Simulation) Population() int {
	return s.pop.Count()
}

// Members returns copies of the living individuals ordered by ID.
func (s *Simulation) Members() []population.Member {
	return s.pop.Members()
}

// Extinct reports whether nobody is left.
func (s *Simulation) Extinct() bool {
	return s.pop.Count() == 0
}

// Environment returns the current environment.
func (s *Simulation) Environment() environment.Environment {
	return s.env
}

// SetEnvironment changes the environment used by subsequent steps.
func (s *Simulation) SetEnvironment(env environment.Environment) error {
	if err := environment.Check(env); err != nil {
		return err
	}
	if env != s.env {
		slog.Debug("environment changed", "from", s.env.String(), "to", env.String(), "generation", s.generation)
	}
	s.env = env
	return nil
}

// Agent returns a selection agent by name.
func (s *Simulation) Agent(name string) (agents.SelectionAgent, bool) {
	return s.registry.Get(name)
}

// Agents returns all selection agents in evaluation order.
func (s *Simulation) Agents() []agents.SelectionAgent {
	return s.registry.All()
}

// EnableAgents turns on the named agents, leaving others untouched.
func (s *Simulation) EnableAgents(names ...string) error {
	for _, name := range names {
		a, ok := s.registry.Get(name)
		if !ok {
			return fmt.Errorf("unknown selection agent %q", name)
		}
		a.SetEnabled(true)
	}
	return nil
}

// ApplyPreset disables every agent, then enables the preset's agents and
// switches to its environment if it names one.
func (s *Simulation) ApplyPreset(name string) error {
	preset, ok := s.cfg.Preset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}

	s.registry.ResetAll()
	if err := s.EnableAgents(preset.Agents...); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	if preset.Environment != 0 {
		if err := s.SetEnvironment(preset.Environment); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}

	slog.Info("preset applied",
		"preset", name,
		"environment", s.env.String(),
		"agents", telemetry.JoinAgents(s.registry.EnabledNames()),
	)
	return nil
}

// Reset disables every agent, recreates the founder population and zeroes
// the generation counter. The environment is kept.
func (s *Simulation) Reset() {
	s.registry.ResetAll()
	s.pop.Clear()
	s.collector.Reset()
	s.bookmarkDetector.Reset()
	s.generation = 0
	s.seedFounders()
}

// Close releases output files.
func (s *Simulation) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	return s.outputManager.Close()
}
