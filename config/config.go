// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/natsel/agents"
	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/genetics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation  SimulationConfig              `yaml:"simulation"`
	Environment environment.Environment       `yaml:"environment"`
	Genes       []genetics.GeneDef            `yaml:"genes"`
	Mutation    MutationConfig                `yaml:"mutation"`
	Agents      map[string]agents.PressureDef `yaml:"agents"`
	Presets     []PresetConfig                `yaml:"presets"`
	Telemetry   TelemetryConfig               `yaml:"telemetry"`
	Locale      string                        `yaml:"locale"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds population and generation parameters.
type SimulationConfig struct {
	InitialPopulation int     `yaml:"initial_population"` // Founders spawned at start and on reset
	MaxPopulation     int     `yaml:"max_population"`     // Carrying capacity; excess is culled
	MaxAge            int32   `yaml:"max_age"`            // Generations before death of old age (0 = immortal)
	LitterSize        float64 `yaml:"litter_size"`        // Offspring per pair before fertility adjustments
	Generations       int     `yaml:"generations"`        // Default run length for the headless driver
}

// MutationConfig holds per-gene mutation probabilities.
type MutationConfig struct {
	Rates map[string]float64 `yaml:"rates"` // gene id -> probability per offspring
}

// PresetConfig is a named scenario: an environment and the agents to enable.
type PresetConfig struct {
	Name        string                  `yaml:"name"`
	Environment environment.Environment `yaml:"environment,omitempty"` // Unset = keep current
	Agents      []string                `yaml:"agents"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	LogEvery int `yaml:"log_every"` // Log generation stats every N generations (0 = never)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Taxonomy      *genetics.Taxonomy
	MutationRates genetics.MutationRates
	PresetIndex   map[string]int // name -> index into Presets
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges user YAML over the embedded defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills defaults and validates everything that would
// otherwise fail mid-simulation.
func (c *Config) computeDerived() error {
	// Synthesize the stock genes if none specified. Stock agents name stock
	// alleles, so they are only synthesized alongside stock genes.
	customGenes := len(c.Genes) > 0
	if !customGenes {
		c.Genes = genetics.DefaultGeneDefs()
	}
	if len(c.Agents) == 0 && !customGenes {
		c.Agents = agents.DefaultDefs()
	}

	if err := environment.Check(c.Environment); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	s := c.Simulation
	if s.InitialPopulation < 2 {
		return fmt.Errorf("simulation.initial_population must be at least 2, got %d", s.InitialPopulation)
	}
	if s.MaxPopulation < s.InitialPopulation {
		return fmt.Errorf("simulation.max_population %d below initial_population %d", s.MaxPopulation, s.InitialPopulation)
	}
	if s.LitterSize < 0 {
		return fmt.Errorf("simulation.litter_size must not be negative, got %v", s.LitterSize)
	}
	if s.MaxAge < 0 {
		return fmt.Errorf("simulation.max_age must not be negative, got %d", s.MaxAge)
	}

	tax, err := genetics.NewTaxonomy(c.Genes)
	if err != nil {
		return fmt.Errorf("genes: %w", err)
	}
	c.Derived.Taxonomy = tax

	rates, err := tax.MutationRates(c.Mutation.Rates)
	if err != nil {
		return fmt.Errorf("mutation: %w", err)
	}
	c.Derived.MutationRates = rates

	if len(c.Agents) == 0 {
		return fmt.Errorf("agents: %w", &genetics.ConfigError{Reason: "custom genes require explicit agent rules"})
	}
	for name, def := range c.Agents {
		if _, err := agents.New(name, tax, def); err != nil {
			return fmt.Errorf("agents: %w", err)
		}
	}

	c.Derived.PresetIndex = make(map[string]int, len(c.Presets))
	for i, p := range c.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset %d has no name", i)
		}
		if _, dup := c.Derived.PresetIndex[p.Name]; dup {
			return fmt.Errorf("preset %q defined more than once", p.Name)
		}
		for _, a := range p.Agents {
			if _, ok := c.Agents[a]; !ok {
				return fmt.Errorf("preset %q: unknown agent %q", p.Name, a)
			}
		}
		c.Derived.PresetIndex[p.Name] = i
	}

	return nil
}

// Preset returns the named preset.
func (c *Config) Preset(name string) (PresetConfig, bool) {
	i, ok := c.Derived.PresetIndex[name]
	if !ok {
		return PresetConfig{}, false
	}
	return c.Presets[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
