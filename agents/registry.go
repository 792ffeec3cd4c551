package agents

import (
	"fmt"

	"github.com/pthm-cable/natsel/environment"
)

// Result pairs an agent with its adjustments for one evaluation.
type Result struct {
	Agent       string
	Adjustments []Adjustment
}

// Registry holds the selection agents of one simulation in evaluation order.
type Registry struct {
	agents []SelectionAgent
	byName map[string]SelectionAgent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]SelectionAgent)}
}

// Register appends an agent. Names must be unique.
func (r *Registry) Register(a SelectionAgent) error {
	if _, dup := r.byName[a.Name()]; dup {
		return fmt.Errorf("selection agent %q registered twice", a.Name())
	}
	r.agents = append(r.agents, a)
	r.byName[a.Name()] = a
	return nil
}

// Get returns an agent by name.
func (r *Registry) Get(name string) (SelectionAgent, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// All returns all agents in registration order.
func (r *Registry) All() []SelectionAgent {
	out := make([]SelectionAgent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Names returns agent names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.agents))
	for i, a := range r.agents {
		names[i] = a.Name()
	}
	return names
}

// EnabledNames returns the names of enabled agents in registration order.
func (r *Registry) EnabledNames() []string {
	var names []string
	for _, a := range r.agents {
		if a.Enabled() {
			names = append(names, a.Name())
		}
	}
	return names
}

// States returns the enabled flag of every agent keyed by name.
func (r *Registry) States() map[string]bool {
	states := make(map[string]bool, len(r.agents))
	for _, a := range r.agents {
		states[a.Name()] = a.Enabled()
	}
	return states
}

// ResetAll disables every agent.
func (r *Registry) ResetAll() {
	for _, a := range r.agents {
		a.Reset()
	}
}

// Subscribe registers fn on every agent and returns one cancel for all.
func (r *Registry) Subscribe(fn Listener) (cancel func()) {
	cancels := make([]func(), len(r.agents))
	for i, a := range r.agents {
		cancels[i] = a.Subscribe(fn)
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Evaluate calls every agent so each checks its preconditions. Only enabled
// agents produce adjustments; agents with none are left out of the results.
func (r *Registry) Evaluate(individuals []Individual, env environment.Environment) ([]Result, error) {
	var results []Result
	for _, a := range r.agents {
		adjs, err := a.Evaluate(individuals, env)
		if err != nil {
			return nil, err
		}
		if len(adjs) > 0 {
			results = append(results, Result{Agent: a.Name(), Adjustments: adjs})
		}
	}
	return results, nil
}
