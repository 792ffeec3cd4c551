// Package agents defines environmental factors and the selection agents that
// adjust survival and fertility of a population.
package agents

// Listener is called with the factor name and its new enabled state.
type Listener func(name string, enabled bool)

// Factor is a toggleable influence on the population. The enabled flag
// defaults to false and Reset returns it there.
//
// Listeners run synchronously inside SetEnabled/Reset, in subscription order,
// and only when the value actually changes. Factor is not safe for concurrent
// use; it is mutated from the single simulation context.
type Factor struct {
	name      string
	enabled   bool
	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

// NewFactor creates a disabled factor.
func NewFactor(name string) *Factor {
	return &Factor{name: name}
}

// Name returns the factor name (also its string-resource key).
func (f *Factor) Name() string {
	return f.name
}

// Enabled reports the current state.
func (f *Factor) Enabled() bool {
	return f.enabled
}

// SetEnabled updates the state and notifies listeners on change.
func (f *Factor) SetEnabled(enabled bool) {
	if f.enabled == enabled {
		return
	}
	f.enabled = enabled
	f.notify()
}

// Reset forces the state back to disabled.
func (f *Factor) Reset() {
	f.SetEnabled(false)
}

// Subscribe registers fn for change notifications. The returned function
// removes the subscription; calling it more than once is harmless.
func (f *Factor) Subscribe(fn Listener) (cancel func()) {
	f.nextSub++
	id := f.nextSub
	f.listeners = append(f.listeners, subscription{id: id, fn: fn})

	return func() {
		for i, s := range f.listeners {
			if s.id == id {
				f.listeners = append(f.listeners[:i:i], f.listeners[i+1:]...)
				return
			}
		}
	}
}

func (f *Factor) notify() {
	// Snapshot so listeners may unsubscribe during dispatch
	subs := make([]subscription, len(f.listeners))
	copy(subs, f.listeners)
	for _, s := range subs {
		s.fn(f.name, f.enabled)
	}
}
