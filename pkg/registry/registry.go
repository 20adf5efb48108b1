// Package registry tracks the execution environments of a test run: each one's
// context stack, current test, and buffered log.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Protocol violations. The runner sent events the reporter cannot attribute;
// callers treat these as fatal.
var (
	ErrUnknownEnvironment   = errors.New("unknown environment")
	ErrDuplicateEnvironment = errors.New("environment already registered")
	ErrUnbalancedContext    = errors.New("unbalanced context")
)

// LogEntry is one message logged while a test was running.
type LogEntry struct {
	Level   string
	Message string
}

// Environment is the live state of one execution environment.
type Environment struct {
	UUID        string
	Description string
	Contexts    []string
	CurrentTest string
	Log         []LogEntry

	inTest bool
}

// Registry holds environments keyed by UUID, in registration order.
type Registry struct {
	envs  map[string]*Environment
	order []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{envs: make(map[string]*Environment)}
}

// Register creates the environment for uuid. An empty description falls back to the uuid.
func (r *Registry) Register(uuid, description string) (*Environment, error) {
	if _, ok := r.envs[uuid]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEnvironment, uuid)
	}
	if description == "" {
		description = uuid
	}
	env := &Environment{UUID: uuid, Description: description}
	r.envs[uuid] = env
	r.order = append(r.order, uuid)
	return env, nil
}

// Lookup resolves uuid to a registered environment. It never creates one.
func (r *Registry) Lookup(uuid string) (*Environment, error) {
	env, ok := r.envs[uuid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, uuid)
	}
	return env, nil
}

// Len returns the number of registered environments.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the environments in registration order.
func (r *Registry) All() []*Environment {
	out := make([]*Environment, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.envs[id])
	}
	return out
}

// Unbalanced returns environments that still have open contexts.
func (r *Registry) Unbalanced() []*Environment {
	var out []*Environment
	for _, env := range r.All() {
		if len(env.Contexts) > 0 {
			out = append(out, env)
		}
	}
	return out
}

// PushContext enters a named context.
func (e *Environment) PushContext(name string) {
	e.Contexts = append(e.Contexts, name)
}

// PopContext leaves the innermost context. When name is non-empty it must
// match the context being closed.
func (e *Environment) PopContext(name string) error {
	n := len(e.Contexts)
	if n == 0 {
		return fmt.Errorf("%w: end of %q with no open context in %s", ErrUnbalancedContext, name, e.Description)
	}
	if top := e.Contexts[n-1]; name != "" && top != name {
		return fmt.Errorf("%w: end of %q while %q is open in %s", ErrUnbalancedContext, name, top, e.Description)
	}
	e.Contexts = e.Contexts[:n-1]
	return nil
}

// BeginTest marks name as running and starts a fresh log.
func (e *Environment) BeginTest(name string) {
	e.CurrentTest = name
	e.inTest = true
	e.Log = nil
}

// EndTest clears the current test. The log is kept until the next BeginTest,
// since outcome events may arrive after teardown.
func (e *Environment) EndTest() {
	e.CurrentTest = ""
	e.inTest = false
}

// ContextualName returns the fully qualified name of test name.
func (e *Environment) ContextualName(name string) string {
	parts := make([]string, 0, len(e.Contexts)+1)
	parts = append(parts, e.Contexts...)
	parts = append(parts, name)
	return strings.Join(parts, " ")
}

// AppendLog buffers entry for the current test. It returns false when no test
// is active; the caller then reports the message on its own.
func (e *Environment) AppendLog(entry LogEntry) (LogEntry, bool) {
	if !e.inTest {
		return LogEntry{}, false
	}
	e.Log = append(e.Log, entry)
	return entry, true
}
