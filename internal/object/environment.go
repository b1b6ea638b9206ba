package object

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

var nextEnvID atomic.Uint64

// Environment is a single frame in the lexically chained environment
// graph: a dictionary of bindings plus a pointer to its enclosing frame.
// Function-call frames enclose the callee's closure
// frame, not the caller's; block frames enclose whatever frame was active
// at the block's entry.
//
// Marked is the collector's mark bit (see internal/collector); it is owned
// entirely by the collector's sweep and is meaningless between sweeps.
// There is no mutex here: a single interpretation is single-threaded (see
// spec's concurrency model), unlike the actor-based language this was
// adapted from.
type Environment struct {
	ID     uint64
	Values map[string]Object
	Outer  *Environment
	Marked bool
}

// NewEnvironment creates a fresh, empty, top-level (enclosing-less) frame.
// Used once, for globals.
func NewEnvironment() *Environment {
	return &Environment{
		ID:     nextEnvID.Add(1),
		Values: make(map[string]Object),
	}
}

// NewEnclosedEnvironment creates a frame enclosed by outer: a block frame
// when outer is the active frame at block entry, or a call frame when
// outer is a function's closure frame.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{
		ID:     nextEnvID.Add(1),
		Values: make(map[string]Object),
		Outer:  outer,
	}
}

// Define binds name to val in this frame, overwriting any existing local
// binding of the same name (re-declaration is legal at runtime; the
// resolver is what forbids it statically within a single block scope).
func (e *Environment) Define(name string, val Object) {
	e.Values[name] = val
	slog.Debug("define", slog.String("name", name), slog.Uint64("env", e.ID))
}

// Get looks up name starting in this frame and walking Outer links.
func (e *Environment) Get(name string) (Object, bool) {
	if val, ok := e.Values[name]; ok {
		return val, true
	}
	if e.Outer != nil {
		return e.Outer.Get(name)
	}
	return nil, false
}

// Assign rebinds an already-defined name, walking Outer links to find the
// nearest frame that defines it. It never creates a new binding.
func (e *Environment) Assign(name string, val Object) error {
	if _, ok := e.Values[name]; ok {
		e.Values[name] = val
		return nil
	}
	if e.Outer != nil {
		return e.Outer.Assign(name, val)
	}
	return fmt.Errorf("Undefined variable '%s'.", name)
}

// Ancestor walks distance Outer links up from e. The resolver guarantees
// distance never overruns the chain for any expression it has annotated.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.Outer
	}
	return env
}

// GetAt fetches name from the frame distance links above e.
func (e *Environment) GetAt(distance int, name string) (Object, bool) {
	val, ok := e.Ancestor(distance).Values[name]
	return val, ok
}

// AssignAt rebinds name in the frame distance links above e.
func (e *Environment) AssignAt(distance int, name string, val Object) {
	e.Ancestor(distance).Values[name] = val
}
