package interp

import (
	"github.com/opalscript/lumen/internal/langerr"
	"github.com/opalscript/lumen/internal/token"
)

// Environment is one scope in the lexical scope chain: a name-to-value
// mapping plus an optional enclosing scope. Lookup and assignment walk
// outward until a binding is found or the chain is exhausted.
type Environment struct {
	vars      map[string]Value
	enclosing *Environment
}

// NewEnvironment returns a fresh scope; enclosing may be nil for the
// global scope.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{vars: make(map[string]Value), enclosing: enclosing}
}

// Define binds name in this scope, shadowing any outer binding.
func (e *Environment) Define(name string, v Value) {
	e.vars[name] = v
}

// Get looks up name (from a Variable/Self/Super reference token) walking
// outward through enclosing scopes.
func (e *Environment) Get(name token.Token) (Value, error) {
	for scope := e; scope != nil; scope = scope.enclosing {
		if v, ok := scope.vars[name.Lexeme]; ok {
			return v, nil
		}
	}
	return nil, langerr.NewRuntime(name.Line, "undefined variable '%s'", name.Lexeme)
}

// MustGet looks up a name the interpreter itself is responsible for
// having bound (e.g. "self", "super" in a method's captured
// environment); a miss indicates an interpreter bug, not a user error.
func (e *Environment) MustGet(name string) Value {
	for scope := e; scope != nil; scope = scope.enclosing {
		if v, ok := scope.vars[name]; ok {
			return v
		}
	}
	panic("lumen/interp: internal binding " + name + " missing from environment")
}

// Assign walks outward to find an existing binding for name and updates
// it in place; it never creates a new binding.
func (e *Environment) Assign(name token.Token, v Value) error {
	for scope := e; scope != nil; scope = scope.enclosing {
		if _, ok := scope.vars[name.Lexeme]; ok {
			scope.vars[name.Lexeme] = v
			return nil
		}
	}
	return langerr.NewRuntime(name.Line, "undefined variable '%s'", name.Lexeme)
}
