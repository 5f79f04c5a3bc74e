package interp

import (
	"io"
	"time"
)

// registerBuiltins injects the built-ins named in spec.md §6 into the
// interpreter's global scope. Their names start with "$" so they can
// never collide with a user-declared identifier.
func registerBuiltins(i *Interpreter) {
	define := func(name string, arity int, fn func(i *Interpreter, args []Value) (Value, error)) {
		i.Globals.Define(name, &BuiltinFn{FnName: name, ArityN: arity, Fn: fn})
	}

	define("$clock", 0, func(i *Interpreter, args []Value) (Value, error) {
		return time.Since(i.startedAt).Seconds(), nil
	})

	define("$print", 1, func(i *Interpreter, args []Value) (Value, error) {
		io.WriteString(i.Out, Stringify(args[0]))
		return nil, nil
	})

	define("$println", 1, func(i *Interpreter, args []Value) (Value, error) {
		io.WriteString(i.Out, Stringify(args[0]))
		io.WriteString(i.Out, "\n")
		return nil, nil
	})

	define("$str", 1, func(i *Interpreter, args []Value) (Value, error) {
		return Stringify(args[0]), nil
	})
}
