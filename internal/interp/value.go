package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opalscript/lumen/internal/ast"
)

// Value is any runtime value: nil (null), bool, float64 (number), string,
// *BuiltinFn, *UserFn, *Class, or *Instance.
type Value = any

// Callable is implemented by every value that can appear as the callee
// of a Call expression.
type Callable interface {
	Arity() int
	Call(i *Interpreter, args []Value) (Value, error)
}

// BuiltinFn wraps a host function injected into the global scope.
type BuiltinFn struct {
	FnName string
	ArityN int
	Fn     func(i *Interpreter, args []Value) (Value, error)
}

func (b *BuiltinFn) Arity() int { return b.ArityN }
func (b *BuiltinFn) Call(i *Interpreter, args []Value) (Value, error) {
	return b.Fn(i, args)
}
func (b *BuiltinFn) String() string { return fmt.Sprintf("<builtin %s>", b.FnName) }

// UserFn is a closure: a function declaration plus the environment that
// was current when the declaration executed.
type UserFn struct {
	Decl          *ast.FunctionDecl
	Closure       *Environment
	IsInitializer bool
}

func (f *UserFn) Arity() int     { return len(f.Decl.Params) }
func (f *UserFn) String() string { return fmt.Sprintf("<fn %s>", f.Decl.Name.Lexeme) }

// Bind returns a fresh closure identical to f but whose captured
// environment has been extended with self bound to instance. Two Binds
// of the same UserFn for different instances are distinct closures.
func (f *UserFn) Bind(instance *Instance) *UserFn {
	env := NewEnvironment(f.Closure)
	env.Define("self", instance)
	return &UserFn{Decl: f.Decl, Closure: env, IsInitializer: f.IsInitializer}
}

func (f *UserFn) Call(i *Interpreter, args []Value) (Value, error) {
	callEnv := NewEnvironment(f.Closure)
	for idx, param := range f.Decl.Params {
		callEnv.Define(param.Lexeme, args[idx])
	}
	err := i.execBlock(f.Decl.Body, callEnv)
	if ret, ok := asReturn(err); ok {
		if f.IsInitializer {
			return f.Closure.MustGet("self"), nil
		}
		return ret.value, nil
	}
	if err != nil {
		return nil, err
	}
	if f.IsInitializer {
		return f.Closure.MustGet("self"), nil
	}
	return nil, nil
}

// Class is a single-inheritance class value. Chain is the linearized
// ancestry [self, super, super.super, ...] precomputed at creation time.
type Class struct {
	Decl        *ast.ClassDecl
	Superclass  *Class
	Methods     map[string]*UserFn
	DefiningEnv *Environment
	Chain       []*Class
}

func (c *Class) Arity() int {
	if init, ok := c.FindMethod("$init"); ok {
		return init.Arity()
	}
	return 0
}

func (c *Class) String() string { return fmt.Sprintf("<class %s>", c.Decl.Name.Lexeme) }

// FindMethod walks the class chain (most-derived first) for a method.
func (c *Class) FindMethod(name string) (*UserFn, bool) {
	for _, cls := range c.Chain {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

func (c *Class) Call(i *Interpreter, args []Value) (Value, error) {
	instance := &Instance{Class: c, Fields: map[string]Value{}}

	// Field initializers run most-base class first, so a subclass's
	// re-declaration of the same field name overrides the base value.
	for idx := len(c.Chain) - 1; idx >= 0; idx-- {
		cls := c.Chain[idx]
		for _, field := range cls.Decl.Fields {
			var value Value
			if field.Init != nil {
				v, err := i.evalInEnv(field.Init, cls.DefiningEnv)
				if err != nil {
					return nil, err
				}
				value = v
			}
			instance.Fields[field.Name.Lexeme] = value
		}
	}

	if init, ok := c.FindMethod("$init"); ok {
		bound := init.Bind(instance)
		if _, err := bound.Call(i, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is a single instantiation of a Class with its own fields map.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

func (inst *Instance) String() string { return fmt.Sprintf("<%s instance>", inst.Class.Decl.Name.Lexeme) }

// IsTruthy implements spec.md §4.3: everything is truthy except null and
// boolean false.
func IsTruthy(v Value) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// Stringify renders v the way echo/$print/$str present it.
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(x)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.HasSuffix(s, ".0") {
		return s[:len(s)-2]
	}
	return s
}
