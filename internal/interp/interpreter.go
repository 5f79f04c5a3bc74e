// Package interp implements the tree-walking evaluator: it runs an AST
// produced by internal/parser against a nested lexical environment,
// printing to Out and optionally invoking a user-defined $main entry
// point.
package interp

import (
	"io"
	"time"

	"github.com/opalscript/lumen/internal/ast"
	"github.com/opalscript/lumen/internal/langerr"
	"github.com/opalscript/lumen/internal/token"
)

// Interpreter owns the global environment and the output sink every
// echo/$print/$println writes to.
type Interpreter struct {
	Globals   *Environment
	Out       io.Writer
	startedAt time.Time
}

// New returns an Interpreter with a global scope pre-populated with
// built-ins (spec.md §6).
func New(out io.Writer) *Interpreter {
	i := &Interpreter{Globals: NewEnvironment(nil), Out: out, startedAt: time.Now()}
	registerBuiltins(i)
	return i
}

// Run executes every top-level statement in order, then invokes $main
// if the global scope defines it (spec.md §4.3 "Program entry").
func (i *Interpreter) Run(stmts []ast.Stmt) error {
	for _, s := range stmts {
		err := i.exec(s, i.Globals)
		if err == nil {
			continue
		}
		if c, ok := err.(*control); ok {
			switch c.kind {
			case ctrlReturn:
				// A bare top-level "return" ends the script's implicit
				// top-level body; nothing left to do.
				return nil
			case ctrlBreak, ctrlContinue:
				return langerr.NewRuntime(0, c.Error())
			}
		}
		return err
	}

	mainFn, ok := i.Globals.vars["$main"]
	if !ok {
		return nil
	}
	callable, ok := mainFn.(Callable)
	if !ok {
		return langerr.NewRuntime(0, "$main must be callable")
	}
	if callable.Arity() != 0 {
		return langerr.NewRuntime(0, "$main must take no arguments")
	}
	_, err := callable.Call(i, nil)
	if c, ok := err.(*control); ok {
		return langerr.NewRuntime(0, c.Error())
	}
	return err
}

// --- statement execution ---

func (i *Interpreter) exec(s ast.Stmt, env *Environment) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, err := i.eval(n.Expr, env)
		return err
	case *ast.VarDecl:
		return i.execVarDecl(n, env)
	case *ast.Block:
		return i.execBlock(n, NewEnvironment(env))
	case *ast.Echo:
		return i.execEcho(n, env)
	case *ast.If:
		return i.execIf(n, env)
	case *ast.While:
		return i.execWhile(n, env)
	case *ast.For:
		return i.execFor(n, env)
	case *ast.Break:
		return breakSignal
	case *ast.Continue:
		return continueSignal
	case *ast.Return:
		return i.execReturn(n, env)
	case *ast.FunctionDecl:
		env.Define(n.Name.Lexeme, &UserFn{Decl: n, Closure: env})
		return nil
	case *ast.ClassDecl:
		return i.execClassDecl(n, env)
	default:
		return langerr.NewRuntime(0, "unhandled statement type %T", s)
	}
}

func (i *Interpreter) execVarDecl(n *ast.VarDecl, env *Environment) error {
	var value Value
	if n.Init != nil {
		v, err := i.eval(n.Init, env)
		if err != nil {
			return err
		}
		value = v
	}
	env.Define(n.Name.Lexeme, value)
	return nil
}

func (i *Interpreter) execBlock(b *ast.Block, env *Environment) error {
	for _, s := range b.Stmts {
		if err := i.exec(s, env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) execEcho(n *ast.Echo, env *Environment) error {
	parts := make([]string, len(n.Exprs))
	for idx, e := range n.Exprs {
		v, err := i.eval(e, env)
		if err != nil {
			return err
		}
		parts[idx] = Stringify(v)
	}
	io.WriteString(i.Out, joinSpace(parts))
	io.WriteString(i.Out, "\n")
	return nil
}

func joinSpace(parts []string) string {
	out := ""
	for idx, p := range parts {
		if idx > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func (i *Interpreter) execIf(n *ast.If, env *Environment) error {
	cond, err := i.eval(n.Cond, env)
	if err != nil {
		return err
	}
	if IsTruthy(cond) {
		return i.execBlock(n.Then, NewEnvironment(env))
	}
	if n.Else == nil {
		return nil
	}
	if block, ok := n.Else.(*ast.Block); ok {
		return i.execBlock(block, NewEnvironment(env))
	}
	return i.exec(n.Else, env)
}

func (i *Interpreter) execWhile(n *ast.While, env *Environment) error {
	for {
		cond, err := i.eval(n.Cond, env)
		if err != nil {
			return err
		}
		if !IsTruthy(cond) {
			return nil
		}
		err = i.execBlock(n.Body, NewEnvironment(env))
		if err == nil {
			continue
		}
		if asControl(err, ctrlBreak) {
			return nil
		}
		if asControl(err, ctrlContinue) {
			continue
		}
		return err
	}
}

func (i *Interpreter) execFor(n *ast.For, env *Environment) error {
	forEnv := NewEnvironment(env)
	if n.Init != nil {
		if err := i.exec(n.Init, forEnv); err != nil {
			return err
		}
	}
	for {
		cond, err := i.eval(n.Cond, forEnv)
		if err != nil {
			return err
		}
		if !IsTruthy(cond) {
			return nil
		}

		bodyErr := i.execBlock(n.Body, NewEnvironment(forEnv))
		if bodyErr != nil {
			if asControl(bodyErr, ctrlBreak) {
				return nil
			}
			if !asControl(bodyErr, ctrlContinue) {
				return bodyErr
			}
			// continue: fall through to run the increment below.
		}

		if n.Incr != nil {
			if _, err := i.eval(n.Incr, forEnv); err != nil {
				return err
			}
		}
	}
}

func (i *Interpreter) execReturn(n *ast.Return, env *Environment) error {
	var value Value
	if n.Value != nil {
		v, err := i.eval(n.Value, env)
		if err != nil {
			return err
		}
		value = v
	}
	return returnSignal(value)
}

func (i *Interpreter) execClassDecl(n *ast.ClassDecl, env *Environment) error {
	var superclass *Class
	if n.Superclass != nil {
		v, err := i.eval(n.Superclass, env)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return langerr.NewRuntime(n.Superclass.Name.Line, "superclass '%s' is not a class", n.Superclass.Name.Lexeme)
		}
		superclass = sc
	}

	classEnv := NewEnvironment(env)
	if superclass != nil {
		classEnv.Define("super", superclass)
	}

	methods := make(map[string]*UserFn, len(n.Methods))
	for _, m := range n.Methods {
		methods[m.Name.Lexeme] = &UserFn{
			Decl:          m,
			Closure:       classEnv,
			IsInitializer: m.Name.Lexeme == "$init",
		}
	}

	class := &Class{Decl: n, Superclass: superclass, Methods: methods, DefiningEnv: classEnv}
	if superclass != nil {
		class.Chain = append([]*Class{class}, superclass.Chain...)
	} else {
		class.Chain = []*Class{class}
	}

	env.Define(n.Name.Lexeme, class)
	return nil
}

// --- expression evaluation ---

func (i *Interpreter) eval(e ast.Expr, env *Environment) (Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.Grouping:
		return i.eval(n.Inner, env)
	case *ast.Variable:
		return env.Get(n.Name)
	case *ast.Unary:
		return i.evalUnary(n, env)
	case *ast.Binary:
		return i.evalBinary(n, env)
	case *ast.Logical:
		return i.evalLogical(n, env)
	case *ast.Conditional:
		return i.evalConditional(n, env)
	case *ast.Assign:
		return i.evalAssign(n, env)
	case *ast.Call:
		return i.evalCall(n, env)
	case *ast.GetAttr:
		return i.evalGetAttr(n, env)
	case *ast.SetAttr:
		return i.evalSetAttr(n, env)
	case *ast.Self:
		return env.Get(n.Tok)
	case *ast.Super:
		return i.evalSuper(n, env)
	default:
		return nil, langerr.NewRuntime(e.Line(), "unhandled expression type %T", e)
	}
}

// evalInEnv evaluates e directly against env, used for field
// initializers which must run in a specific class's defining
// environment rather than the caller's current scope.
func (i *Interpreter) evalInEnv(e ast.Expr, env *Environment) (Value, error) {
	return i.eval(e, env)
}

func (i *Interpreter) evalUnary(n *ast.Unary, env *Environment) (Value, error) {
	operand, err := i.eval(n.Operand, env)
	if err != nil {
		return nil, err
	}
	switch n.Op.Kind {
	case token.MINUS:
		num, ok := operand.(float64)
		if !ok {
			return nil, langerr.NewRuntime(n.Op.Line, "operand of unary '-' must be a number")
		}
		return -num, nil
	case token.BANG:
		return !IsTruthy(operand), nil
	default:
		return nil, langerr.NewRuntime(n.Op.Line, "unsupported unary operator '%s'", n.Op.Lexeme)
	}
}

func bothNumbers(left, right Value, op token.Token) (float64, float64, error) {
	lf, ok1 := left.(float64)
	rf, ok2 := right.(float64)
	if !ok1 || !ok2 {
		return 0, 0, langerr.NewRuntime(op.Line, "operands of '%s' must be numbers", op.Lexeme)
	}
	return lf, rf, nil
}

func (i *Interpreter) evalBinary(n *ast.Binary, env *Environment) (Value, error) {
	left, err := i.eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op.Kind {
	case token.PLUS, token.PLUS_EQUAL:
		if lf, ok := left.(float64); ok {
			if rf, ok := right.(float64); ok {
				return lf + rf, nil
			}
		}
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
		return nil, langerr.NewRuntime(n.Op.Line, "operands of '+' must both be numbers or both be strings")
	case token.MINUS, token.MINUS_EQUAL:
		lf, rf, err := bothNumbers(left, right, n.Op)
		if err != nil {
			return nil, err
		}
		return lf - rf, nil
	case token.STAR:
		lf, rf, err := bothNumbers(left, right, n.Op)
		if err != nil {
			return nil, err
		}
		return lf * rf, nil
	case token.SLASH:
		lf, rf, err := bothNumbers(left, right, n.Op)
		if err != nil {
			return nil, err
		}
		return lf / rf, nil
	case token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL:
		return compareValues(left, right, n.Op)
	case token.EQUAL_EQUAL:
		return left == right, nil
	case token.BANG_EQUAL:
		return left != right, nil
	default:
		return nil, langerr.NewRuntime(n.Op.Line, "unsupported operator '%s'", n.Op.Lexeme)
	}
}

func compareValues(left, right Value, op token.Token) (Value, error) {
	if lf, ok := left.(float64); ok {
		if rf, ok := right.(float64); ok {
			switch op.Kind {
			case token.LESS:
				return lf < rf, nil
			case token.LESS_EQUAL:
				return lf <= rf, nil
			case token.GREATER:
				return lf > rf, nil
			case token.GREATER_EQUAL:
				return lf >= rf, nil
			}
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			switch op.Kind {
			case token.LESS:
				return ls < rs, nil
			case token.LESS_EQUAL:
				return ls <= rs, nil
			case token.GREATER:
				return ls > rs, nil
			case token.GREATER_EQUAL:
				return ls >= rs, nil
			}
		}
	}
	return nil, langerr.NewRuntime(op.Line, "operands of '%s' must both be numbers or both be strings", op.Lexeme)
}

func (i *Interpreter) evalLogical(n *ast.Logical, env *Environment) (Value, error) {
	left, err := i.eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	switch n.Op.Kind {
	case token.OR:
		if IsTruthy(left) {
			return left, nil
		}
	case token.AND:
		if !IsTruthy(left) {
			return left, nil
		}
	}
	return i.eval(n.Right, env)
}

func (i *Interpreter) evalConditional(n *ast.Conditional, env *Environment) (Value, error) {
	cond, err := i.eval(n.Cond, env)
	if err != nil {
		return nil, err
	}
	if IsTruthy(cond) {
		return i.eval(n.Then, env)
	}
	return i.eval(n.Else, env)
}

func (i *Interpreter) evalAssign(n *ast.Assign, env *Environment) (Value, error) {
	v, err := i.eval(n.Value, env)
	if err != nil {
		return nil, err
	}
	if err := env.Assign(n.Name, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (i *Interpreter) evalCall(n *ast.Call, env *Environment) (Value, error) {
	callee, err := i.eval(n.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := i.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	callable, ok := callee.(Callable)
	if !ok {
		return nil, langerr.NewRuntime(n.Paren.Line, "can only call functions and classes")
	}
	if len(args) != callable.Arity() {
		return nil, langerr.NewRuntime(n.Paren.Line, "expected %d arguments but got %d", callable.Arity(), len(args))
	}
	return callable.Call(i, args)
}

func (i *Interpreter) evalGetAttr(n *ast.GetAttr, env *Environment) (Value, error) {
	obj, err := i.eval(n.Object, env)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*Instance)
	if !ok {
		return nil, langerr.NewRuntime(n.Name.Line, "only instances have attributes")
	}
	if v, ok := inst.Fields[n.Name.Lexeme]; ok {
		return v, nil
	}
	if m, ok := inst.Class.FindMethod(n.Name.Lexeme); ok {
		return m.Bind(inst), nil
	}
	return nil, langerr.NewRuntime(n.Name.Line, "undefined attribute '%s'", n.Name.Lexeme)
}

func (i *Interpreter) evalSetAttr(n *ast.SetAttr, env *Environment) (Value, error) {
	obj, err := i.eval(n.Object, env)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*Instance)
	if !ok {
		return nil, langerr.NewRuntime(n.Name.Line, "only instances have attributes")
	}
	if _, exists := inst.Fields[n.Name.Lexeme]; !exists {
		return nil, langerr.NewRuntime(n.Name.Line, "undefined attribute '%s'", n.Name.Lexeme)
	}
	v, err := i.eval(n.Value, env)
	if err != nil {
		return nil, err
	}
	inst.Fields[n.Name.Lexeme] = v
	return v, nil
}

func (i *Interpreter) evalSuper(n *ast.Super, env *Environment) (Value, error) {
	superVal, err := env.Get(n.Keyword)
	if err != nil {
		return nil, err
	}
	superclass, ok := superVal.(*Class)
	if !ok {
		return nil, langerr.NewRuntime(n.Keyword.Line, "'super' did not resolve to a class")
	}
	selfVal, err := env.Get(token.Token{Kind: token.SELF, Lexeme: "self", Line: n.Keyword.Line})
	if err != nil {
		return nil, langerr.NewRuntime(n.Keyword.Line, "'super' used outside a method")
	}
	self, ok := selfVal.(*Instance)
	if !ok {
		return nil, langerr.NewRuntime(n.Keyword.Line, "'super' used outside a method")
	}
	method, ok := superclass.FindMethod(n.Method.Lexeme)
	if !ok {
		return nil, langerr.NewRuntime(n.Method.Line, "undefined attribute '%s'", n.Method.Lexeme)
	}
	return method.Bind(self), nil
}
