// Package parser implements the recursive-descent parser that builds an
// AST from a token stream. It trusts the lexer to have correctly
// tokenized the input and focuses purely on assembling the tree; it
// reports and stops at the first syntax error, without recovery.
package parser

import (
	"github.com/opalscript/lumen/internal/ast"
	"github.com/opalscript/lumen/internal/langerr"
	"github.com/opalscript/lumen/internal/token"
)

// Parser holds the token stream and current read position.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New returns a Parser over tokens (expected to end with an EOF token).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseProgram parses an ordered sequence of top-level declarations.
func ParseProgram(tokens []token.Token) ([]ast.Stmt, error) {
	p := New(tokens)
	var stmts []ast.Stmt
	for !p.check(token.EOF) {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// ParseExpression parses a single expression, used by the CLI's
// debug_expr subcommand.
func ParseExpression(tokens []token.Token) (ast.Expr, error) {
	p := New(tokens)
	return p.expression()
}

// --- token stream helpers ---

func (p *Parser) current() token.Token { return p.tokens[p.pos] }

func (p *Parser) previous() token.Token { return p.tokens[p.pos-1] }

func (p *Parser) check(k token.Kind) bool { return p.current().Kind == k }

func (p *Parser) advance() token.Token {
	if !p.check(token.EOF) {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) matchAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, message string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.current(), message)
}

func (p *Parser) errorAt(t token.Token, message string) error {
	if t.Kind == token.EOF {
		return langerr.NewParse(t.Line, "%s (at EOF)", message)
	}
	return langerr.NewParse(t.Line, "%s (got %q)", message, t.Lexeme)
}

// --- declarations ---

func (p *Parser) declaration() (ast.Stmt, error) {
	switch {
	case p.matchAny(token.VAR):
		return p.varDecl()
	case p.matchAny(token.DEF):
		return p.function()
	case p.matchAny(token.CLASS):
		return p.classDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) varDecl() (ast.Stmt, error) {
	name, err := p.expect(token.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.matchAny(token.EQUAL) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Name: name, Init: init}, nil
}

// function parses "IDENT ( params? ) block", used for both funDecl (after
// "def" has been consumed by declaration) and method declarations inside
// a class body.
func (p *Parser) function() (*ast.FunctionDecl, error) {
	name, err := p.expect(token.IDENTIFIER, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LEFT_PAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []token.Token
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= 255 {
				return nil, p.errorAt(p.current(), "can't have more than 255 parameters")
			}
			param, err := p.expect(token.IDENTIFIER, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.matchAny(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RIGHT_PAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) classDecl() (ast.Stmt, error) {
	name, err := p.expect(token.IDENTIFIER, "expected class name")
	if err != nil {
		return nil, err
	}
	var superclass *ast.Variable
	if p.matchAny(token.LESS) {
		superTok, err := p.expect(token.IDENTIFIER, "expected superclass name")
		if err != nil {
			return nil, err
		}
		superclass = &ast.Variable{Name: superTok}
	}
	if _, err := p.expect(token.LEFT_BRACE, "expected '{' before class body"); err != nil {
		return nil, err
	}

	var methods []*ast.FunctionDecl
	var fields []*ast.VarDecl
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		switch {
		case p.matchAny(token.VAR):
			field, err := p.varDecl()
			if err != nil {
				return nil, err
			}
			fields = append(fields, field.(*ast.VarDecl))
		case p.matchAny(token.DEF):
			method, err := p.function()
			if err != nil {
				return nil, err
			}
			methods = append(methods, method)
		default:
			return nil, p.errorAt(p.current(), "expected field or method declaration in class body")
		}
	}
	if _, err := p.expect(token.RIGHT_BRACE, "expected '}' after class body"); err != nil {
		return nil, err
	}
	return &ast.ClassDecl{Name: name, Superclass: superclass, Methods: methods, Fields: fields}, nil
}

// --- statements ---

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.matchAny(token.LEFT_BRACE):
		return p.blockFromOpenBrace()
	case p.matchAny(token.ECHO):
		return p.echoStatement()
	case p.matchAny(token.IF):
		return p.ifStatement()
	case p.matchAny(token.WHILE):
		return p.whileStatement()
	case p.matchAny(token.FOR):
		return p.forStatement()
	case p.matchAny(token.BREAK):
		tok := p.previous()
		if _, err := p.expect(token.SEMICOLON, "expected ';' after 'break'"); err != nil {
			return nil, err
		}
		return &ast.Break{Tok: tok}, nil
	case p.matchAny(token.CONTINUE):
		tok := p.previous()
		if _, err := p.expect(token.SEMICOLON, "expected ';' after 'continue'"); err != nil {
			return nil, err
		}
		return &ast.Continue{Tok: tok}, nil
	case p.matchAny(token.RETURN):
		return p.returnStatement()
	default:
		return p.exprStatement()
	}
}

func (p *Parser) block() (*ast.Block, error) {
	if _, err := p.expect(token.LEFT_BRACE, "expected '{'"); err != nil {
		return nil, err
	}
	return p.blockFromOpenBrace()
}

// blockFromOpenBrace parses statements up to and including the closing
// '}', assuming the opening '{' has already been consumed. Blocks accept
// the same declaration forms (var/def/class) as the program top level:
// a function declared inside another function's body closes over that
// call's locals, which is how two calls to the same outer function
// produce the two distinct closures spec.md §3's UserFn identity
// invariant and §8's closure-capture property require.
func (p *Parser) blockFromOpenBrace() (*ast.Block, error) {
	var stmts []ast.Stmt
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(token.RIGHT_BRACE, "expected '}' after block"); err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: stmts}, nil
}

func (p *Parser) echoStatement() (ast.Stmt, error) {
	var exprs []ast.Expr
	if !p.check(token.SEMICOLON) {
		for {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
			if !p.matchAny(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after echo"); err != nil {
		return nil, err
	}
	return &ast.Echo{Exprs: exprs}, nil
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.block()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	if p.matchAny(token.ELSE) {
		if p.matchAny(token.IF) {
			elseStmt, err = p.ifStatement()
		} else {
			elseStmt, err = p.block()
		}
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: thenBlock, Else: elseStmt}, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) forStatement() (ast.Stmt, error) {
	var init ast.Stmt
	var err error
	switch {
	case p.matchAny(token.SEMICOLON):
		init = nil
	case p.matchAny(token.VAR):
		init, err = p.varDecl()
	default:
		init, err = p.exprStatement()
	}
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond, err = p.expression()
		if err != nil {
			return nil, err
		}
	} else {
		cond = &ast.Literal{Value: true, Tok: p.current()}
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after loop condition"); err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(token.LEFT_BRACE) {
		incr, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Incr: incr, Body: body}, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.previous()
	var value ast.Expr
	var err error
	if !p.check(token.SEMICOLON) {
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after return value"); err != nil {
		return nil, err
	}
	return &ast.Return{Keyword: keyword, Value: value}, nil
}

func (p *Parser) exprStatement() (ast.Stmt, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: e}, nil
}

// --- expressions, lowest to highest precedence ---

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	left, err := p.conditional()
	if err != nil {
		return nil, err
	}

	if p.matchAny(token.EQUAL, token.PLUS_EQUAL, token.MINUS_EQUAL) {
		op := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		// Desugar x += e / x -= e into x = Binary(x, "+="/"-=", e); the
		// compound operator token is kept so the evaluator can dispatch
		// on PLUS_EQUAL/MINUS_EQUAL directly.
		if op.Kind == token.PLUS_EQUAL || op.Kind == token.MINUS_EQUAL {
			value = &ast.Binary{Left: left, Op: op, Right: value}
		}

		switch target := left.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}, nil
		case *ast.GetAttr:
			return &ast.SetAttr{Object: target.Object, Name: target.Name, Value: value}, nil
		default:
			return nil, p.errorAt(op, "Invalid assignment target")
		}
	}
	return left, nil
}

func (p *Parser) conditional() (ast.Expr, error) {
	cond, err := p.logical()
	if err != nil {
		return nil, err
	}
	if p.matchAny(token.QUESTION) {
		then, err := p.logical()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON, "expected ':' in conditional expression"); err != nil {
			return nil, err
		}
		els, err := p.logical()
		if err != nil {
			return nil, err
		}
		return &ast.Conditional{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *Parser) logical() (ast.Expr, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.matchAny(token.AND, token.OR) {
		op := p.previous()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	left, err := p.comparative()
	if err != nil {
		return nil, err
	}
	for p.matchAny(token.EQUAL_EQUAL, token.BANG_EQUAL) {
		op := p.previous()
		right, err := p.comparative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) comparative() (ast.Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.matchAny(token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL) {
		op := p.previous()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) additive() (ast.Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.matchAny(token.PLUS, token.MINUS) {
		op := p.previous()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) multiplicative() (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.matchAny(token.STAR, token.SLASH) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.matchAny(token.BANG, token.MINUS) {
		op := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, Operand: operand}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.matchAny(token.LEFT_PAREN):
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case p.matchAny(token.DOT):
			name, err := p.expect(token.IDENTIFIER, "expected attribute name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.GetAttr{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= 255 {
				return nil, p.errorAt(p.current(), "can't have more than 255 arguments")
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.matchAny(token.COMMA) {
				break
			}
		}
	}
	paren, err := p.expect(token.RIGHT_PAREN, "expected ')' after arguments")
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Paren: paren, Args: args}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.matchAny(token.FALSE):
		return &ast.Literal{Value: false, Tok: p.previous()}, nil
	case p.matchAny(token.TRUE):
		return &ast.Literal{Value: true, Tok: p.previous()}, nil
	case p.matchAny(token.NULL):
		return &ast.Literal{Value: nil, Tok: p.previous()}, nil
	case p.matchAny(token.NUMBER):
		tok := p.previous()
		value, err := parseNumber(tok.Lexeme)
		if err != nil {
			return nil, p.errorAt(tok, err.Error())
		}
		return &ast.Literal{Value: value, Tok: tok}, nil
	case p.matchAny(token.STRING):
		tok := p.previous()
		return &ast.Literal{Value: stripQuotes(tok.Lexeme), Tok: tok}, nil
	case p.matchAny(token.SELF):
		return &ast.Self{Tok: p.previous()}, nil
	case p.matchAny(token.SUPER):
		keyword := p.previous()
		if _, err := p.expect(token.DOT, "expected '.' after 'super'"); err != nil {
			return nil, err
		}
		method, err := p.expect(token.IDENTIFIER, "expected superclass method name")
		if err != nil {
			return nil, err
		}
		return &ast.Super{Keyword: keyword, Method: method}, nil
	case p.matchAny(token.IDENTIFIER):
		return &ast.Variable{Name: p.previous()}, nil
	case p.matchAny(token.LEFT_PAREN):
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RIGHT_PAREN, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return &ast.Grouping{Inner: inner}, nil
	default:
		return nil, p.errorAt(p.current(), "expected expression")
	}
}
