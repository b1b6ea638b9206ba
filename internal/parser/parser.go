// Package parser turns a Lox token stream into an AST via recursive
// descent. Precedence climbs assignment -> ternary -> or -> and ->
// equality -> comparison -> term -> factor -> unary -> call -> primary.
package parser

import (
	"fmt"

	"loxgo/internal/ast"
	"loxgo/internal/token"
)

const maxArgs = 255

// Error is a single parse error. The parser does not stop at the first
// one: it synchronizes to the next statement boundary and keeps going so
// a single run can report every syntax error in the source.
type Error struct {
	Line    int
	Where   string
	Message string
}

func (e *Error) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error at %s: %s", e.Line, e.Where, e.Message)
}

// parseError unwinds the current declaration/statement after a syntax
// error has already been recorded. It is never returned to callers of
// Parse; it is caught in the declaration loop.
type parseError struct{}

func (parseError) Error() string { return "<parseError>" }

type Parser struct {
	tokens  []token.Token
	current int
	errors  []*Error
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the entire token stream and returns the top-level
// statement list plus any syntax errors found along the way. A
// statement that failed to parse is simply absent from the result; the
// caller decides whether to run a program that had errors (the driver
// doesn't - see cmd/lox).
func (p *Parser) Parse() ([]ast.Stmt, []*Error) {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, p.errors
}

// ---- declarations ----

func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()

	if p.match(token.CLASS) {
		return p.classDeclaration()
	}
	if p.match(token.FUN) {
		return p.function("function")
	}
	if p.match(token.VAR) {
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.consume(token.IDENT, "Expect class name.")

	var superclass *ast.Variable
	if p.match(token.LESS) {
		p.consume(token.IDENT, "Expect superclass name.")
		superclass = &ast.Variable{Name: p.previous()}
	}

	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")

	var methods []*ast.FunctionStmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	return &ast.ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) function(kind string) *ast.FunctionStmt {
	name := p.consume(token.IDENT, "Expect "+kind+" name.")
	p.consume(token.LEFT_PAREN, "Expect '(' after "+kind+" name.")

	var params []token.Token
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= maxArgs {
				p.reportError(p.peek(), fmt.Sprintf("Can't have more than %d parameters.", maxArgs))
			}
			params = append(params, p.consume(token.IDENT, "Expect parameter name."))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")

	p.consume(token.LEFT_BRACE, "Expect '{' before "+kind+" body.")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Params: params, Body: body}
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.consume(token.IDENT, "Expect a variable name.")

	var init ast.Expr
	if p.match(token.EQUAL) {
		init = p.expression()
	}

	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	return &ast.VarStmt{Name: name, Initializer: init}
}

// ---- statements ----

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.ASSERT):
		return p.assertStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.BREAK):
		return p.breakStatement()
	case p.match(token.CONTINUE):
		return p.continueStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.LEFT_BRACE):
		return &ast.BlockStmt{Statements: p.block()}
	}
	return p.expressionStatement()
}

func (p *Parser) assertStatement() ast.Stmt {
	keyword := p.previous()
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	return &ast.AssertStmt{Keyword: keyword, Expression: expr}
}

func (p *Parser) printStatement() ast.Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	return &ast.PrintStmt{Expression: expr}
}

func (p *Parser) breakStatement() ast.Stmt {
	keyword := p.previous()
	p.consume(token.SEMICOLON, "Expect ';' after 'break'.")
	return &ast.BreakStmt{Keyword: keyword}
}

func (p *Parser) continueStatement() ast.Stmt {
	keyword := p.previous()
	p.consume(token.SEMICOLON, "Expect ';' after 'continue'.")
	return &ast.ContinueStmt{Keyword: keyword}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) ifStatement() ast.Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch = p.statement()
	}
	return &ast.IfStmt{Condition: condition, Then: thenBranch, Else: elseBranch}
}

func (p *Parser) whileStatement() ast.Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{Condition: condition, Body: body}
}

// forStatement desugars `for (init; cond; incr) body` into
// `{ init; while (cond) body }`, with incr run as the while's Increment
// after every iteration that falls through or `continue`s, so `continue`
// cannot skip it the way folding incr into the loop body as an ordinary
// trailing statement would.
func (p *Parser) forStatement() ast.Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.VAR):
		initializer = p.varDeclaration()
	default:
		initializer = p.expressionStatement()
	}

	var condition ast.Expr
	if !p.check(token.SEMICOLON) {
		condition = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		increment = p.expression()
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

	body := p.statement()

	if condition == nil {
		condition = &ast.Literal{Value: true}
	}
	loop := ast.Stmt(&ast.WhileStmt{Condition: condition, Body: body, Increment: increment})

	if initializer != nil {
		loop = &ast.BlockStmt{Statements: []ast.Stmt{initializer, loop}}
	}
	return loop
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	return &ast.ExpressionStmt{Expression: expr}
}

func (p *Parser) block() []ast.Stmt {
	var statements []ast.Stmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		statements = append(statements, p.declaration())
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
	return statements
}

// ---- expressions ----

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment parses the left-hand side as an ordinary expression first,
// then - only once '=' is seen - checks whether it denotes a valid
// assignment target. A Get expression (`obj.field = ...`) is rewritten
// into a Set; anything else is a syntax error, not a runtime one.
func (p *Parser) assignment() ast.Expr {
	expr := p.ternary()

	if p.match(token.EQUAL) {
		equals := p.previous()
		value := p.assignment()

		switch e := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: e.Name, Value: value}
		case *ast.Get:
			return &ast.Set{Object: e.Object, Name: e.Name, Value: value}
		default:
			p.reportError(equals, "Invalid assignment target.")
		}
	}
	return expr
}

func (p *Parser) ternary() ast.Expr {
	expr := p.or()

	if p.match(token.QUESTION) {
		then := p.expression()
		p.consume(token.COLON, "Expect colon in ternary expression.")
		els := p.ternary()
		return &ast.Ternary{Cond: expr, Then: then, Else: els}
	}
	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(token.OR) {
		op := p.previous()
		right := p.and()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(token.AND) {
		op := p.previous()
		right := p.equality()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.EQUAL_EQUAL, token.BANG_EQUAL) {
		op := p.previous()
		right := p.comparison()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL) {
		op := p.previous()
		right := p.term()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.PLUS, token.MINUS) {
		op := p.previous()
		right := p.factor()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.SLASH, token.STAR) {
		op := p.previous()
		right := p.unary()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.BANG, token.PLUS, token.MINUS) {
		op := p.previous()
		right := p.unary()
		return &ast.Unary{Op: op, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(token.LEFT_PAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := p.consume(token.IDENT, "Expect property name after '.'.")
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= maxArgs {
				p.reportError(p.peek(), fmt.Sprintf("Can't have more than %d arguments.", maxArgs))
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return &ast.Call{Callee: callee, Paren: paren, Args: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(token.FALSE):
		return &ast.Literal{Value: false}
	case p.match(token.TRUE):
		return &ast.Literal{Value: true}
	case p.match(token.NIL):
		return &ast.Literal{Value: nil}
	case p.match(token.NUMBER, token.STRING):
		return &ast.Literal{Value: p.previous().Literal}
	case p.match(token.SUPER):
		keyword := p.previous()
		p.consume(token.DOT, "Expect '.' after 'super'.")
		method := p.consume(token.IDENT, "Expect superclass method name.")
		return &ast.Super{Keyword: keyword, Method: method}
	case p.match(token.THIS):
		return &ast.This{Keyword: p.previous()}
	case p.match(token.IDENT):
		return &ast.Variable{Name: p.previous()}
	case p.match(token.LEFT_PAREN):
		expr := p.expression()
		p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
		return &ast.Grouping{Expression: expr}
	}

	panic(p.err(p.peek(), "Expect expression."))
}

// ---- token helpers ----

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool         { return p.peek().Type == token.EOF }
func (p *Parser) peek() token.Token     { return p.tokens[p.current] }
func (p *Parser) previous() token.Token { return p.tokens[p.current-1] }

func (p *Parser) consume(t token.TokenType, message string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	panic(p.err(p.peek(), message))
}

func (p *Parser) reportError(tok token.Token, message string) {
	where := "end"
	if tok.Type != token.EOF {
		where = "'" + tok.Lexeme + "'"
	}
	p.errors = append(p.errors, &Error{Line: tok.Line, Where: where, Message: message})
}

func (p *Parser) err(tok token.Token, message string) parseError {
	p.reportError(tok, message)
	return parseError{}
}

// synchronize discards tokens until it reaches what looks like the start
// of the next statement, so one syntax error doesn't cascade into
// spurious follow-on errors for the rest of the file.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Type == token.SEMICOLON {
			return
		}

		switch p.peek().Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}

		p.advance()
	}
}
