// Package resolver performs the static pass between parsing and
// evaluation: for every variable reference it determines how many
// enclosing environment frames separate the use site from the frame
// that defines it, so the evaluator never has to search at runtime.
package resolver

import (
	"loxgo/internal/ast"
	"loxgo/internal/token"
)

type functionType int

const (
	functionNone functionType = iota
	functionFunction
	functionMethod
	functionInitializer
)

type classType int

const (
	classNone classType = iota
	classClass
	classSubclass
)

type loopType int

const (
	loopNone loopType = iota
	loopLoop
)

// Error is a static resolution error: a scoping violation caught before
// any evaluation happens.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Locals is the side table the evaluator consults at runtime: for every
// Variable/Assign/This/Super expression the resolver annotated, the
// number of enclosing frame links between the use site and the frame
// that defines the name. An expression absent from the table is global.
type Locals map[ast.Expr]int

type scope map[string]bool

// Resolver walks a parsed program once, before evaluation, recording
// scope depths into Locals and rejecting the static errors listed in
// the rule table (duplicate locals, self-referential initializers,
// misplaced return/break/continue/this/super, self-inheriting classes).
type Resolver struct {
	scopes          []scope
	locals          Locals
	errors          []*Error
	currentFunction functionType
	currentClass    classType
	currentLoop     loopType
}

func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve runs the pass over a full program and returns the completed
// side table plus any static errors found.
func (r *Resolver) Resolve(statements []ast.Stmt) (Locals, []*Error) {
	r.resolveStmts(statements)
	return r.locals, r.errors
}

func (r *Resolver) resolveStmts(statements []ast.Stmt) {
	for _, s := range statements {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Statements)
		r.endScope()

	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name)

	case *ast.ClassStmt:
		r.resolveClass(s)

	case *ast.FunctionStmt:
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, functionFunction)

	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expression)

	case *ast.AssertStmt:
		r.resolveExpr(s.Expression)

	case *ast.PrintStmt:
		r.resolveExpr(s.Expression)

	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		enclosingLoop := r.currentLoop
		r.currentLoop = loopLoop
		r.resolveStmt(s.Body)
		if s.Increment != nil {
			r.resolveExpr(s.Increment)
		}
		r.currentLoop = enclosingLoop

	case *ast.BreakStmt:
		if r.currentLoop == loopNone {
			r.reportError(s.Keyword.Line, "Can't use 'break' outside of a loop.")
		}

	case *ast.ContinueStmt:
		if r.currentLoop == loopNone {
			r.reportError(s.Keyword.Line, "Can't use 'continue' outside of a loop.")
		}

	case *ast.ReturnStmt:
		if r.currentFunction == functionNone {
			r.reportError(s.Keyword.Line, "Can't return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == functionInitializer {
				r.reportError(s.Keyword.Line, "Can't return a value from an initializer.")
			}
			r.resolveExpr(s.Value)
		}
	}
}

func (r *Resolver) resolveClass(s *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = classClass

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.reportError(s.Superclass.Name.Line, "A class can't inherit from itself.")
		}
		r.currentClass = classSubclass
		r.resolveExpr(s.Superclass)

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range s.Methods {
		declType := functionMethod
		if method.Name.Lexeme == "init" {
			declType = functionInitializer
		}
		r.resolveFunction(method, declType)
	}

	r.endScope()

	if s.Superclass != nil {
		r.endScope()
	}

	r.currentClass = enclosingClass
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, kind functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = kind

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFunction = enclosingFunction
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !defined {
				r.reportError(e.Name.Line, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name)

	case *ast.Assign:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)

	case *ast.Unary:
		r.resolveExpr(e.Right)

	case *ast.Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.Logical:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.Ternary:
		r.resolveExpr(e.Cond)
		r.resolveExpr(e.Then)
		r.resolveExpr(e.Else)

	case *ast.Grouping:
		r.resolveExpr(e.Expression)

	case *ast.Call:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}

	case *ast.Get:
		r.resolveExpr(e.Object)

	case *ast.Set:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *ast.This:
		if r.currentClass == classNone {
			r.reportError(e.Keyword.Line, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, e.Keyword)

	case *ast.Super:
		switch r.currentClass {
		case classNone:
			r.reportError(e.Keyword.Line, "Can't use 'super' outside of a class.")
		case classClass:
			r.reportError(e.Keyword.Line, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(e, e.Keyword)

	case *ast.Literal:
		// no-op
	}
}

// resolveLocal finds name in the innermost scope outward and, on the
// first match, records the number of frame links between the use site
// and that scope. A miss leaves the expression unannotated, meaning
// global at runtime.
func (r *Resolver) resolveLocal(expr ast.Expr, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(scope))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.scopes[len(r.scopes)-1]
	if _, ok := s[name.Lexeme]; ok {
		r.reportError(name.Line, "Already a variable with this name in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

func (r *Resolver) reportError(line int, message string) {
	r.errors = append(r.errors, &Error{Line: line, Message: message})
}
