// Package evaluator walks the resolved AST and produces Lox runtime
// values. Dispatch is by Go type switch over the AST node, not a
// visitor: see internal/ast's package doc for why.
package evaluator

import (
	"fmt"
	"log/slog"

	"loxgo/internal/ast"
	"loxgo/internal/collector"
	"loxgo/internal/object"
	"loxgo/internal/resolver"
	"loxgo/internal/token"
)

// breakSignal, continueSignal and returnSignal are non-local control
// exits, not errors: they satisfy the error interface purely so they can
// ride the same return channel as executeStmt's ordinary error result,
// and are unwrapped by the nearest loop or call boundary rather than
// reported to the user.
type breakSignal struct{}

func (breakSignal) Error() string { return "<break>" }

type continueSignal struct{}

func (continueSignal) Error() string { return "<continue>" }

type returnSignal struct{ Value object.Object }

func (returnSignal) Error() string { return "<return>" }

// Evaluator holds the live interpretation state for one program run: the
// globals frame, the currently active frame, the resolver's side table,
// and the collector that reclaims frames the active-frame stack no
// longer reaches.
type Evaluator struct {
	Globals *object.Environment

	env       *object.Environment
	locals    resolver.Locals
	collector *collector.Collector
	reachable []*object.Environment

	// sweepEveryNExits throttles how often executeBlock actually invokes
	// the collector: 1 sweeps on every block exit (the default), higher
	// values trade GC latency for fewer mark-and-sweep passes over deep
	// recursion. blockExits counts exits since the last sweep.
	sweepEveryNExits int
	blockExits       int

	// Print is where the `print` statement writes; cmd/lox points this
	// at stdout, tests point it at a strings.Builder.
	Print func(string)
}

func New(locals resolver.Locals) *Evaluator {
	globals := object.NewEnvironment()
	e := &Evaluator{
		Globals:          globals,
		env:              globals,
		locals:           locals,
		collector:        collector.New(),
		sweepEveryNExits: 1,
		Print:            func(s string) { fmt.Println(s) },
	}
	e.collector.Track(globals)
	e.reachable = []*object.Environment{globals}
	return e
}

// SetSweepEveryNExits configures how many block exits accumulate between
// collector sweeps. n <= 0 is treated as 1 (sweep every exit).
func (e *Evaluator) SetSweepEveryNExits(n int) {
	if n <= 0 {
		n = 1
	}
	e.sweepEveryNExits = n
}

// SetLocals installs the resolver's side table for the next Interpret
// call. The evaluator is long-lived across an entire REPL session while
// each line gets its own fresh resolve pass, so the side table can't be
// fixed at construction time the way Globals and env are.
func (e *Evaluator) SetLocals(locals resolver.Locals) {
	e.locals = locals
}

// Interpret runs every top-level statement in order. It stops at the
// first runtime or native-function error, matching the error-kind
// table's "interpretation of the current top-level statement ends" —
// there is no surrounding loop statement to resume at.
func (e *Evaluator) Interpret(statements []ast.Stmt) error {
	for _, stmt := range statements {
		if err := e.executeStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---- statements ----

func (e *Evaluator) executeStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := e.Eval(s.Expression)
		return err

	case *ast.PrintStmt:
		val, err := e.Eval(s.Expression)
		if err != nil {
			return err
		}
		e.Print(object.Stringify(val))
		return nil

	case *ast.AssertStmt:
		val, err := e.Eval(s.Expression)
		if err != nil {
			return err
		}
		if !object.IsTruthy(val) {
			return object.NewRuntimeError(s.Keyword.Line, "Assertion failed.")
		}
		return nil

	case *ast.VarStmt:
		val := object.Object(object.NIL)
		if s.Initializer != nil {
			v, err := e.Eval(s.Initializer)
			if err != nil {
				return err
			}
			val = v
		}
		e.env.Define(s.Name.Lexeme, val)
		return nil

	case *ast.BlockStmt:
		return e.executeBlock(s.Statements, object.NewEnclosedEnvironment(e.env))

	case *ast.IfStmt:
		cond, err := e.Eval(s.Condition)
		if err != nil {
			return err
		}
		if object.IsTruthy(cond) {
			return e.executeStmt(s.Then)
		}
		if s.Else != nil {
			return e.executeStmt(s.Else)
		}
		return nil

	case *ast.WhileStmt:
		return e.executeWhile(s)

	case *ast.BreakStmt:
		return breakSignal{}

	case *ast.ContinueStmt:
		return continueSignal{}

	case *ast.ReturnStmt:
		val := object.Object(object.NIL)
		if s.Value != nil {
			v, err := e.Eval(s.Value)
			if err != nil {
				return err
			}
			val = v
		}
		return returnSignal{Value: val}

	case *ast.FunctionStmt:
		e.env.Define(s.Name.Lexeme, &object.Function{Declaration: s, Closure: e.env})
		return nil

	case *ast.ClassStmt:
		return e.executeClassStmt(s)
	}
	return nil
}

// executeWhile runs a literal `while` (s.Increment nil) or a desugared
// `for` (s.Increment the for-clause's increment expression). The
// increment runs after every iteration that falls through normally or
// hits `continue`, but not after `break` or a propagating error - so
// `continue` advances the loop instead of skipping it entirely.
func (e *Evaluator) executeWhile(s *ast.WhileStmt) error {
	for {
		cond, err := e.Eval(s.Condition)
		if err != nil {
			return err
		}
		if !object.IsTruthy(cond) {
			return nil
		}

		err = e.executeStmt(s.Body)
		switch err.(type) {
		case nil, continueSignal:
		case breakSignal:
			return nil
		default:
			return err
		}

		if s.Increment != nil {
			if _, err := e.Eval(s.Increment); err != nil {
				return err
			}
		}
	}
}

// executeBlock pushes a fresh frame, runs statements in it, and restores
// the caller's frame on every exit path. The collector runs with the
// block's own frame still on the directly-reachable stack, then the frame
// is dropped and the caller's frame restored - never the other way
// around. A function returning a freshly built closure hasn't stored it
// into any rooted frame yet when its body's block exits, so collecting
// after popping would see that closure's frame as unreachable and clear
// its bindings out from under the value the caller is about to receive.
func (e *Evaluator) executeBlock(statements []ast.Stmt, env *object.Environment) error {
	previous := e.env
	e.env = env
	e.collector.Track(env)
	e.reachable = append(e.reachable, env)

	var result error
	for _, stmt := range statements {
		if err := e.executeStmt(stmt); err != nil {
			result = err
			break
		}
	}

	e.blockExits++
	if e.blockExits >= e.sweepEveryNExits {
		e.blockExits = 0
		e.collector.Collect(e.Globals, env, e.reachable)
	}
	e.reachable = e.reachable[:len(e.reachable)-1]
	e.env = previous
	return result
}

// executeClassStmt implements the class declaration state machine: the
// name is reserved as nil first (so the class can refer to itself),
// the superclass expression is evaluated and must be a class, a
// synthetic frame binding "super" encloses every method's closure when
// there is a superclass, and the class value is finally assigned into
// the reserved slot.
func (e *Evaluator) executeClassStmt(s *ast.ClassStmt) error {
	e.env.Define(s.Name.Lexeme, object.NIL)

	var superclass *object.Class
	if s.Superclass != nil {
		val, err := e.Eval(s.Superclass)
		if err != nil {
			return err
		}
		sc, ok := val.(*object.Class)
		if !ok {
			return object.NewRuntimeError(s.Superclass.Name.Line, "Superclass must be a class.")
		}
		superclass = sc
	}

	methodClosure := e.env
	if superclass != nil {
		methodClosure = object.NewEnclosedEnvironment(e.env)
		methodClosure.Define("super", superclass)
		e.collector.Track(methodClosure)
	}

	methods := make(map[string]*object.Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &object.Function{
			Declaration:   m,
			Closure:       methodClosure,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	class := &object.Class{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods}

	if err := e.env.Assign(s.Name.Lexeme, class); err != nil {
		return object.NewRuntimeError(s.Name.Line, "%s", err.Error())
	}
	return nil
}

// ---- expressions ----

func (e *Evaluator) Eval(expr ast.Expr) (object.Object, error) {
	switch x := expr.(type) {
	case *ast.Literal:
		return literalValue(x), nil

	case *ast.Grouping:
		return e.Eval(x.Expression)

	case *ast.Variable:
		return e.lookUpVariable(x.Name, x)

	case *ast.This:
		return e.lookUpVariable(x.Keyword, x)

	case *ast.Super:
		return e.evalSuper(x)

	case *ast.Assign:
		return e.evalAssign(x)

	case *ast.Unary:
		return e.evalUnary(x)

	case *ast.Binary:
		return e.evalBinary(x)

	case *ast.Logical:
		return e.evalLogical(x)

	case *ast.Ternary:
		cond, err := e.Eval(x.Cond)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(cond) {
			return e.Eval(x.Then)
		}
		return e.Eval(x.Else)

	case *ast.Call:
		return e.evalCall(x)

	case *ast.Get:
		return e.evalGet(x)

	case *ast.Set:
		return e.evalSet(x)
	}
	return object.NIL, nil
}

func literalValue(lit *ast.Literal) object.Object {
	switch v := lit.Value.(type) {
	case nil:
		return object.NIL
	case bool:
		return object.NativeBoolToBoolean(v)
	case float64:
		return &object.Number{Value: v}
	case string:
		return &object.String{Value: v}
	default:
		return object.NIL
	}
}

// lookUpVariable resolves a Variable/This use through the resolver's
// side table when annotated, and falls back to globals otherwise.
func (e *Evaluator) lookUpVariable(name token.Token, expr ast.Expr) (object.Object, error) {
	if distance, ok := e.locals[expr]; ok {
		if val, ok := e.env.GetAt(distance, name.Lexeme); ok {
			return val, nil
		}
		return nil, object.NewRuntimeError(name.Line, "Undefined variable '%s'.", name.Lexeme)
	}
	if val, ok := e.Globals.Get(name.Lexeme); ok {
		return val, nil
	}
	return nil, object.NewRuntimeError(name.Line, "Undefined variable '%s'.", name.Lexeme)
}

func (e *Evaluator) evalAssign(expr *ast.Assign) (object.Object, error) {
	val, err := e.Eval(expr.Value)
	if err != nil {
		return nil, err
	}

	if distance, ok := e.locals[expr]; ok {
		e.env.AssignAt(distance, expr.Name.Lexeme, val)
		return val, nil
	}
	if err := e.Globals.Assign(expr.Name.Lexeme, val); err != nil {
		return nil, object.NewRuntimeError(expr.Name.Line, "%s", err.Error())
	}
	return val, nil
}

func (e *Evaluator) evalSuper(expr *ast.Super) (object.Object, error) {
	distance, ok := e.locals[expr]
	if !ok {
		return nil, object.NewRuntimeError(expr.Keyword.Line, "Undefined 'super'.")
	}
	superVal, _ := e.env.GetAt(distance, "super")
	superclass, _ := superVal.(*object.Class)

	thisVal, _ := e.env.GetAt(distance-1, "this")
	instance, _ := thisVal.(*object.Instance)

	method, ok := superclass.FindMethod(expr.Method.Lexeme)
	if !ok {
		return nil, object.NewRuntimeError(expr.Method.Line, "Undefined property '%s'.", expr.Method.Lexeme)
	}
	return method.Bind(instance), nil
}

func (e *Evaluator) evalUnary(expr *ast.Unary) (object.Object, error) {
	right, err := e.Eval(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Op.Type {
	case token.BANG:
		return object.NativeBoolToBoolean(!object.IsTruthy(right)), nil
	case token.MINUS, token.PLUS:
		n, ok := right.(*object.Number)
		if !ok {
			return nil, object.NewRuntimeError(expr.Op.Line, "Operand must be a number.")
		}
		if expr.Op.Type == token.MINUS {
			return &object.Number{Value: -n.Value}, nil
		}
		return &object.Number{Value: n.Value}, nil
	}
	return nil, object.NewRuntimeError(expr.Op.Line, "Unknown operator '%s'.", expr.Op.Lexeme)
}

func (e *Evaluator) evalLogical(expr *ast.Logical) (object.Object, error) {
	left, err := e.Eval(expr.Left)
	if err != nil {
		return nil, err
	}

	if expr.Op.Type == token.OR {
		if object.IsTruthy(left) {
			return left, nil
		}
	} else {
		if !object.IsTruthy(left) {
			return left, nil
		}
	}
	return e.Eval(expr.Right)
}

// evalBinary implements numeric coercion: `- * /` require two numbers;
// `+` accepts two numbers or two strings; comparisons accept two numbers
// or two strings (lexicographic); division by zero is IEEE-754, not an
// error.
func (e *Evaluator) evalBinary(expr *ast.Binary) (object.Object, error) {
	left, err := e.Eval(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Op.Type {
	case token.MINUS, token.SLASH, token.STAR:
		l, r, err := numberOperands(expr.Op, left, right)
		if err != nil {
			return nil, err
		}
		switch expr.Op.Type {
		case token.MINUS:
			return &object.Number{Value: l - r}, nil
		case token.SLASH:
			return &object.Number{Value: l / r}, nil
		default:
			return &object.Number{Value: l * r}, nil
		}

	case token.PLUS:
		if ln, ok := left.(*object.Number); ok {
			if rn, ok := right.(*object.Number); ok {
				return &object.Number{Value: ln.Value + rn.Value}, nil
			}
		}
		if ls, ok := left.(*object.String); ok {
			if rs, ok := right.(*object.String); ok {
				return &object.String{Value: ls.Value + rs.Value}, nil
			}
		}
		return nil, object.NewRuntimeError(expr.Op.Line, "Operands must be two strings or two numbers.")

	case token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL:
		return compareOperands(expr.Op, left, right)

	case token.EQUAL_EQUAL:
		return object.NativeBoolToBoolean(object.Equal(left, right)), nil
	case token.BANG_EQUAL:
		return object.NativeBoolToBoolean(!object.Equal(left, right)), nil
	}
	return nil, object.NewRuntimeError(expr.Op.Line, "Unknown operator '%s'.", expr.Op.Lexeme)
}

func numberOperands(op token.Token, left, right object.Object) (float64, float64, error) {
	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return 0, 0, object.NewRuntimeError(op.Line, "Operands must be numbers.")
	}
	return l.Value, r.Value, nil
}

func compareOperands(op token.Token, left, right object.Object) (object.Object, error) {
	if ln, ok := left.(*object.Number); ok {
		if rn, ok := right.(*object.Number); ok {
			return object.NativeBoolToBoolean(numCompare(op.Type, ln.Value, rn.Value)), nil
		}
	}
	if ls, ok := left.(*object.String); ok {
		if rs, ok := right.(*object.String); ok {
			return object.NativeBoolToBoolean(strCompare(op.Type, ls.Value, rs.Value)), nil
		}
	}
	return nil, object.NewRuntimeError(op.Line, "Operands must be two numbers or two strings.")
}

func numCompare(op token.TokenType, l, r float64) bool {
	switch op {
	case token.GREATER:
		return l > r
	case token.GREATER_EQUAL:
		return l >= r
	case token.LESS:
		return l < r
	default:
		return l <= r
	}
}

func strCompare(op token.TokenType, l, r string) bool {
	switch op {
	case token.GREATER:
		return l > r
	case token.GREATER_EQUAL:
		return l >= r
	case token.LESS:
		return l < r
	default:
		return l <= r
	}
}

// ---- calls, classes, properties ----

func (e *Evaluator) evalCall(expr *ast.Call) (object.Object, error) {
	callee, err := e.Eval(expr.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]object.Object, 0, len(expr.Args))
	for _, a := range expr.Args {
		val, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	return e.call(callee, expr.Paren, args)
}

func (e *Evaluator) call(callee object.Object, paren token.Token, args []object.Object) (object.Object, error) {
	callable, ok := callee.(object.Callable)
	if !ok {
		return nil, object.NewRuntimeError(paren.Line, "Can only call functions and classes.")
	}
	if len(args) != callable.Arity() {
		return nil, object.NewRuntimeError(paren.Line, "Expected %d arguments but got %d arguments.", callable.Arity(), len(args))
	}

	switch c := callable.(type) {
	case *object.NativeFunction:
		val, err := c.Fn(args)
		if err != nil {
			return nil, &object.NativeError{Message: err.Error()}
		}
		return val, nil

	case *object.Function:
		return e.callFunction(c, args)

	case *object.Class:
		instance := object.NewInstance(c)
		if init, ok := c.FindMethod("init"); ok {
			if _, err := e.callFunction(init.Bind(instance), args); err != nil {
				return nil, err
			}
		}
		return instance, nil
	}
	return nil, object.NewRuntimeError(paren.Line, "Can only call functions and classes.")
}

// callFunction creates a fresh frame enclosed by the function's closure,
// binds parameters, and runs the body. A normal fall-through or an
// explicit return both end the call cleanly; an initializer always
// yields `this` on either of those two paths, never on a real error.
func (e *Evaluator) callFunction(fn *object.Function, args []object.Object) (object.Object, error) {
	env := object.NewEnclosedEnvironment(fn.Closure)
	for i, param := range fn.Declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	err := e.executeBlock(fn.Declaration.Body, env)

	switch v := err.(type) {
	case nil:
		if fn.IsInitializer {
			this, _ := fn.Closure.GetAt(0, "this")
			return this, nil
		}
		return object.NIL, nil
	case returnSignal:
		if fn.IsInitializer {
			this, _ := fn.Closure.GetAt(0, "this")
			return this, nil
		}
		return v.Value, nil
	default:
		return nil, err
	}
}

func (e *Evaluator) evalGet(expr *ast.Get) (object.Object, error) {
	obj, err := e.Eval(expr.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*object.Instance)
	if !ok {
		return nil, object.NewRuntimeError(expr.Name.Line, "Only instances have properties.")
	}

	if val, ok := instance.Fields[expr.Name.Lexeme]; ok {
		return val, nil
	}
	if method, ok := instance.Class.FindMethod(expr.Name.Lexeme); ok {
		return method.Bind(instance), nil
	}
	return nil, object.NewRuntimeError(expr.Name.Line, "Undefined property '%s'.", expr.Name.Lexeme)
}

func (e *Evaluator) evalSet(expr *ast.Set) (object.Object, error) {
	obj, err := e.Eval(expr.Object)
	if err != nil {
		return nil, err
	}
	instance, ok := obj.(*object.Instance)
	if !ok {
		return nil, object.NewRuntimeError(expr.Name.Line, "Only instances have fields.")
	}

	val, err := e.Eval(expr.Value)
	if err != nil {
		return nil, err
	}
	instance.Fields[expr.Name.Lexeme] = val
	slog.Debug("set field", slog.String("name", expr.Name.Lexeme))
	return val, nil
}
