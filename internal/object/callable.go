package object

import "loxgo/internal/ast"

// Callable is implemented by every value that can appear as a Call
// expression's callee: native functions, user functions/closures, and
// classes (construction).
type Callable interface {
	Object
	Arity() int
}

// NativeFunction wraps a Go function registered into globals at evaluator
// construction (see internal/natives). Fn receives already-evaluated
// arguments and returns either a value or an error, which the evaluator
// wraps in a *NativeError.
type NativeFunction struct {
	Name     string
	NumArgs  int
	Fn       func(args []Object) (Object, error)
}

func (n *NativeFunction) Type() ObjectType { return NATIVE_OBJ }
func (n *NativeFunction) Inspect() string  { return "<native fn " + n.Name + ">" }
func (n *NativeFunction) Arity() int       { return n.NumArgs }

// Function is a user-declared `fun` or method, paired with the frame that
// was active when it was declared (its closure). Binding a method to an
// instance produces a new Function sharing Declaration and IsInitializer
// but wrapping Closure in a fresh frame containing "this".
type Function struct {
	Declaration   *ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "<fn " + f.Declaration.Name.Lexeme + ">" }
func (f *Function) Arity() int       { return len(f.Declaration.Params) }

// Bind returns a new Function closed over a frame binding "this" to
// instance, sharing this function's declaration and initializer flag.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnclosedEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer}
}

// Class is a Lox class: a name, an optional superclass, and its own method
// table. Construction arity is the arity of `init`, or 0 if the class (and
// every ancestor) declares none.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return c.Name }

func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// FindMethod resolves a method through the superclass chain: the class's
// own methods first, then its superclass's, and so on.
func (c *Class) FindMethod(name string) (*Function, bool) {
	if m, ok := c.Methods[name]; ok {
		return m, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

// Instance is a runtime object constructed from a Class: an identity and a
// mutable field map. Field lookup on `obj.name` shadows methods of the
// same name (see evaluator.evalGet).
type Instance struct {
	Class  *Class
	Fields map[string]Object
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Object)}
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string  { return i.Class.Name + " instance" }

// IsInstanceOf reports whether i was constructed from class or from a
// subclass of it — i.e. whether class appears anywhere in i's class's
// superclass chain. Backs the `instance_of` native.
func (i *Instance) IsInstanceOf(class *Class) bool {
	for c := i.Class; c != nil; c = c.Superclass {
		if c == class {
			return true
		}
	}
	return false
}
