// Package natives registers the functions globals starts with: the four
// required by every Lox program (clock, sleep, string, instance_of) and,
// opt-in, a small set of domain-stack extensions (db, crypto, config)
// that exercise drivers and libraries the evaluator itself has no need
// for. Every native receives already-evaluated arguments; the arity
// check happens in the evaluator before Fn is ever called.
package natives

import (
	"fmt"
	"time"

	"loxgo/internal/object"
)

// RegisterCore installs clock, sleep, string, and instance_of. These are
// always present, regardless of configuration.
func RegisterCore(env *object.Environment) {
	env.Define("clock", native("clock", 0, func(args []object.Object) (object.Object, error) {
		return &object.Number{Value: float64(time.Now().UnixNano()) / 1e9}, nil
	}))

	env.Define("sleep", native("sleep", 1, func(args []object.Object) (object.Object, error) {
		n, ok := args[0].(*object.Number)
		if !ok || n.Value < 0 {
			return nil, fmt.Errorf("sleep requires a non-negative number of seconds")
		}
		time.Sleep(time.Duration(n.Value * float64(time.Second)))
		return object.NIL, nil
	}))

	env.Define("string", native("string", 1, func(args []object.Object) (object.Object, error) {
		return &object.String{Value: object.Stringify(args[0])}, nil
	}))

	env.Define("instance_of", native("instance_of", 2, func(args []object.Object) (object.Object, error) {
		inst, ok := args[0].(*object.Instance)
		if !ok {
			return nil, fmt.Errorf("instance_of expects an instance as its first argument")
		}
		class, ok := args[1].(*object.Class)
		if !ok {
			return nil, fmt.Errorf("instance_of expects a class as its second argument")
		}
		return object.NativeBoolToBoolean(inst.IsInstanceOf(class)), nil
	}))
}

func native(name string, arity int, fn func([]object.Object) (object.Object, error)) *object.NativeFunction {
	return &object.NativeFunction{Name: name, NumArgs: arity, Fn: fn}
}

// table builds a Lox instance whose fields are the given keys/values,
// used by both config.go and db.go to hand back structured data without
// a dedicated list/map value kind (see DESIGN.md).
func table(fields map[string]object.Object) *object.Instance {
	return &object.Instance{Class: tableClass, Fields: fields}
}

var tableClass = &object.Class{Name: "Table", Methods: map[string]*object.Function{}}
