package natives

import (
	"testing"

	"loxgo/internal/object"
)

func TestRegisterCoreDefinesTheRequiredFour(t *testing.T) {
	env := object.NewEnvironment()
	RegisterCore(env)

	for _, name := range []string{"clock", "sleep", "string", "instance_of"} {
		if _, ok := env.Get(name); !ok {
			t.Errorf("expected %q to be defined", name)
		}
	}
}

func TestStringNativeIsIdempotentOnStrings(t *testing.T) {
	env := object.NewEnvironment()
	RegisterCore(env)
	fn, _ := env.Get("string")
	native := fn.(*object.NativeFunction)

	in := &object.String{Value: "already a string"}
	out, err := native.Fn([]object.Object{in})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := out.(*object.String)
	if !ok || s.Value != in.Value {
		t.Errorf("expected string(x) == x for a string x, got %#v", out)
	}
}

func TestInstanceOfNative(t *testing.T) {
	env := object.NewEnvironment()
	RegisterCore(env)
	fn, _ := env.Get("instance_of")
	native := fn.(*object.NativeFunction)

	base := &object.Class{Name: "Base"}
	instance := object.NewInstance(base)

	out, err := native.Fn([]object.Object{instance, base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != object.TRUE {
		t.Errorf("expected instance_of(instance_of_C, C) to be true, got %v", out)
	}

	other := &object.Class{Name: "Other"}
	out, err = native.Fn([]object.Object{instance, other})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != object.FALSE {
		t.Errorf("expected instance_of against an unrelated class to be false, got %v", out)
	}
}

func TestInstanceOfNativeRejectsWrongTypes(t *testing.T) {
	env := object.NewEnvironment()
	RegisterCore(env)
	fn, _ := env.Get("instance_of")
	native := fn.(*object.NativeFunction)

	if _, err := native.Fn([]object.Object{&object.Number{Value: 1}, &object.Class{Name: "A"}}); err == nil {
		t.Error("expected an error when the first argument is not an instance")
	}
	if _, err := native.Fn([]object.Object{object.NewInstance(&object.Class{Name: "A"}), &object.Number{Value: 1}}); err == nil {
		t.Error("expected an error when the second argument is not a class")
	}
}

func TestClockReturnsANonNegativeNumber(t *testing.T) {
	env := object.NewEnvironment()
	RegisterCore(env)
	fn, _ := env.Get("clock")
	native := fn.(*object.NativeFunction)

	out, err := native.Fn(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := out.(*object.Number)
	if !ok || n.Value < 0 {
		t.Errorf("expected a non-negative number, got %#v", out)
	}
}
