package object

import (
	"testing"

	"loxgo/internal/ast"
	"loxgo/internal/token"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Object
		want bool
	}{
		{"nil equals nil", NIL, NIL, true},
		{"nil does not equal false", NIL, FALSE, false},
		{"equal numbers", &Number{Value: 1}, &Number{Value: 1}, true},
		{"unequal numbers", &Number{Value: 1}, &Number{Value: 2}, false},
		{"equal strings", &String{Value: "a"}, &String{Value: "a"}, true},
		{"unequal strings", &String{Value: "a"}, &String{Value: "b"}, false},
		{"equal booleans", TRUE, TRUE, true},
		{"number does not equal string", &Number{Value: 1}, &String{Value: "1"}, false},
		{"same function pointer is equal", nilFunc(), sameFunc(), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Equal(c.a, c.b); got != c.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

var sharedFn = &NativeFunction{Name: "f"}

func nilFunc() Object  { return sharedFn }
func sameFunc() Object { return sharedFn }

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Object
		want bool
	}{
		{"nil is falsy", NIL, false},
		{"false is falsy", FALSE, false},
		{"true is truthy", TRUE, true},
		{"zero is truthy", &Number{Value: 0}, true},
		{"empty string is truthy", &String{Value: ""}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsTruthy(c.v); got != c.want {
				t.Errorf("IsTruthy(%v) = %v, want %v", c.v, got, c.want)
			}
		})
	}
}

func TestNumberInspect(t *testing.T) {
	cases := []struct {
		name string
		v    float64
		want string
	}{
		{"integral value drops fraction", 10, "10"},
		{"fractional value keeps it", 10.5, "10.5"},
		{"negative integral", -3, "-3"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := (&Number{Value: c.v}).Inspect(); got != c.want {
				t.Errorf("Inspect() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestClassFindMethodWalksSuperclassChain(t *testing.T) {
	greet := &Function{}
	base := &Class{Name: "Base", Methods: map[string]*Function{"greet": greet}}
	derived := &Class{Name: "Derived", Superclass: base, Methods: map[string]*Function{}}

	m, ok := derived.FindMethod("greet")
	if !ok || m != greet {
		t.Fatalf("expected FindMethod to find the superclass's method")
	}
	if _, ok := derived.FindMethod("missing"); ok {
		t.Fatalf("expected FindMethod to report a miss for an undefined method")
	}
}

func TestClassArity(t *testing.T) {
	withInit := &Class{Name: "A", Methods: map[string]*Function{
		"init": {Declaration: &ast.FunctionStmt{
			Name:   token.Token{Lexeme: "init"},
			Params: []token.Token{{Lexeme: "a"}, {Lexeme: "b"}},
		}},
	}}
	if withInit.Arity() != 2 {
		t.Errorf("expected arity 2, got %d", withInit.Arity())
	}

	withoutInit := &Class{Name: "B", Methods: map[string]*Function{}}
	if withoutInit.Arity() != 0 {
		t.Errorf("expected arity 0, got %d", withoutInit.Arity())
	}
}

func TestInstanceOfWalksSuperclassChain(t *testing.T) {
	base := &Class{Name: "Base"}
	derived := &Class{Name: "Derived", Superclass: base}
	instance := NewInstance(derived)

	if !instance.IsInstanceOf(derived) {
		t.Error("expected instance to be an instance of its own class")
	}
	if !instance.IsInstanceOf(base) {
		t.Error("expected instance to be an instance of its superclass")
	}
	if instance.IsInstanceOf(&Class{Name: "Unrelated"}) {
		t.Error("expected instance not to be an instance of an unrelated class")
	}
}
