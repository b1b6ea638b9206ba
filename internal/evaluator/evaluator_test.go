package evaluator

import (
	"strings"
	"testing"

	"loxgo/internal/lexer"
	"loxgo/internal/object"
	"loxgo/internal/parser"
	"loxgo/internal/resolver"
)

// run lexes, parses, resolves, and interprets source, returning everything
// printed via the `print` statement, one line per call, newline-joined.
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	tokens, lexErrs := lexer.ScanTokens(source)
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	stmts, parseErrs := parser.New(tokens).Parse()
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	locals, resolveErrs := resolver.New().Resolve(stmts)
	if len(resolveErrs) != 0 {
		t.Fatalf("unexpected resolve errors: %v", resolveErrs)
	}

	var out strings.Builder
	eval := New(locals)
	eval.Print = func(s string) { out.WriteString(s); out.WriteString("\n") }
	err := eval.Interpret(stmts)
	return strings.TrimRight(out.String(), "\n"), err
}

// These mirror spec.md's six end-to-end scenarios (S1-S6) verbatim.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name: "S1 fibonacci",
			source: `fun fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); }
print fib(10);`,
			want: "55",
		},
		{
			name: "S2 closure capture independence",
			source: `fun makeCounter() { var i = 0; fun c() { i = i + 1; return i; } return c; }
var a = makeCounter(); var b = makeCounter();
print a(); print a(); print b();`,
			want: "1\n2\n1",
		},
		{
			name: "S3 lexical scope through var shadowing",
			source: `var a = "global";
{ fun show() { print a; } show(); var a = "local"; show(); }`,
			want: "global\nglobal",
		},
		{
			name: "S4 inheritance and super",
			source: `class A { hello() { print "A"; } }
class B < A { hello() { super.hello(); print "B"; } }
B().hello();`,
			want: "A\nB",
		},
		{
			name: "S5 initializer returns instance",
			source: `class P { init(x) { this.x = x; } }
var p = P(7); print p.x;`,
			want: "7",
		},
		{
			name: "S6 control flow with break/continue",
			source: `var s = 0;
for (var i = 0; i < 10; i = i + 1) {
  if (i == 5) break;
  if (i == 2) continue;
  s = s + i;
}
print s;`,
			want: "8",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := run(t, c.source)
			if err != nil {
				t.Fatalf("unexpected runtime error: %v", err)
			}
			if got != c.want {
				t.Errorf("expected stdout %q, got %q", c.want, got)
			}
		})
	}
}

func TestBoundaryProperties(t *testing.T) {
	t.Run("string plus number is a runtime error", func(t *testing.T) {
		_, err := run(t, `print "a" + 1;`)
		if err == nil {
			t.Fatal("expected a runtime error")
		}
	})

	t.Run("division by zero is infinity, not an error", func(t *testing.T) {
		got, err := run(t, `print 1/0;`)
		if err != nil {
			t.Fatalf("unexpected runtime error: %v", err)
		}
		if got != "+Inf" {
			t.Errorf("expected +Inf, got %q", got)
		}
	})

	t.Run("nil equals nil", func(t *testing.T) {
		got, err := run(t, `print nil == nil;`)
		if err != nil {
			t.Fatalf("unexpected runtime error: %v", err)
		}
		if got != "true" {
			t.Errorf("expected true, got %q", got)
		}
	})

	t.Run("nil does not equal false", func(t *testing.T) {
		got, err := run(t, `print nil == false;`)
		if err != nil {
			t.Fatalf("unexpected runtime error: %v", err)
		}
		if got != "false" {
			t.Errorf("expected false, got %q", got)
		}
	})

	t.Run("empty program produces no output and no error", func(t *testing.T) {
		got, err := run(t, ``)
		if err != nil {
			t.Fatalf("unexpected runtime error: %v", err)
		}
		if got != "" {
			t.Errorf("expected no output, got %q", got)
		}
	})
}

func TestClassArity(t *testing.T) {
	t.Run("no init means zero arity", func(t *testing.T) {
		_, err := run(t, `class A {} A();`)
		if err != nil {
			t.Fatalf("unexpected runtime error: %v", err)
		}
	})

	t.Run("init arity mismatch is a runtime error", func(t *testing.T) {
		_, err := run(t, `class A { init(x) {} } A();`)
		if err == nil {
			t.Fatal("expected an arity runtime error")
		}
	})
}

func TestMethodLookupOrder(t *testing.T) {
	// Fields shadow methods of the same name.
	got, err := run(t, `
class A { greet() { return "method"; } }
var a = A();
a.greet = "field";
print a.greet;`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got != "field" {
		t.Errorf("expected field to shadow method, got %q", got)
	}
}

func TestUndefinedPropertyIsRuntimeError(t *testing.T) {
	_, err := run(t, `class A {} A().missing;`)
	if err == nil {
		t.Fatal("expected an undefined-property runtime error")
	}
	if _, ok := err.(*object.RuntimeError); !ok {
		t.Errorf("expected *object.RuntimeError, got %T", err)
	}
}

func TestCollectorKeepsFramesReachableThroughEscapingClosures(t *testing.T) {
	// A block-scoped closure that escapes (via a returned function) must
	// keep seeing its captured binding across repeated block exits, even
	// though the collector sweeps every block on exit.
	got, err := run(t, `
fun outer() {
  var kept;
  for (var i = 0; i < 5; i = i + 1) {
    var local = i;
    fun capture() { return local; }
    if (i == 3) kept = capture;
  }
  return kept;
}
print outer()();`)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if got != "3" {
		t.Errorf("expected the escaping closure to still see its captured binding (3), got %q", got)
	}
}
