package parser

import (
	"testing"

	"loxgo/internal/ast"
	"loxgo/internal/lexer"
)

func parse(t *testing.T, source string) ([]ast.Stmt, []*Error) {
	t.Helper()
	tokens, lexErrs := lexer.ScanTokens(source)
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lex errors: %v", lexErrs)
	}
	return New(tokens).Parse()
}

func TestParseValidPrograms(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   int // expected top-level statement count
	}{
		{"var declaration", `var x = 1;`, 1},
		{"print statement", `print "hi";`, 1},
		{"assert statement", `assert true;`, 1},
		{"if/else", `if (true) print 1; else print 2;`, 1},
		{"while loop", `while (true) break;`, 1},
		{"for loop desugars to one statement", `for (var i = 0; i < 10; i = i + 1) print i;`, 1},
		{"block", `{ var x = 1; print x; }`, 1},
		{"function declaration", `fun add(a, b) { return a + b; }`, 1},
		{"class declaration", `class A {}`, 1},
		{"class with superclass", `class B < A { foo() { return 1; } }`, 1},
		{"ternary expression", `print true ? 1 : 2;`, 1},
		{"multiple statements", `var x = 1; var y = 2;`, 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			stmts, errs := parse(t, c.source)
			if len(errs) != 0 {
				t.Fatalf("unexpected parse errors: %v", errs)
			}
			if len(stmts) != c.want {
				t.Fatalf("expected %d statements, got %d", c.want, len(stmts))
			}
		})
	}
}

func TestForStatementDesugaring(t *testing.T) {
	stmts, errs := parse(t, `for (var i = 0; i < 10; i = i + 1) print i;`)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	block, ok := stmts[0].(*ast.BlockStmt)
	if !ok || len(block.Statements) != 2 {
		t.Fatalf("expected a 2-statement block (init, loop), got %#v", stmts[0])
	}
	if _, ok := block.Statements[0].(*ast.VarStmt); !ok {
		t.Errorf("expected first statement to be the initializer, got %#v", block.Statements[0])
	}
	loop, ok := block.Statements[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected second statement to be a while loop, got %#v", block.Statements[1])
	}
	if loop.Increment == nil {
		t.Error("expected the for-loop's increment clause to survive as WhileStmt.Increment")
	}
}

func TestParseErrorsRecoverAtStatementBoundary(t *testing.T) {
	// The first statement has a missing semicolon; the parser should
	// record the error and synchronize rather than abort the parse.
	_, errs := parse(t, `var x = 1 var y = 2;`)
	if len(errs) == 0 {
		t.Fatal("expected at least one parse error")
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	_, errs := parse(t, `1 + 2 = 3;`)
	if len(errs) == 0 {
		t.Fatal("expected an 'Invalid assignment target' error")
	}
}

func TestSuperExpression(t *testing.T) {
	stmts, errs := parse(t, `class B < A { foo() { super.foo(); } }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	class := stmts[0].(*ast.ClassStmt)
	if class.Superclass == nil || class.Superclass.Name.Lexeme != "A" {
		t.Fatalf("expected superclass A, got %#v", class.Superclass)
	}
}
