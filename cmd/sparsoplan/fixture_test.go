package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wyatuestc/sparso/ir"
	"github.com/wyatuestc/sparso/reorder"
)

func TestParseStmt(t *testing.T) {
	types := ir.SymbolTypes{
		"A": ir.TypeSparseMatrix, "p": ir.TypeVector, "Ap": ir.TypeVector,
		"alpha": ir.TypeNumber,
	}

	tests := []struct {
		name string
		line string
		want string
	}{
		{"Assign", "(= Ap (call * A p))", "Ap = *(A, p)"},
		{"Call1", "(call1 fwdTriSolve! L z)", "fwdTriSolve!(L, z)"},
		{"Nested", "(= alpha (call / old_rz (call dot p Ap)))",
			"alpha = /(old_rz, dot(p, Ap))"},
		{"Tuple", "(tuple x 1 2)", "(x, 1, 2)"},
		{"GotoIfNot", "(gotoifnot done 2)", "gotoifnot done 2"},
		{"Goto", "(goto 1)", "goto 1"},
		{"Label", "(label 2)", "label 2:"},
		{"Return", "(return x)", "return x"},
		{"String", `(= s "pcg")`, `s = "pcg"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parseStmt(tt.line, types)
			if err != nil {
				t.Fatalf("parseStmt(%q) error: %v", tt.line, err)
			}
			if got := expr.String(); got != tt.want {
				t.Errorf("parseStmt(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseStmtErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"UnbalancedOpen", "(= x (call * A p)"},
		{"UnbalancedClose", "(= x y))"},
		{"UnknownHead", "(frob x y)"},
		{"EmptyList", "()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseStmt(tt.line, nil); err == nil {
				t.Errorf("parseStmt(%q) succeeded, want error", tt.line)
			}
		})
	}
}

func TestCallResultTyping(t *testing.T) {
	types := ir.SymbolTypes{
		"A": ir.TypeSparseMatrix, "B": ir.TypeSparseMatrix,
		"p": ir.TypeVector, "alpha": ir.TypeNumber,
	}

	tests := []struct {
		line string
		want ir.Type
	}{
		{"(call * A p)", ir.TypeVector},
		{"(call * A B)", ir.TypeSparseMatrix},
		{"(call * alpha p)", ir.TypeVector},
		{"(call dot p p)", ir.TypeNumber},
		{"(call + p p)", ir.TypeVector},
		{"(call1 fwdTriSolve! A p)", ir.TypeVector},
		{"(call mystery alpha alpha)", ir.TypeNumber},
		{"(call mystery p)", ir.TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			expr, err := parseStmt(tt.line, types)
			if err != nil {
				t.Fatal(err)
			}
			call, ok := expr.(*ir.Call)
			if !ok {
				t.Fatalf("parsed %T, want *ir.Call", expr)
			}
			if call.Typ != tt.want {
				t.Errorf("result type = %v, want %v", call.Typ, tt.want)
			}
		})
	}
}

func TestLoadFixturePCG(t *testing.T) {
	fx, err := LoadFixture("testdata/pcg.txt")
	if err != nil {
		t.Fatal(err)
	}

	if got := len(fx.CFG.Blocks); got != 2 {
		t.Fatalf("blocks = %d, want 2", got)
	}
	body := fx.CFG.Block(1)
	if got := len(body.Stmts); got != 9 {
		t.Fatalf("body statements = %d, want 9", got)
	}
	if fx.Calls.ReorderingDecider == nil {
		t.Fatal("decider not resolved")
	}
	if got := fx.Calls.ReorderingDecider.String(); got != "fwdTriSolve!(L, z)" {
		t.Errorf("decider = %q", got)
	}
	if got := fx.Calls.ReorderingFAR; len(got) != 2 || got[0] != "L" {
		t.Errorf("FAR = %v, want [L z]", got)
	}
	if got := fx.Calls.Fknob(fx.Calls.ReorderingDecider); got != "__fknob_0" {
		t.Errorf("fknob = %q", got)
	}
}

func TestOverrideSeed(t *testing.T) {
	fx, err := LoadFixture("testdata/pcg.txt")
	if err != nil {
		t.Fatal(err)
	}

	// Promoting the current seed is a no-op.
	if err := fx.OverrideSeed("L"); err != nil {
		t.Fatal(err)
	}
	if got := fx.Calls.ReorderingFAR[0]; got != "L" {
		t.Errorf("FAR[0] = %s, want L", got)
	}

	// Another FAR member moves to the front.
	if err := fx.OverrideSeed("z"); err != nil {
		t.Fatal(err)
	}
	if got := fx.Calls.ReorderingFAR; got[0] != "z" || len(got) != 2 {
		t.Errorf("FAR = %v, want [z L]", got)
	}

	// A symbol outside FAR is rejected.
	if err := fx.OverrideSeed("A"); err == nil {
		t.Error("OverrideSeed(A) succeeded, want error")
	}
}

func TestPlanPCGEndToEnd(t *testing.T) {
	fx, err := LoadFixture("testdata/pcg.txt")
	if err != nil {
		t.Fatal(err)
	}

	pass := reorder.NewPass(nil)
	res := pass.Plan(nil, fx.Region, fx.Types, fx.Live, fx.CFG, fx.Calls)
	if !res.Planned {
		t.Fatal("planner skipped the loop")
	}

	var out bytes.Buffer
	renderResult(&out, res)
	got := out.String()

	for _, want := range []string{
		"constraint: A.col COL_PERM must equal ROW_INV_PERM",
		"plan: 3 actions",
		"[1] Before Loop Head (block 1)",
		"set_reordering_decision_maker(__fknob_0)",
		"__reordering_status = (false, C_NULL, C_NULL, C_NULL, C_NULL, 0)",
		"[2] After Statement block 1 stmt 5",
		"reordering(__fknob_0, __reordering_status, " +
			"A, ROW_PERM, COL_PERM, U, ROW_PERM, COL_PERM, __delimitor__, " +
			"p, ROW_PERM, r, ROW_PERM, x, ROW_PERM)",
		"[3] On Edge 1 -> 2",
		"reverse_reordering(__reordering_status, __delimitor__, r, ROW_PERM, x, ROW_PERM)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n---\n%s", want, got)
		}
	}
}

func TestRenderDescriptors(t *testing.T) {
	var out bytes.Buffer
	renderDescriptors(&out, reorder.DefaultRegistry())
	got := out.String()

	for _, want := range []string{
		"*(matrix, vector): (0,1,ROW_ROW) (1,2,COL_COL) (1,2,COL_ROW_INVERSE)",
		"norm(vector): non-distributive",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("describe output missing %q\n---\n%s", want, got)
		}
	}
}
