package ir

import "testing"

func TestExprString(t *testing.T) {
	spmv := &Call{
		Head:   HeadCall,
		Callee: Sym("*"),
		Args:   []Expr{Sym("A"), Sym("p")},
		Typ:    TypeVector,
	}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"Sym", Sym("x"), "x"},
		{"Num", &Num{Value: 0.5}, "0.5"},
		{"NumZero", &Num{Value: 0}, "0"},
		{"Bool", &Bool{Value: false}, "false"},
		{"Str", &Str{Value: "pcg"}, `"pcg"`},
		{"Call", spmv, "*(A, p)"},
		{"Assign", &Assign{LHS: Sym("Ap"), RHS: spmv}, "Ap = *(A, p)"},
		{"Tuple", &Tuple{Elems: []Expr{Sym("a"), &Num{Value: 1}}}, "(a, 1)"},
		{"Return", &Return{Value: Sym("x")}, "return x"},
		{"BareReturn", &Return{}, "return"},
		{"GotoIfNot", &GotoIfNot{Cond: Sym("done"), Target: 3}, "gotoifnot done 3"},
		{"Goto", &Goto{Target: 1}, "goto 1"},
		{"Label", &Label{Num: 2}, "label 2:"},
		{"Line", &Line{Num: 12, File: "pcg.jl"}, "# line 12 pcg.jl"},
		{"Lambda", &Lambda{Params: []Sym{"a", "b"}}, "lambda(a, b)"},
		{"NewVar", &NewVar{Name: Sym("tmp")}, "newvar tmp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallKnobExcludedFromArity(t *testing.T) {
	c := &Call{
		Head:   HeadCall1,
		Callee: Sym("fwdTriSolve!"),
		Args:   []Expr{Sym("L"), Sym("z")},
		Knob:   "__fknob_0",
	}
	if got := c.Arity(); got != 2 {
		t.Errorf("Arity() = %d, want 2", got)
	}
	want := "fwdTriSolve!(L, z, __fknob_0)"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTypeOf(t *testing.T) {
	types := SymbolTypes{"A": TypeSparseMatrix, "p": TypeVector, "n": TypeNumber}

	tests := []struct {
		name string
		expr Expr
		want Type
	}{
		{"MatrixSym", Sym("A"), TypeSparseMatrix},
		{"VectorSym", Sym("p"), TypeVector},
		{"NumberSym", Sym("n"), TypeNumber},
		{"UnknownSym", Sym("ghost"), TypeOther},
		{"NumLiteral", &Num{Value: 2}, TypeNumber},
		{"StrLiteral", &Str{Value: "s"}, TypeOther},
		{"Call", &Call{Callee: Sym("dot"), Typ: TypeNumber}, TypeNumber},
		{"Assign", &Assign{LHS: Sym("p"), RHS: Sym("A")}, TypeVector},
		{"Tuple", &Tuple{}, TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeOf(tt.expr, types); got != tt.want {
				t.Errorf("TypeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumbersOrArrays(t *testing.T) {
	tests := []struct {
		name       string
		result     Type
		args       []Type
		allNumbers bool
		someArrays bool
	}{
		{"AllNumbers", TypeNumber, []Type{TypeNumber, TypeNumber}, true, false},
		{"SpMV", TypeVector, []Type{TypeSparseMatrix, TypeVector}, false, true},
		{"MixedDot", TypeNumber, []Type{TypeVector, TypeVector}, false, true},
		{"NoArgs", TypeNumber, nil, true, false},
		{"OtherOnly", TypeOther, []Type{TypeOther}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allNumbers, someArrays := NumbersOrArrays(tt.result, tt.args)
			if allNumbers != tt.allNumbers || someArrays != tt.someArrays {
				t.Errorf("NumbersOrArrays() = (%v, %v), want (%v, %v)",
					allNumbers, someArrays, tt.allNumbers, tt.someArrays)
			}
		})
	}
}

func TestIsArray(t *testing.T) {
	if !TypeSparseMatrix.IsArray() || !TypeVector.IsArray() {
		t.Error("matrix and vector must classify as arrays")
	}
	if TypeNumber.IsArray() || TypeOther.IsArray() {
		t.Error("number and other must not classify as arrays")
	}
}
