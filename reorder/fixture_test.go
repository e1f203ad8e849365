// Copyright 2025 Sparso Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reorder

import (
	"github.com/wyatuestc/sparso/ir"
)

// Test IR constructors.

func call(name string, typ ir.Type, args ...ir.Expr) *ir.Call {
	return &ir.Call{Head: ir.HeadCall, Callee: ir.Sym(name), Args: args, Typ: typ}
}

func call1(name string, typ ir.Type, args ...ir.Expr) *ir.Call {
	return &ir.Call{Head: ir.HeadCall1, Callee: ir.Sym(name), Args: args, Typ: typ}
}

func assign(lhs ir.Sym, rhs ir.Expr) *ir.Statement {
	return &ir.Statement{Expr: &ir.Assign{LHS: lhs, RHS: rhs}}
}

func stmt(e ir.Expr) *ir.Statement { return &ir.Statement{Expr: e} }

// loopFixture bundles the collaborators one planner invocation consumes.
type loopFixture struct {
	region  *ir.Region
	cfg     *ir.CFG
	types   ir.SymbolTypes
	live    *ir.TableLiveness
	calls   *ir.CallSites
	decider *ir.Call
	body    *ir.BasicBlock
	after   *ir.BasicBlock
}

// pcgFixture builds the conjugate-gradient kernel loop:
//
//	Ap = A*p
//	alpha = old_rz / dot(p, Ap)
//	x = x + alpha*p
//	r = r - alpha*Ap
//	z = r
//	fwdTriSolve!(L, z)        <- decider, seed L
//	bwdTriSolve!(U, z)
//	rz = dot(r, z)
//	p = z + beta*p
func pcgFixture() *loopFixture {
	types := ir.SymbolTypes{
		"A": ir.TypeSparseMatrix, "L": ir.TypeSparseMatrix, "U": ir.TypeSparseMatrix,
		"Ap": ir.TypeVector, "p": ir.TypeVector, "r": ir.TypeVector,
		"x": ir.TypeVector, "z": ir.TypeVector,
		"alpha": ir.TypeNumber, "beta": ir.TypeNumber,
		"rz": ir.TypeNumber, "old_rz": ir.TypeNumber,
	}

	decider := call1("fwdTriSolve!", ir.TypeVector, ir.Sym("L"), ir.Sym("z"))
	decider.Knob = "__fknob_0"

	body := &ir.BasicBlock{Label: 1}
	body.Stmts = []*ir.Statement{
		assign("Ap", call("*", ir.TypeVector, ir.Sym("A"), ir.Sym("p"))),
		assign("alpha", call("/", ir.TypeNumber, ir.Sym("old_rz"),
			call("dot", ir.TypeNumber, ir.Sym("p"), ir.Sym("Ap")))),
		assign("x", call("+", ir.TypeVector, ir.Sym("x"),
			call("*", ir.TypeVector, ir.Sym("alpha"), ir.Sym("p")))),
		assign("r", call("-", ir.TypeVector, ir.Sym("r"),
			call("*", ir.TypeVector, ir.Sym("alpha"), ir.Sym("Ap")))),
		assign("z", ir.Sym("r")),
		stmt(decider),
		stmt(call1("bwdTriSolve!", ir.TypeVector, ir.Sym("U"), ir.Sym("z"))),
		assign("rz", call("dot", ir.TypeNumber, ir.Sym("r"), ir.Sym("z"))),
		assign("p", call("+", ir.TypeVector, ir.Sym("z"),
			call("*", ir.TypeVector, ir.Sym("beta"), ir.Sym("p")))),
	}
	after := &ir.BasicBlock{Label: 2}

	live := ir.NewTableLiveness()
	live.StmtLiveOuts[body.Stmts[5]] = ir.NewSymSet("A", "L", "U", "p", "r", "x", "z", "beta", "rz")
	live.LiveOuts[1] = ir.NewSymSet("x", "r", "rz")
	live.LiveIns[2] = ir.NewSymSet("x")

	return &loopFixture{
		region: &ir.Region{
			Loop:  &ir.Loop{Head: body, Members: []*ir.BasicBlock{body}},
			Exits: []ir.Edge{{From: body, To: after}},
		},
		cfg:   &ir.CFG{Blocks: []*ir.BasicBlock{body, after}},
		types: types,
		live:  live,
		calls: &ir.CallSites{
			ReorderingDecider: decider,
			ReorderingFAR:     []ir.Sym{"L", "z"},
			Expr2Fknob:        map[*ir.Call]ir.Sym{decider: "__fknob_0"},
		},
		decider: decider,
		body:    body,
		after:   after,
	}
}

// buildPCG runs only the builder over the fixture and returns the context.
func buildPCG(fx *loopFixture) (*Context, error) {
	ctx := NewContext("L", fx.decider)
	b := &Builder{Registry: DefaultRegistry(), Types: fx.types}
	err := b.BuildRegion(ctx, fx.region)
	return ctx, err
}

// checkColoring verifies the colour-consistency property over every edge:
// coloured endpoints agree (through the inverse map on inverse edges) or a
// diagnostic was reported for the pair.
func checkColoring(g *IDG, diags []Diagnostic) []string {
	reported := make(map[string]bool, len(diags))
	for _, d := range diags {
		reported[d.Vertex] = true
	}
	var bad []string
	for _, u := range g.Vertices() {
		for _, nbr := range u.Nbrs {
			v := g.Vertex(nbr.Idx)
			if u.Color == NoPerm || v.Color == NoPerm {
				continue
			}
			want := u.Color
			if nbr.Inverse {
				want = u.Color.Inverse()
			}
			if v.Color != want && !reported[u.Name()] && !reported[v.Name()] {
				bad = append(bad, u.Name()+" -> "+v.Name())
			}
		}
	}
	return bad
}
