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
	"log/slog"

	"github.com/samber/lo"

	"github.com/wyatuestc/sparso/ir"
)

// Names the planner synthesises into the output IR. The runtime library
// defines them; the planner only references them.
const (
	SetDecisionMakerFunc  = "set_reordering_decision_maker"
	ReorderingFunc        = "reordering"
	ReverseReorderingFunc = "reverse_reordering"

	// DelimitorSym separates the matrix section from the vector section
	// in the emitted calls. The spelling is the runtime's.
	DelimitorSym = ir.Sym("__delimitor__")

	// StatusSym names the reordering status tuple threaded through the
	// inserted calls: (done?, p1, p2, p3, p4, time).
	StatusSym = ir.Sym("__reordering_status")

	nullSym = ir.Sym("C_NULL")
)

// Planner synthesises the editing actions from a coloured IDG plus the
// liveness oracle.
type Planner struct {
	Types    ir.SymbolTypes
	Liveness ir.Liveness
	Log      *slog.Logger
}

// Plan appends the three kinds of actions to out: the before-loop
// preamble, the inside-loop post-decider reorder, and one inverse-reorder
// block per loop exit edge.
func (p *Planner) Plan(out []Action, ctx *Context, region *ir.Region, fknob ir.Sym, far []ir.Sym) []Action {
	out = append(out, p.preamble(region, fknob))
	out = append(out, p.postDecider(ctx, fknob, far))
	for _, exit := range region.Exits {
		out = append(out, p.exitReorder(ctx, exit))
	}
	return out
}

// preamble registers the decider's knob as the reordering decision maker
// and initialises a fresh status tuple, immediately before the loop head.
func (p *Planner) preamble(region *ir.Region, fknob ir.Sym) Action {
	register := &ir.Call{
		Head:   ir.HeadCall,
		Callee: ir.Sym(SetDecisionMakerFunc),
		Args:   []ir.Expr{fknob},
	}
	status := &ir.Assign{
		LHS: StatusSym,
		RHS: &ir.Tuple{Elems: []ir.Expr{
			&ir.Bool{Value: false},
			nullSym, nullSym, nullSym, nullSym,
			&ir.Num{Value: 0.0},
		}},
	}
	return &InsertBeforeLoopHead{
		Loop: region.Loop,
		Stmts: []*ir.Statement{
			{Expr: register},
			{Expr: status},
		},
	}
}

// postDecider emits the reordering call right after the decider statement.
// The payload covers live_out(decider) minus FAR: the decider permutes its
// own inputs and outputs in place, so FAR symbols must not be reordered a
// second time.
func (p *Planner) postDecider(ctx *Context, fknob ir.Sym, far []ir.Sym) Action {
	live := p.Liveness.LiveOutStmt(ctx.DeciderStmt()).Minus(ir.NewSymSet(far...))

	args := []ir.Expr{fknob, StatusSym}
	args = append(args, p.payload(ctx.Graph, live)...)
	call := &ir.Call{Head: ir.HeadCall, Callee: ir.Sym(ReorderingFunc), Args: args}

	if p.Log != nil {
		p.Log.Debug("post-decider reorder",
			slog.Int("bb", ctx.DeciderBB.Label),
			slog.Int("stmt", ctx.DeciderStmtIdx))
	}
	return &InsertBeforeOrAfterStatement{
		Before:  false,
		BB:      ctx.DeciderBB,
		StmtIdx: ctx.DeciderStmtIdx,
		Stmts:   []*ir.Statement{{Expr: call}},
	}
}

// exitReorder emits the reverse_reordering call for one exit edge over the
// arrays live across it, restoring the user's original layout.
func (p *Planner) exitReorder(ctx *Context, exit ir.Edge) Action {
	live := p.Liveness.LiveOut(exit.From).Intersect(p.Liveness.LiveIn(exit.To))

	args := []ir.Expr{StatusSym}
	args = append(args, p.payload(ctx.Graph, live)...)
	call := &ir.Call{Head: ir.HeadCall, Callee: ir.Sym(ReverseReorderingFunc), Args: args}

	return &InsertOnEdge{
		From:  exit.From,
		To:    exit.To,
		Stmts: []*ir.Statement{{Expr: call}},
	}
}

// payload lists the matrix section, the delimiter, then the vector
// section. A matrix contributes (symbol, row colour, column colour) when
// either axis is coloured; a vector contributes (symbol, row colour) when
// its row is. Symbols appear in lexicographic order so emitted calls are
// reproducible.
func (p *Planner) payload(g *IDG, live ir.SymSet) []ir.Expr {
	syms := live.Sorted()
	matrices := lo.Filter(syms, func(s ir.Sym, _ int) bool {
		return p.Types[s] == ir.TypeSparseMatrix
	})
	vectors := lo.Filter(syms, func(s ir.Sym, _ int) bool {
		return p.Types[s] == ir.TypeVector
	})

	var args []ir.Expr
	for _, m := range matrices {
		row := g.ColorOf(m, AxisRow)
		col := g.ColorOf(m, AxisCol)
		if row == NoPerm && col == NoPerm {
			continue
		}
		args = append(args, m, row.RefSym(), col.RefSym())
	}
	args = append(args, DelimitorSym)
	for _, v := range vectors {
		row := g.ColorOf(v, AxisRow)
		if row == NoPerm {
			continue
		}
		args = append(args, v, row.RefSym())
	}
	return args
}
