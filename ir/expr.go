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

// Package ir models the host-side intermediate representation the
// reordering planner consumes: a sum-typed expression tree, basic blocks
// grouped into loop regions, and the oracles (types, liveness, call sites)
// the host supplies alongside them.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Sym names a variable in the user routine. Arrays (sparse matrices and
// dense vectors) as well as scalars are referenced by Sym.
type Sym string

// Expr is the expression sum type. One concrete node exists per head the
// host IR can produce; anything else is a structural error to the planner.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// CallHead distinguishes the two call forms the host emits.
type CallHead int

const (
	// HeadCall is an ordinary call expression.
	HeadCall CallHead = iota
	// HeadCall1 is the single-result call form used for in-place library
	// routines such as fwdTriSolve!.
	HeadCall1
)

func (h CallHead) String() string {
	if h == HeadCall1 {
		return "call1"
	}
	return "call"
}

// Call is a function application. Callee is the callee expression (a Sym
// after resolution). Knob, when non-empty, is the trailing function-knob
// sentinel argument; it is not part of the call's arity.
type Call struct {
	Head   CallHead
	Callee Expr
	Args   []Expr
	Knob   Sym
	// Typ is the result type of the call as annotated by the host.
	Typ Type
}

// Arity returns the number of real arguments. The function-knob sentinel
// never counts.
func (c *Call) Arity() int { return len(c.Args) }

func (c *Call) String() string {
	var sb strings.Builder
	if c.Callee == nil {
		sb.WriteString("<unresolved>")
	} else {
		sb.WriteString(c.Callee.String())
	}
	sb.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	if c.Knob != "" {
		if len(c.Args) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(c.Knob))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Assign is the `=` head.
type Assign struct {
	LHS Expr
	RHS Expr
}

func (a *Assign) String() string { return a.LHS.String() + " = " + a.RHS.String() }

// Tuple groups expressions element-wise.
type Tuple struct {
	Elems []Expr
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Return carries an optional value out of the routine.
type Return struct {
	Value Expr // may be nil
}

func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// GotoIfNot is the conditional branch head.
type GotoIfNot struct {
	Cond   Expr
	Target int
}

func (g *GotoIfNot) String() string {
	return fmt.Sprintf("gotoifnot %s %d", g.Cond.String(), g.Target)
}

// Goto is the unconditional branch head.
type Goto struct {
	Target int
}

func (g *Goto) String() string { return fmt.Sprintf("goto %d", g.Target) }

// Line is a source-line marker.
type Line struct {
	Num  int
	File string
}

func (l *Line) String() string { return fmt.Sprintf("# line %d %s", l.Num, l.File) }

// Label marks a branch target.
type Label struct {
	Num int
}

func (l *Label) String() string { return fmt.Sprintf("label %d:", l.Num) }

// Num is a numeric literal.
type Num struct {
	Value float64
}

func (n *Num) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

func (b *Bool) String() string { return strconv.FormatBool(b.Value) }

// Str is a string literal.
type Str struct {
	Value string
}

func (s *Str) String() string { return strconv.Quote(s.Value) }

// Lambda is an opaque closure descriptor. The planner only descends into
// it far enough to know it contributes nothing.
type Lambda struct {
	Params []Sym
}

func (l *Lambda) String() string {
	parts := make([]string, len(l.Params))
	for i, p := range l.Params {
		parts[i] = string(p)
	}
	return "lambda(" + strings.Join(parts, ", ") + ")"
}

// NewVar marks the introduction of a fresh variable.
type NewVar struct {
	Name Sym
}

func (n *NewVar) String() string { return "newvar " + string(n.Name) }

func (Sym) exprNode()        {}
func (*Call) exprNode()      {}
func (*Assign) exprNode()    {}
func (*Tuple) exprNode()     {}
func (*Return) exprNode()    {}
func (*GotoIfNot) exprNode() {}
func (*Goto) exprNode()      {}
func (*Line) exprNode()      {}
func (*Label) exprNode()     {}
func (*Num) exprNode()       {}
func (*Bool) exprNode()      {}
func (*Str) exprNode()       {}
func (*Lambda) exprNode()    {}
func (*NewVar) exprNode()    {}

func (s Sym) String() string { return string(s) }
