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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wyatuestc/sparso/ir"
)

// The abort conditions of the builder. Any of these makes the whole
// planner invocation give up and leave the caller's action list unchanged.
var (
	ErrUnresolvedFunction       = errors.New("unresolved function")
	ErrUndescribedFunction      = errors.New("undescribed function")
	ErrNonDistributiveFunction  = errors.New("non-distributive function")
	ErrUnhandledExpr            = errors.New("unhandled call expression")
	ErrUnknownASTDistributivity = errors.New("unknown AST shape")
)

// Context is the per-invocation working state: the seed, the decider call,
// the decider's resolved position (frozen on first encounter), the graph,
// and the walker's cursor.
type Context struct {
	Seed    ir.Sym
	Decider *ir.Call
	Graph   *IDG

	DeciderBB      *ir.BasicBlock
	DeciderStmtIdx int
	deciderSet     bool

	curBB   *ir.BasicBlock
	curStmt int
}

// NewContext returns a context with an empty graph whose seed row and
// column vertices are pre-created.
func NewContext(seed ir.Sym, decider *ir.Call) *Context {
	g := NewIDG(seed)
	g.Ensure(seed, AxisRow)
	g.Ensure(seed, AxisCol)
	return &Context{Seed: seed, Decider: decider, Graph: g}
}

// DeciderResolved reports whether the decider call was seen during the
// walk.
func (c *Context) DeciderResolved() bool { return c.deciderSet }

// DeciderStmt returns the statement containing the decider call.
func (c *Context) DeciderStmt() *ir.Statement {
	return c.DeciderBB.Stmts[c.DeciderStmtIdx]
}

func (c *Context) recordDecider() {
	if c.deciderSet {
		panic("reorder: decider position recorded twice in one invocation")
	}
	c.DeciderBB = c.curBB
	c.DeciderStmtIdx = c.curStmt
	c.deciderSet = true
}

// Builder walks the loop's statements in source order and materialises
// the vertices and edges each call's distributivity record implies.
type Builder struct {
	Registry *Registry
	Types    ir.SymbolTypes
	Log      *slog.Logger
}

// BuildRegion runs the single-pass traversal over every statement of the
// loop.
func (b *Builder) BuildRegion(ctx *Context, region *ir.Region) error {
	for _, bb := range region.Loop.Members {
		ctx.curBB = bb
		for i, stmt := range bb.Stmts {
			ctx.curStmt = i
			if stmt.Expr == nil {
				continue
			}
			if err := b.walk(ctx, stmt.Expr); err != nil {
				return err
			}
		}
	}
	return nil
}

// walk descends into an expression, arguments before the enclosing call so
// nested calls contribute their constraints first.
func (b *Builder) walk(ctx *Context, e ir.Expr) error {
	switch n := e.(type) {
	case *ir.Call:
		for _, a := range n.Args {
			if err := b.walk(ctx, a); err != nil {
				return err
			}
		}
		if n == ctx.Decider {
			ctx.recordDecider()
		}
		return b.classifyCall(ctx, n)

	case *ir.Assign:
		if err := b.walk(ctx, n.RHS); err != nil {
			return err
		}
		if err := b.walk(ctx, n.LHS); err != nil {
			return err
		}
		return b.classifyAssign(ctx, n)

	case *ir.Tuple:
		for _, el := range n.Elems {
			if err := b.walk(ctx, el); err != nil {
				return err
			}
		}
		return nil

	case *ir.Return:
		if n.Value != nil {
			return b.walk(ctx, n.Value)
		}
		return nil

	case *ir.GotoIfNot:
		return b.walk(ctx, n.Cond)

	case ir.Sym, *ir.Goto, *ir.Line, *ir.Label, *ir.Num, *ir.Bool, *ir.Str,
		*ir.Lambda, *ir.NewVar:
		// Trivia and leaves contribute nothing.
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrUnknownASTDistributivity, e)
	}
}

// classifyCall looks a call up in the registry and adds the edges its
// distributivity record implies.
func (b *Builder) classifyCall(ctx *Context, call *ir.Call) error {
	argTypes := make([]ir.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = ir.TypeOf(a, b.Types)
	}
	if allNumbers, someArrays := ir.NumbersOrArrays(call.Typ, argTypes); allNumbers || !someArrays {
		return nil
	}

	if call.Callee != nil {
		if _, ok := call.Callee.(ir.Sym); !ok {
			return fmt.Errorf("%w: callee %s", ErrUnhandledExpr, call.Callee)
		}
	}
	module, name := calleeName(call.Callee)
	desc, status := b.Registry.Lookup(module, name, argTypes)
	switch status {
	case LookupUnresolved:
		return fmt.Errorf("%w: %s", ErrUnresolvedFunction, call)
	case LookupUndescribed:
		return fmt.Errorf("%w: %s(%s)", ErrUndescribedFunction, name, typeTuple(argTypes))
	case LookupNonDistributive:
		return fmt.Errorf("%w: %s(%s)", ErrNonDistributiveFunction, name, typeTuple(argTypes))
	}

	b.addDescriptorEdges(ctx, desc, func(idx int) ir.Expr {
		if idx == 0 {
			return call
		}
		return call.Args[idx-1]
	})
	return nil
}

// classifyAssign contributes constraints through the pseudo-function ":=".
func (b *Builder) classifyAssign(ctx *Context, asg *ir.Assign) error {
	argTypes := []ir.Type{
		ir.TypeOf(asg.LHS, b.Types),
		ir.TypeOf(asg.RHS, b.Types),
	}
	if allNumbers, someArrays := ir.NumbersOrArrays(argTypes[0], argTypes); allNumbers || !someArrays {
		return nil
	}

	desc, _ := b.Registry.Lookup("", AssignFunc, argTypes)
	sides := []ir.Expr{asg.LHS, asg.RHS}
	b.addDescriptorEdges(ctx, desc, func(idx int) ir.Expr {
		return sides[idx-1]
	})
	return nil
}

// addDescriptorEdges resolves each (index, index, relation) triple to two
// concrete arrays and inserts the edge. Non-array endpoints drop the
// triple: a descriptor only speaks about array positions.
func (b *Builder) addDescriptorEdges(ctx *Context, desc *Descriptor, at func(int) ir.Expr) {
	for _, rel := range desc.Relations {
		first := arrayOperand(at(rel.First), b.Types)
		second := arrayOperand(at(rel.Second), b.Types)
		if first == nil || second == nil {
			continue
		}
		ctx.Graph.AddEdge(first, second, rel.Relation)
		if b.Log != nil {
			b.Log.Debug("idg edge",
				slog.String("first", first.String()),
				slog.String("second", second.String()),
				slog.String("relation", rel.Relation.String()))
		}
	}
}

// arrayOperand returns the IDG key for an expression when it denotes an
// array: the symbol itself, or the call node standing for its result.
func arrayOperand(e ir.Expr, types ir.SymbolTypes) ir.Expr {
	if !ir.TypeOf(e, types).IsArray() {
		return nil
	}
	switch e.(type) {
	case ir.Sym, *ir.Call:
		return e
	default:
		return nil
	}
}

// calleeName splits a resolved callee into module and function name. A
// dotted symbol like "Sparso.SpMV" carries its module prefix.
func calleeName(callee ir.Expr) (module, name string) {
	sym, ok := callee.(ir.Sym)
	if !ok {
		return "", ""
	}
	s := string(sym)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

func typeTuple(types []ir.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
