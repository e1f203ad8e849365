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
	"fmt"

	"github.com/wyatuestc/sparso/ir"
)

// Axis selects the row or column permutation vector of an array.
type Axis int

const (
	AxisRow Axis = iota
	AxisCol
)

func (a Axis) String() string {
	if a == AxisCol {
		return "col"
	}
	return "row"
}

// NbrRef is one half of an undirected IDG edge: the arena index of the
// neighbour plus the inverse flag. The flag rides on the edge, not the
// vertex.
type NbrRef struct {
	Idx     int
	Inverse bool
}

// Vertex is one permutation vector: the pair (array, axis). Array is a
// symbol, or a call node standing for the call's result array. Colour is
// mutable during propagation and frozen afterwards.
type Vertex struct {
	Array ir.Expr
	Axis  Axis
	Color PermColor
	Nbrs  []NbrRef
}

// Name renders the vertex for diagnostics, e.g. "A.col".
func (v *Vertex) Name() string {
	return fmt.Sprintf("%s.%s", v.Array.String(), v.Axis)
}

// invEdge records one inverse edge in insertion order, for the deferred
// constraint pass.
type invEdge struct {
	u, v int
}

// IDG is the inter-dependence graph: an arena of vertices with two
// deduplicating indices (array → row vertex, array → column vertex) and a
// designated seed. Vertices live for one planner invocation.
type IDG struct {
	Seed ir.Sym

	vertices []*Vertex
	rowIdx   map[ir.Expr]int
	colIdx   map[ir.Expr]int
	invEdges []invEdge
}

// NewIDG returns an empty graph for the given seed matrix.
func NewIDG(seed ir.Sym) *IDG {
	return &IDG{
		Seed:   seed,
		rowIdx: make(map[ir.Expr]int),
		colIdx: make(map[ir.Expr]int),
	}
}

// Vertices returns the arena in insertion order.
func (g *IDG) Vertices() []*Vertex { return g.vertices }

// Vertex returns the vertex at an arena index.
func (g *IDG) Vertex(idx int) *Vertex { return g.vertices[idx] }

// Ensure returns the arena index of (array, axis), creating the vertex on
// first sight. Two vertices never share the same (array, axis).
func (g *IDG) Ensure(array ir.Expr, axis Axis) int {
	idx := g.rowIdx
	if axis == AxisCol {
		idx = g.colIdx
	}
	if i, ok := idx[array]; ok {
		return i
	}
	i := len(g.vertices)
	g.vertices = append(g.vertices, &Vertex{Array: array, Axis: axis, Color: NoPerm})
	idx[array] = i
	return i
}

// Find returns the arena index of (array, axis) without creating it.
func (g *IDG) Find(array ir.Expr, axis Axis) (int, bool) {
	idx := g.rowIdx
	if axis == AxisCol {
		idx = g.colIdx
	}
	i, ok := idx[array]
	return i, ok
}

// ColorOf returns the colour of (array, axis), or NoPerm when the vertex
// does not exist.
func (g *IDG) ColorOf(array ir.Expr, axis Axis) PermColor {
	if i, ok := g.Find(array, axis); ok {
		return g.vertices[i].Color
	}
	return NoPerm
}

// AddEdge inserts the undirected edge a relation imposes between two
// arrays. RowRow joins the row vertices, ColCol the column vertices, and
// ColRowInverse joins the first array's column vertex to the second's row
// vertex with the inverse flag set.
func (g *IDG) AddEdge(first, second ir.Expr, rel Relation) {
	var u, v int
	inverse := false
	switch rel {
	case RowRow:
		u = g.Ensure(first, AxisRow)
		v = g.Ensure(second, AxisRow)
	case ColCol:
		u = g.Ensure(first, AxisCol)
		v = g.Ensure(second, AxisCol)
	case ColRowInverse:
		u = g.Ensure(first, AxisCol)
		v = g.Ensure(second, AxisRow)
		inverse = true
	}
	if u == v {
		// RowRow or ColCol of an array against itself carries no edge.
		return
	}
	g.vertices[u].Nbrs = append(g.vertices[u].Nbrs, NbrRef{Idx: v, Inverse: inverse})
	g.vertices[v].Nbrs = append(g.vertices[v].Nbrs, NbrRef{Idx: u, Inverse: inverse})
	if inverse {
		g.invEdges = append(g.invEdges, invEdge{u, v})
	}
}
