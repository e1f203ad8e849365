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
	"log/slog"
)

// Diagnostic reports a discovered equality between two permutation
// vectors: propagation wanted to assign Want to a vertex already holding
// Have. It is never an error; it tells the runtime the two permutations
// are constrained to coincide (the P·A·Pᵀ symmetric case when a matrix's
// column permutation is bound to its row inverse).
type Diagnostic struct {
	Vertex string
	Have   PermColor
	Want   PermColor
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("permutation constraint: %s %s must equal %s", d.Vertex, d.Have, d.Want)
}

// Propagate colours the graph from the seed: the seed's row vertex starts
// as ROW_PERM and its column vertex as COL_PERM. Equality edges are
// saturated breadth-first from both seeds before any inverse edge is
// applied, so the resulting colouring does not depend on which seed goes
// first; inverse edges then colour whatever they can reach and the two
// passes alternate to a fixpoint. A would-be overwrite with a different
// colour becomes a Diagnostic and propagation stops through that vertex.
// Every vertex is expanded at most once, so termination is guaranteed.
func Propagate(g *IDG, log *slog.Logger) []Diagnostic {
	rowSeed, _ := g.Find(g.Seed, AxisRow)
	colSeed, _ := g.Find(g.Seed, AxisCol)
	g.Vertex(rowSeed).Color = RowPerm
	g.Vertex(colSeed).Color = ColPerm

	var diags []Diagnostic
	seen := make(map[Diagnostic]struct{})
	report := func(d Diagnostic) {
		if _, dup := seen[d]; dup {
			return
		}
		seen[d] = struct{}{}
		diags = append(diags, d)
		if log != nil {
			log.Info(d.String())
		}
	}

	expanded := make([]bool, len(g.Vertices()))
	queue := []int{rowSeed, colSeed}

	// saturate spreads colours over equality edges until the queue is
	// empty.
	saturate := func() {
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			if expanded[u] {
				continue
			}
			expanded[u] = true
			uv := g.Vertex(u)
			for _, nbr := range uv.Nbrs {
				if nbr.Inverse {
					continue
				}
				vv := g.Vertex(nbr.Idx)
				switch {
				case vv.Color == NoPerm:
					vv.Color = uv.Color
					if log != nil {
						log.Debug("coloured", slog.String("vertex", vv.Name()),
							slog.String("color", vv.Color.String()))
					}
					queue = append(queue, nbr.Idx)
				case vv.Color == uv.Color:
					queue = append(queue, nbr.Idx)
				default:
					report(Diagnostic{Vertex: vv.Name(), Have: vv.Color, Want: uv.Color})
				}
			}
		}
	}

	saturate()
	for {
		progressed := false
		for _, e := range g.invEdges {
			u, v := g.Vertex(e.u), g.Vertex(e.v)
			switch {
			case u.Color == NoPerm && v.Color == NoPerm:
				continue
			case u.Color != NoPerm && v.Color == NoPerm:
				v.Color = u.Color.Inverse()
				queue = append(queue, e.v)
				progressed = true
			case u.Color == NoPerm && v.Color != NoPerm:
				u.Color = v.Color.Inverse()
				queue = append(queue, e.u)
				progressed = true
			case u.Color != v.Color.Inverse():
				report(Diagnostic{Vertex: u.Name(), Have: u.Color, Want: v.Color.Inverse()})
			}
		}
		if !progressed {
			break
		}
		saturate()
	}
	return diags
}
