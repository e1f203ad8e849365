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

// Package reorder plans the joint permutation of the sparse matrices and
// vectors used inside a loop. It builds an inter-dependence graph over the
// row and column permutation vectors of every array the loop touches,
// colours it from a seed matrix, and synthesises the editing actions that
// splice reorder and inverse-reorder calls around the loop.
package reorder

import "github.com/wyatuestc/sparso/ir"

// PermColor tags which canonical permutation vector an IDG vertex holds.
type PermColor int

const (
	NoPerm PermColor = iota
	RowPerm
	RowInvPerm
	ColPerm
	ColInvPerm
)

// Inverse maps a colour to the colour of its inverse permutation vector.
// The map is an involution on the four real colours; NoPerm has no
// inverse and never appears on an active frontier.
func (c PermColor) Inverse() PermColor {
	switch c {
	case RowPerm:
		return RowInvPerm
	case RowInvPerm:
		return RowPerm
	case ColPerm:
		return ColInvPerm
	case ColInvPerm:
		return ColPerm
	default:
		return NoPerm
	}
}

func (c PermColor) String() string {
	switch c {
	case RowPerm:
		return "ROW_PERM"
	case RowInvPerm:
		return "ROW_INV_PERM"
	case ColPerm:
		return "COL_PERM"
	case ColInvPerm:
		return "COL_INV_PERM"
	default:
		return "NO_PERM"
	}
}

// RefSym returns the colour constant as the named reference the emitted
// runtime calls use.
func (c PermColor) RefSym() ir.Sym { return ir.Sym(c.String()) }

// Relation is the permutation constraint a call imposes between two of its
// arrays.
type Relation int

const (
	// RowRow: the two arrays' row permutations must be equal.
	RowRow Relation = iota
	// ColCol: the two arrays' column permutations must be equal.
	ColCol
	// ColRowInverse: the first array's column permutation must equal the
	// inverse of the second array's row permutation.
	ColRowInverse
)

func (r Relation) String() string {
	switch r {
	case ColCol:
		return "COL_COL"
	case ColRowInverse:
		return "COL_ROW_INVERSE"
	default:
		return "ROW_ROW"
	}
}
