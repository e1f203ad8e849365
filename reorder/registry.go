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
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/wyatuestc/sparso/ir"
)

// AssignFunc is the pseudo-function name describing plain assignments.
const AssignFunc = ":="

// IndexRelation binds two argument positions of a call with a permutation
// relation. Index 0 is the call's result; positive indices are argument
// positions, 1-based.
type IndexRelation struct {
	First    int
	Second   int
	Relation Relation
}

// Descriptor is one registry entry: the distributivity record for a
// (module, name, argument-type tuple).
type Descriptor struct {
	Module   string
	Name     string
	ArgTypes []ir.Type

	// Distributive is false for calls whose result does not commute with
	// a joint permutation of their arrays.
	Distributive bool

	Relations []IndexRelation
}

// LookupStatus classifies the outcome of a registry lookup.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupUnresolved
	LookupUndescribed
	LookupNonDistributive
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupUnresolved:
		return "unresolved"
	case LookupNonDistributive:
		return "non-distributive"
	default:
		return "undescribed"
	}
}

// Registry maps (module, name, argument types) to distributivity records.
// It is immutable after initialisation and safe to share across planner
// invocations.
type Registry struct {
	entries map[string]*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Registering twice for the same key replaces
// the earlier entry.
func (r *Registry) Register(d *Descriptor) {
	r.entries[descriptorKey(d.Module, d.Name, d.ArgTypes)] = d
}

// Lookup finds the descriptor for a call. Matching is exact on the
// supplied type tuple; the registry never infers covariance. The
// pseudo-function ":=" is synthesised here rather than stored: it imposes
// RowRow between its two sides plus ColCol when both are matrices.
func (r *Registry) Lookup(module, name string, argTypes []ir.Type) (*Descriptor, LookupStatus) {
	if name == "" {
		return nil, LookupUnresolved
	}
	if name == AssignFunc {
		return assignDescriptor(argTypes), LookupFound
	}
	d, ok := r.entries[descriptorKey(module, name, argTypes)]
	if !ok {
		return nil, LookupUndescribed
	}
	if !d.Distributive {
		return d, LookupNonDistributive
	}
	return d, LookupFound
}

// Descriptors returns every registered entry, sorted by key, for the
// driver tool's describe output.
func (r *Registry) Descriptors() []*Descriptor {
	keys := lo.Keys(r.entries)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) *Descriptor { return r.entries[k] })
}

func descriptorKey(module, name string, argTypes []ir.Type) string {
	parts := lo.Map(argTypes, func(t ir.Type, _ int) string { return t.String() })
	return module + ":" + name + "(" + strings.Join(parts, ",") + ")"
}

func assignDescriptor(argTypes []ir.Type) *Descriptor {
	d := &Descriptor{
		Name:         AssignFunc,
		ArgTypes:     argTypes,
		Distributive: true,
		Relations:    []IndexRelation{{1, 2, RowRow}},
	}
	if len(argTypes) == 2 &&
		argTypes[0] == ir.TypeSparseMatrix && argTypes[1] == ir.TypeSparseMatrix {
		d.Relations = append(d.Relations, IndexRelation{1, 2, ColCol})
	}
	return d
}

// DefaultRegistry describes the numerical routines the accelerator library
// exports. Relations follow the algebra of each routine: for y = A*x the
// result rows follow A's rows and A's columns must be the inverse of x's
// row permutation; elementwise operations keep all their operands on the
// same permutations.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	matrix := ir.TypeSparseMatrix
	vector := ir.TypeVector
	number := ir.TypeNumber

	for _, d := range []*Descriptor{
		// ===== Multiplication =====
		{Name: "*", ArgTypes: []ir.Type{matrix, vector}, Distributive: true,
			Relations: []IndexRelation{
				{0, 1, RowRow},
				{1, 2, ColCol},
				{1, 2, ColRowInverse},
			}},
		{Name: "*", ArgTypes: []ir.Type{number, vector}, Distributive: true,
			Relations: []IndexRelation{{0, 2, RowRow}, {0, 2, ColCol}}},
		{Name: "*", ArgTypes: []ir.Type{number, matrix}, Distributive: true,
			Relations: []IndexRelation{{0, 2, RowRow}, {0, 2, ColCol}}},

		// ===== Elementwise arithmetic =====
		{Name: "+", ArgTypes: []ir.Type{vector, vector}, Distributive: true,
			Relations: elementwiseRelations()},
		{Name: "+", ArgTypes: []ir.Type{matrix, matrix}, Distributive: true,
			Relations: elementwiseRelations()},
		{Name: "-", ArgTypes: []ir.Type{vector, vector}, Distributive: true,
			Relations: elementwiseRelations()},
		{Name: "-", ArgTypes: []ir.Type{matrix, matrix}, Distributive: true,
			Relations: elementwiseRelations()},
		{Name: ".*", ArgTypes: []ir.Type{vector, vector}, Distributive: true,
			Relations: elementwiseRelations()},

		// ===== Reductions =====
		{Name: "dot", ArgTypes: []ir.Type{vector, vector}, Distributive: true,
			Relations: []IndexRelation{{1, 2, RowRow}, {1, 2, ColCol}}},
		{Name: "norm", ArgTypes: []ir.Type{vector}, Distributive: false},

		// ===== In-place library routines =====
		{Name: "copy!", ArgTypes: []ir.Type{vector, vector}, Distributive: true,
			Relations: []IndexRelation{{1, 2, RowRow}, {1, 2, ColCol}}},
		{Name: "fwdTriSolve!", ArgTypes: []ir.Type{matrix, vector}, Distributive: true,
			Relations: []IndexRelation{{1, 2, RowRow}, {1, 2, ColCol}}},
		{Name: "bwdTriSolve!", ArgTypes: []ir.Type{matrix, vector}, Distributive: true,
			Relations: []IndexRelation{{1, 2, RowRow}, {1, 2, ColCol}}},
	} {
		r.Register(d)
	}
	return r
}

func elementwiseRelations() []IndexRelation {
	return []IndexRelation{
		{0, 1, RowRow},
		{0, 2, RowRow},
		{0, 1, ColCol},
		{0, 2, ColCol},
	}
}
