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

package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wyatuestc/sparso/ir"
	"github.com/wyatuestc/sparso/reorder"
)

var titleCaser = cases.Title(language.English)

// renderResult prints the planner's decision: the permutation-equality
// constraints it discovered, then every editing action with its spliced
// statements.
func renderResult(w io.Writer, res reorder.Result) {
	if !res.Planned {
		fmt.Fprintln(w, "no reordering planned")
		return
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "constraint: %s %s must equal %s\n", d.Vertex, d.Have, d.Want)
	}
	fmt.Fprintf(w, "plan: %d actions\n", len(res.Actions))
	for i, a := range res.Actions {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, actionTitle(a))
		for _, s := range actionStmts(a) {
			fmt.Fprintf(w, "    %s\n", s)
		}
	}
}

func actionTitle(a reorder.Action) string {
	switch n := a.(type) {
	case *reorder.InsertBeforeLoopHead:
		return fmt.Sprintf("%s (block %d)", titleCaser.String("before loop head"), n.Loop.Head.Label)
	case *reorder.InsertBeforeOrAfterStatement:
		pos := "after"
		if n.Before {
			pos = "before"
		}
		return fmt.Sprintf("%s block %d stmt %d",
			titleCaser.String(pos+" statement"), n.BB.Label, n.StmtIdx)
	case *reorder.InsertOnEdge:
		return fmt.Sprintf("%s %d -> %d", titleCaser.String("on edge"), n.From.Label, n.To.Label)
	default:
		return fmt.Sprintf("%T", a)
	}
}

func actionStmts(a reorder.Action) []*ir.Statement {
	switch n := a.(type) {
	case *reorder.InsertBeforeLoopHead:
		return n.Stmts
	case *reorder.InsertBeforeOrAfterStatement:
		return n.Stmts
	case *reorder.InsertOnEdge:
		return n.Stmts
	default:
		return nil
	}
}

// renderDescriptors prints the registry table for the describe command.
func renderDescriptors(w io.Writer, reg *reorder.Registry) {
	for _, d := range reg.Descriptors() {
		name := d.Name
		if d.Module != "" {
			name = d.Module + "." + name
		}
		types := make([]string, len(d.ArgTypes))
		for i, t := range d.ArgTypes {
			types[i] = t.String()
		}
		if !d.Distributive {
			fmt.Fprintf(w, "%s(%s): non-distributive\n", name, strings.Join(types, ", "))
			continue
		}
		fmt.Fprintf(w, "%s(%s):", name, strings.Join(types, ", "))
		for _, rel := range d.Relations {
			fmt.Fprintf(w, " (%d,%d,%s)", rel.First, rel.Second, rel.Relation)
		}
		fmt.Fprintln(w)
	}
}
