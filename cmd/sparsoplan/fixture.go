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
	"strconv"
	"strings"

	"golang.org/x/tools/txtar"

	"github.com/wyatuestc/sparso/ir"
)

// Fixture is a region description loaded from a txtar archive: everything
// one planner invocation consumes. The archive holds one section per
// concern:
//
//	-- types --             symbol kind (matrix | vector | number)
//	-- block N --           one s-expression statement per line
//	-- loop --              "head N" and "members N N..."
//	-- exits --             "FROM TO" pairs
//	-- live_out_stmt B I -- symbols live after statement I of block B
//	-- live_out N --        symbols live out of block N
//	-- live_in N --         symbols live into block N
//	-- callsites --         "decider B I", "far SYMS...", "fknob SYM"
type Fixture struct {
	Types  ir.SymbolTypes
	CFG    *ir.CFG
	Region *ir.Region
	Live   *ir.TableLiveness
	Calls  *ir.CallSites
}

// OverrideSeed makes sym the seed by moving it to the front of the FAR
// list. The symbol must already be in the FAR set: the planner treats
// FAR[0] as the seed, and a symbol the decider never touches cannot
// anchor the propagation.
func (fx *Fixture) OverrideSeed(sym ir.Sym) error {
	for i, s := range fx.Calls.ReorderingFAR {
		if s == sym {
			fx.Calls.ReorderingFAR[0], fx.Calls.ReorderingFAR[i] =
				fx.Calls.ReorderingFAR[i], fx.Calls.ReorderingFAR[0]
			return nil
		}
	}
	return fmt.Errorf("seed %s is not in the FAR set %v", sym, fx.Calls.ReorderingFAR)
}

// LoadFixture reads and parses a region fixture file.
func LoadFixture(path string) (*Fixture, error) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return parseFixture(ar)
}

func parseFixture(ar *txtar.Archive) (*Fixture, error) {
	fx := &Fixture{
		Types: make(ir.SymbolTypes),
		CFG:   &ir.CFG{},
		Live:  ir.NewTableLiveness(),
		Calls: &ir.CallSites{Expr2Fknob: make(map[*ir.Call]ir.Sym)},
	}

	// Blocks first: liveness and call-site sections refer to them.
	for _, f := range ar.Files {
		fields := strings.Fields(f.Name)
		switch fields[0] {
		case "types":
			if err := fx.parseTypes(f.Data); err != nil {
				return nil, err
			}
		case "block":
			label, err := atoi(fields, 1)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", f.Name, err)
			}
			bb := &ir.BasicBlock{Label: label}
			fx.CFG.Blocks = append(fx.CFG.Blocks, bb)
		}
	}

	for _, f := range ar.Files {
		fields := strings.Fields(f.Name)
		var err error
		switch fields[0] {
		case "types":
			// Done above.
		case "block":
			err = fx.parseBlock(fields, f.Data)
		case "loop":
			err = fx.parseLoop(f.Data)
		case "exits":
			err = fx.parseExits(f.Data)
		case "live_out_stmt":
			err = fx.parseStmtLive(fields, f.Data)
		case "live_out", "live_in":
			err = fx.parseBlockLive(fields, f.Data)
		case "callsites":
			err = fx.parseCallSites(f.Data)
		default:
			err = fmt.Errorf("unknown section %q", f.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", f.Name, err)
		}
	}

	if fx.Region == nil {
		return nil, fmt.Errorf("fixture has no loop section")
	}
	return fx, nil
}

func (fx *Fixture) parseTypes(data []byte) error {
	for _, line := range lines(data) {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("bad type line %q", line)
		}
		var t ir.Type
		switch fields[1] {
		case "matrix":
			t = ir.TypeSparseMatrix
		case "vector":
			t = ir.TypeVector
		case "number":
			t = ir.TypeNumber
		default:
			return fmt.Errorf("unknown kind %q", fields[1])
		}
		fx.Types[ir.Sym(fields[0])] = t
	}
	return nil
}

func (fx *Fixture) parseBlock(fields []string, data []byte) error {
	label, err := atoi(fields, 1)
	if err != nil {
		return err
	}
	bb := fx.CFG.Block(label)
	for _, line := range lines(data) {
		expr, err := parseStmt(line, fx.Types)
		if err != nil {
			return err
		}
		bb.Stmts = append(bb.Stmts, &ir.Statement{Expr: expr})
	}
	return nil
}

func (fx *Fixture) parseLoop(data []byte) error {
	loop := &ir.Loop{}
	for _, line := range lines(data) {
		fields := strings.Fields(line)
		switch fields[0] {
		case "head":
			label, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			loop.Head = fx.CFG.Block(label)
		case "members":
			for _, m := range fields[1:] {
				label, err := strconv.Atoi(m)
				if err != nil {
					return err
				}
				loop.Members = append(loop.Members, fx.CFG.Block(label))
			}
		default:
			return fmt.Errorf("bad loop line %q", line)
		}
	}
	if loop.Head == nil {
		return fmt.Errorf("loop has no head")
	}
	fx.Region = &ir.Region{Loop: loop}
	return nil
}

func (fx *Fixture) parseExits(data []byte) error {
	for _, line := range lines(data) {
		fields := strings.Fields(line)
		from, err := atoi(fields, 0)
		if err != nil {
			return err
		}
		to, err := atoi(fields, 1)
		if err != nil {
			return err
		}
		fromBB := fx.CFG.Block(from)
		toBB := fx.CFG.Block(to)
		if toBB == nil {
			toBB = &ir.BasicBlock{Label: to}
			fx.CFG.Blocks = append(fx.CFG.Blocks, toBB)
		}
		fx.Region.Exits = append(fx.Region.Exits, ir.Edge{From: fromBB, To: toBB})
	}
	return nil
}

func (fx *Fixture) parseStmtLive(fields []string, data []byte) error {
	block, err := atoi(fields, 1)
	if err != nil {
		return err
	}
	idx, err := atoi(fields, 2)
	if err != nil {
		return err
	}
	stmt, err := fx.statementAt(block, idx)
	if err != nil {
		return err
	}
	fx.Live.StmtLiveOuts[stmt] = symSet(data)
	return nil
}

func (fx *Fixture) parseBlockLive(fields []string, data []byte) error {
	label, err := atoi(fields, 1)
	if err != nil {
		return err
	}
	if fields[0] == "live_out" {
		fx.Live.LiveOuts[label] = symSet(data)
	} else {
		fx.Live.LiveIns[label] = symSet(data)
	}
	return nil
}

func (fx *Fixture) parseCallSites(data []byte) error {
	for _, line := range lines(data) {
		fields := strings.Fields(line)
		switch fields[0] {
		case "decider":
			block, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			idx, err := atoi(fields, 2)
			if err != nil {
				return err
			}
			stmt, err := fx.statementAt(block, idx)
			if err != nil {
				return err
			}
			call, err := deciderCall(stmt)
			if err != nil {
				return err
			}
			fx.Calls.ReorderingDecider = call
		case "far":
			for _, s := range fields[1:] {
				fx.Calls.ReorderingFAR = append(fx.Calls.ReorderingFAR, ir.Sym(s))
			}
		case "fknob":
			if fx.Calls.ReorderingDecider == nil {
				return fmt.Errorf("fknob line before decider line")
			}
			if len(fields) != 2 {
				return fmt.Errorf("bad fknob line %q", line)
			}
			fx.Calls.Expr2Fknob[fx.Calls.ReorderingDecider] = ir.Sym(fields[1])
		default:
			return fmt.Errorf("bad callsites line %q", line)
		}
	}
	return nil
}

func (fx *Fixture) statementAt(block, idx int) (*ir.Statement, error) {
	bb := fx.CFG.Block(block)
	if bb == nil {
		return nil, fmt.Errorf("no block %d", block)
	}
	if idx < 0 || idx >= len(bb.Stmts) {
		return nil, fmt.Errorf("block %d has no statement %d", block, idx)
	}
	return bb.Stmts[idx], nil
}

// deciderCall digs the designated call out of a statement: the statement
// itself when it is a call, or the right-hand side of an assignment.
func deciderCall(stmt *ir.Statement) (*ir.Call, error) {
	switch n := stmt.Expr.(type) {
	case *ir.Call:
		return n, nil
	case *ir.Assign:
		if c, ok := n.RHS.(*ir.Call); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("decider statement %q holds no call", stmt)
}

func lines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func symSet(data []byte) ir.SymSet {
	set := ir.SymSet{}
	for _, line := range lines(data) {
		for _, f := range strings.Fields(line) {
			set.Add(ir.Sym(f))
		}
	}
	return set
}

func atoi(fields []string, idx int) (int, error) {
	if idx >= len(fields) {
		return 0, fmt.Errorf("missing field %d", idx)
	}
	return strconv.Atoi(fields[idx])
}
