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

	"github.com/wyatuestc/sparso/ir"
)

// Statements in a fixture are written as s-expressions:
//
//	(= Ap (call * A p))
//	(call1 fwdTriSolve! L z)
//	(gotoifnot done 2)
//
// Call nodes get their result type from a small rule table over the
// argument types; the planner itself never infers types, but the fixture
// layer plays the host and must annotate them.

// sexpr is either an atom (string) or a list ([]sexpr).
type sexpr any

func parseStmt(line string, types ir.SymbolTypes) (ir.Expr, error) {
	toks := tokenize(line)
	sx, rest, err := parseSexpr(toks)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", line, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%q: trailing tokens %v", line, rest)
	}
	return toExpr(sx, types)
}

func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	inStr := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case inStr:
			cur.WriteRune(r)
			if r == '"' {
				flush()
				inStr = false
			}
		case r == '"':
			flush()
			cur.WriteRune(r)
			inStr = true
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseSexpr(toks []string) (sexpr, []string, error) {
	if len(toks) == 0 {
		return nil, nil, fmt.Errorf("unexpected end of input")
	}
	tok := toks[0]
	toks = toks[1:]
	if tok == ")" {
		return nil, nil, fmt.Errorf("unexpected )")
	}
	if tok != "(" {
		return tok, toks, nil
	}
	var list []sexpr
	for {
		if len(toks) == 0 {
			return nil, nil, fmt.Errorf("missing )")
		}
		if toks[0] == ")" {
			return list, toks[1:], nil
		}
		elem, rest, err := parseSexpr(toks)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, elem)
		toks = rest
	}
}

func toExpr(sx sexpr, types ir.SymbolTypes) (ir.Expr, error) {
	switch n := sx.(type) {
	case string:
		return atomExpr(n), nil
	case []sexpr:
		return listExpr(n, types)
	default:
		return nil, fmt.Errorf("unexpected node %v", sx)
	}
}

func atomExpr(tok string) ir.Expr {
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return &ir.Num{Value: v}
	}
	if tok == "true" || tok == "false" {
		return &ir.Bool{Value: tok == "true"}
	}
	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return &ir.Str{Value: tok[1 : len(tok)-1]}
	}
	return ir.Sym(tok)
}

func listExpr(list []sexpr, types ir.SymbolTypes) (ir.Expr, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	head, ok := list[0].(string)
	if !ok {
		return nil, fmt.Errorf("list head must be an atom")
	}

	args := func(from int) ([]ir.Expr, error) {
		out := make([]ir.Expr, 0, len(list)-from)
		for _, el := range list[from:] {
			e, err := toExpr(el, types)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	}

	switch head {
	case "=":
		if len(list) != 3 {
			return nil, fmt.Errorf("= takes two operands")
		}
		lhs, err := toExpr(list[1], types)
		if err != nil {
			return nil, err
		}
		rhs, err := toExpr(list[2], types)
		if err != nil {
			return nil, err
		}
		return &ir.Assign{LHS: lhs, RHS: rhs}, nil

	case "call", "call1":
		if len(list) < 2 {
			return nil, fmt.Errorf("%s needs a callee", head)
		}
		name, ok := list[1].(string)
		if !ok {
			return nil, fmt.Errorf("callee must be an atom")
		}
		callArgs, err := args(2)
		if err != nil {
			return nil, err
		}
		h := ir.HeadCall
		if head == "call1" {
			h = ir.HeadCall1
		}
		return &ir.Call{
			Head:   h,
			Callee: ir.Sym(name),
			Args:   callArgs,
			Typ:    callResultType(name, callArgs, types),
		}, nil

	case "tuple":
		elems, err := args(1)
		if err != nil {
			return nil, err
		}
		return &ir.Tuple{Elems: elems}, nil

	case "return":
		if len(list) == 1 {
			return &ir.Return{}, nil
		}
		v, err := toExpr(list[1], types)
		if err != nil {
			return nil, err
		}
		return &ir.Return{Value: v}, nil

	case "gotoifnot":
		if len(list) != 3 {
			return nil, fmt.Errorf("gotoifnot takes a condition and a target")
		}
		cond, err := toExpr(list[1], types)
		if err != nil {
			return nil, err
		}
		target, err := atomInt(list[2])
		if err != nil {
			return nil, err
		}
		return &ir.GotoIfNot{Cond: cond, Target: target}, nil

	case "goto":
		if len(list) != 2 {
			return nil, fmt.Errorf("goto takes a target")
		}
		target, err := atomInt(list[1])
		if err != nil {
			return nil, err
		}
		return &ir.Goto{Target: target}, nil

	case "label":
		if len(list) != 2 {
			return nil, fmt.Errorf("label takes a number")
		}
		num, err := atomInt(list[1])
		if err != nil {
			return nil, err
		}
		return &ir.Label{Num: num}, nil

	case "line":
		if len(list) < 2 {
			return nil, fmt.Errorf("line takes a number")
		}
		num, err := atomInt(list[1])
		if err != nil {
			return nil, err
		}
		file := ""
		if len(list) > 2 {
			file, _ = list[2].(string)
		}
		return &ir.Line{Num: num, File: file}, nil

	default:
		return nil, fmt.Errorf("unknown head %q", head)
	}
}

func atomInt(sx sexpr) (int, error) {
	tok, ok := sx.(string)
	if !ok {
		return 0, fmt.Errorf("expected an integer atom")
	}
	return strconv.Atoi(tok)
}

// callResultType plays type oracle for fixture call nodes.
func callResultType(name string, args []ir.Expr, types ir.SymbolTypes) ir.Type {
	argType := func(i int) ir.Type {
		if i >= len(args) {
			return ir.TypeOther
		}
		return ir.TypeOf(args[i], types)
	}
	switch name {
	case "dot", "norm", "/":
		return ir.TypeNumber
	case "*":
		if argType(0) == ir.TypeSparseMatrix && argType(1) == ir.TypeSparseMatrix {
			return ir.TypeSparseMatrix
		}
		if argType(0) == ir.TypeNumber {
			return argType(1)
		}
		return ir.TypeVector
	case "+", "-", ".*":
		return argType(0)
	case "fwdTriSolve!", "bwdTriSolve!", "copy!":
		return ir.TypeVector
	default:
		allNumbers := true
		for i := range args {
			if argType(i) != ir.TypeNumber {
				allNumbers = false
			}
		}
		if allNumbers && len(args) > 0 {
			return ir.TypeNumber
		}
		return ir.TypeOther
	}
}
