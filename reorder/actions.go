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

import "github.com/wyatuestc/sparso/ir"

// Action is one editing instruction for the downstream code emitter. The
// statements an action carries are host-level IR fragments, opaque to the
// planner.
type Action interface {
	actionNode()
}

// InsertBeforeLoopHead splices statements immediately before the loop's
// entry block.
type InsertBeforeLoopHead struct {
	Loop  *ir.Loop
	Stmts []*ir.Statement
}

// InsertBeforeOrAfterStatement splices statements immediately before or
// after one specific statement.
type InsertBeforeOrAfterStatement struct {
	Before  bool
	BB      *ir.BasicBlock
	StmtIdx int
	Stmts   []*ir.Statement
}

// InsertOnEdge places statements on a control-flow edge. The emitter may
// have to create a bridge block to hold them.
type InsertOnEdge struct {
	From  *ir.BasicBlock
	To    *ir.BasicBlock
	Stmts []*ir.Statement
}

func (*InsertBeforeLoopHead) actionNode()         {}
func (*InsertBeforeOrAfterStatement) actionNode() {}
func (*InsertOnEdge) actionNode()                 {}
