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

package ir

// CallSites is the host's call-site table for one region. The decider is
// the one call inside the loop that emits the permutation at runtime; FAR
// lists the symbols the decider statement defines or uses, with the seed
// matrix first.
type CallSites struct {
	ReorderingDecider *Call
	ReorderingFAR     []Sym
	Expr2Fknob        map[*Call]Sym
}

// Fknob returns the function-knob symbol registered for a call, or "".
func (c *CallSites) Fknob(call *Call) Sym {
	if c.Expr2Fknob == nil {
		return ""
	}
	return c.Expr2Fknob[call]
}
