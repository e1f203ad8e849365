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
	"io"
	"log/slog"

	"github.com/wyatuestc/sparso/ir"
)

const skipMessage = "Sparse Accelerator skips reordering the loop."

// Pass is the reordering analysis pass. It holds the immutable registry
// and a logger; per-invocation state lives in a Context created inside
// PlanReordering, so one Pass is safely reused across regions.
type Pass struct {
	Registry *Registry
	Log      *slog.Logger
}

// NewPass returns a pass over the default registry. A nil logger disables
// all output.
func NewPass(log *slog.Logger) *Pass {
	return &Pass{Registry: DefaultRegistry(), Log: log}
}

// Result carries what one invocation decided, for callers that want more
// than the action list.
type Result struct {
	Actions     []Action
	Diagnostics []Diagnostic
	Planned     bool
}

// PlanReordering decides whether the arrays inside the region's loop can
// be jointly permuted and, if so, appends the editing actions to the
// given list. It is total: on any internal failure — including a panic
// from a collaborator — it logs, discards everything it added, and
// returns the caller's list unchanged. It assumes no two arrays in the
// region alias each other; that precondition is not checked.
func (p *Pass) PlanReordering(actions []Action, region *ir.Region, symbolTypes ir.SymbolTypes,
	liveness ir.Liveness, cfg *ir.CFG, callSites *ir.CallSites) []Action {
	res := p.Plan(actions, region, symbolTypes, liveness, cfg, callSites)
	return res.Actions
}

// Plan is PlanReordering with the colour diagnostics exposed.
func (p *Pass) Plan(actions []Action, region *ir.Region, symbolTypes ir.SymbolTypes,
	liveness ir.Liveness, cfg *ir.CFG, callSites *ir.CallSites) (res Result) {
	res = Result{Actions: actions}
	if callSites == nil || callSites.ReorderingDecider == nil {
		return res
	}

	log := p.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With(slog.String("component", "reorder"))

	// Whatever goes wrong below, the caller gets its list back unchanged.
	defer func() {
		if r := recover(); r != nil {
			log.Warn(skipMessage, slog.Any("panic", r))
			res = Result{Actions: actions}
		}
	}()

	far := callSites.ReorderingFAR
	if len(far) == 0 {
		log.Warn(skipMessage, slog.String("reason", "empty FAR set"))
		return res
	}
	seed := far[0]
	fknob := callSites.Fknob(callSites.ReorderingDecider)
	if fknob == "" {
		log.Warn(skipMessage, slog.String("reason", "decider has no function knob"))
		return res
	}
	if cfg != nil {
		log.Debug("planning region", slog.Int("blocks", len(cfg.Blocks)),
			slog.String("seed", string(seed)))
	}

	ctx := NewContext(seed, callSites.ReorderingDecider)
	builder := &Builder{Registry: p.Registry, Types: symbolTypes, Log: log}
	if err := builder.BuildRegion(ctx, region); err != nil {
		log.Warn(skipMessage, slog.String("error", err.Error()))
		return res
	}
	if !ctx.DeciderResolved() {
		log.Warn(skipMessage, slog.String("reason", "decider call not found in loop"))
		return res
	}

	diags := Propagate(ctx.Graph, log)

	planner := &Planner{Types: symbolTypes, Liveness: liveness, Log: log}
	res.Actions = planner.Plan(actions, ctx, region, fknob, far)
	res.Diagnostics = diags
	res.Planned = true
	return res
}
