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

// sparsoplan runs the reordering analysis over a region fixture and
// prints the editing actions the planner would splice into the loop.
//
//	sparsoplan testdata/pcg.txt
//	sparsoplan describe
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/wyatuestc/sparso/ir"
	"github.com/wyatuestc/sparso/reorder"
)

var (
	verbose bool
	seed    string
)

func main() {
	root := &cobra.Command{
		Use:          "sparsoplan <fixture>",
		Short:        "Plan sparse-matrix reordering for a loop region",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0])
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v",
		env.Bool("SPARSO_VERBOSE"), "log colour propagation detail")
	root.Flags().StringVar(&seed, "seed", env.Str("SPARSO_SEED", ""),
		"seed matrix for propagation (must be in the fixture's FAR set)")

	describe := &cobra.Command{
		Use:   "describe",
		Short: "List the function descriptor registry",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			renderDescriptors(cmd.OutOrStdout(), reorder.DefaultRegistry())
		},
	}
	root.AddCommand(describe)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPlan(cmd *cobra.Command, path string) error {
	fx, err := LoadFixture(path)
	if err != nil {
		return err
	}
	if seed != "" {
		if err := fx.OverrideSeed(ir.Sym(seed)); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	pass := reorder.NewPass(log)
	res := pass.Plan(nil, fx.Region, fx.Types, fx.Live, fx.CFG, fx.Calls)
	renderResult(cmd.OutOrStdout(), res)
	return nil
}
