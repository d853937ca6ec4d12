// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

type refsConfig struct {
	*rootConfig
}

func (cfg *refsConfig) Exec(ctx context.Context, args []string) error {
	if err := wantArgs(args, "BUNDLE", "RUN"); err != nil {
		return err
	}
	rec, run, err := cfg.openRun(args[0], args[1])
	if err != nil {
		return err
	}
	defer rec.Close()
	r := run.Repro()

	tw := tabwriter.NewWriter(cfg.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tREFERENCE\tTYPE\tKIND")
	for _, ref := range r.References() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", ref.Index, ref.Name, ref.Type, r.Kind(ref.Type))
	}
	if features := r.Features(); len(features) > 0 {
		fmt.Fprintln(tw, "\nINDEX\tFEATURE\tTYPE\t")
		for _, f := range features {
			fmt.Fprintf(tw, "%d\t%s\t%s\t\n", f.Index, f.Name, f.Type)
		}
	}
	return tw.Flush()
}
