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

	"github.com/OpenPSG/rlxnix"
)

type runsConfig struct {
	*rootConfig
}

func (cfg *runsConfig) Exec(ctx context.Context, args []string) error {
	if err := wantArgs(args, "BUNDLE"); err != nil {
		return err
	}
	rec, err := cfg.open(args[0])
	if err != nil {
		return err
	}
	defer rec.Close()

	tw := tabwriter.NewWriter(cfg.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tREPRO\tSTART\tDURATION\tSTIMULI\tPLUGIN")
	for _, run := range rec.Runs() {
		r := run.Repro()
		plugin := "-"
		if _, plain := run.(*rlxnix.ReProRun); !plain {
			plugin = fmt.Sprintf("%T", run)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%d\t%s\n", run.Name(), run.ReproName(), r.StartTime(), r.Duration(), r.StimulusCount(), plugin)
	}
	return tw.Flush()
}
