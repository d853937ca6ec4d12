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
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/OpenPSG/rlxnix"
	"github.com/apex/log"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type traceConfig struct {
	*rootConfig

	stimulus  int
	reference string
}

func (cfg *traceConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 's', LongName: "stimulus" /*  */, Value: ffval.NewValueDefault(&cfg.stimulus, -1) /*                            */, Usage: "stimulus index, the whole run if negative"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'r', LongName: "reference" /* */, Value: ffval.NewEnum(&cfg.reference, rlxnix.Zero.String(), rlxnix.ReproStart.String()), Usage: "time axis of continuous traces: zero, repro_start"})
}

func (cfg *traceConfig) Exec(ctx context.Context, args []string) error {
	if err := wantArgs(args, "BUNDLE", "RUN", "TRACE"); err != nil {
		return err
	}
	ref, err := rlxnix.ParseTimeReference(cfg.reference)
	if err != nil {
		return err
	}

	rec, run, err := cfg.openRun(args[0], args[1])
	if err != nil {
		return err
	}
	defer rec.Close()

	data, time, err := run.Repro().Data(args[2], cfg.stimulus, ref)
	if err != nil {
		return err
	}
	cfg.logger.WithFields(log.Fields{
		"run":      run.Name(),
		"trace":    args[2],
		"stimulus": cfg.stimulus,
		"samples":  len(data),
	}).Debug("read trace")

	return writeSeries(cfg.stdout, time, data)
}

// writeSeries prints one sample per line, preceded by its time if there is a
// time axis.
func writeSeries(w io.Writer, time, data []float64) error {
	bw := bufio.NewWriter(w)
	for i, v := range data {
		if time != nil {
			fmt.Fprintf(bw, "%.10g\t%.10g\n", time[i], v)
		} else {
			fmt.Fprintf(bw, "%.10g\n", v)
		}
	}
	return bw.Flush()
}
