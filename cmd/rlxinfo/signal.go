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

	"github.com/OpenPSG/rlxnix/dsp"
	"github.com/OpenPSG/rlxnix/plugins/efish"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type signalConfig struct {
	*rootConfig

	stimulus  int
	trace     string
	am        bool
	events    bool
	threshold float64
}

func (cfg *signalConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 's', LongName: "stimulus" /*  */, Value: ffval.NewValueDefault(&cfg.stimulus, -1) /* */, Usage: "stimulus index, the whole run if negative"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "trace" /*     */, Value: ffval.NewValue(&cfg.trace) /*               */, Usage: "read this trace instead of the configured one"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "am" /*        */, Value: ffval.NewValue(&cfg.am) /*                  */, Usage: "print the amplitude modulation envelope of a continuous signal", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "events" /*    */, Value: ffval.NewValue(&cfg.events) /*              */, Usage: "print the upward threshold crossings of a continuous signal", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "threshold" /* */, Value: ffval.NewValue(&cfg.threshold) /*           */, Usage: "threshold for --events"})
}

func (cfg *signalConfig) Exec(ctx context.Context, args []string) error {
	if err := wantArgs(args, "BUNDLE", "RUN", "SIGNAL"); err != nil {
		return err
	}
	if cfg.am && cfg.events {
		return fmt.Errorf("--am and --events are exclusive")
	}

	rec, run, err := cfg.openRun(args[0], args[1])
	if err != nil {
		return err
	}
	defer rec.Close()

	// Runs without an efish plugin are wrapped here.
	var e *efish.EfishEphys
	if sam, ok := run.(*efish.Sam); ok {
		e = sam.EfishEphys
	} else {
		e = efish.New(run.Repro(), efish.WithConfig(rec.config), efish.WithLogger(cfg.logger))
	}
	opts := []efish.ReadOption{efish.Stimulus(cfg.stimulus)}
	if cfg.trace != "" {
		opts = append(opts, efish.Trace(cfg.trace))
	}

	var read func(...efish.ReadOption) ([]float64, []float64, error)
	switch signal := args[2]; signal {
	case efish.SignalSpikes, efish.SignalEODTimes:
		events := e.Spikes
		if signal == efish.SignalEODTimes {
			events = e.EODTimes
		}
		times, err := events(opts...)
		if err != nil {
			return err
		}
		return writeSeries(cfg.stdout, nil, times)
	case efish.SignalMembraneVoltage:
		read = e.MembraneVoltage
	case efish.SignalLocalEOD:
		read = e.LocalEOD
	case efish.SignalGlobalEOD:
		read = e.EOD
	case efish.SignalStimulus:
		read = e.StimulusOutput
	default:
		return fmt.Errorf("unknown signal %q, want one of %q", signal, efish.Signals)
	}

	data, time, err := read(opts...)
	if err != nil {
		return err
	}
	switch {
	case cfg.events:
		events, err := dsp.EODEvents(time, data, cfg.threshold, 0)
		if err != nil {
			return err
		}
		return writeSeries(cfg.stdout, nil, events)
	case cfg.am:
		if len(time) < 2 {
			return fmt.Errorf("need at least two samples for the envelope, got %d", len(time))
		}
		am, err := dsp.ExtractAM(data, 1/(time[1]-time[0]), dsp.DefaultOrder, dsp.DefaultCutoff)
		if err != nil {
			return err
		}
		return writeSeries(cfg.stdout, time, am)
	}
	return writeSeries(cfg.stdout, time, data)
}
