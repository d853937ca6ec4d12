// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package efish provides repro runs recorded with the relacs efish plugin set.
//
// EfishEphys reads the commonly recorded traces of electrophysiology
// experiments on weakly electric fish: spikes, membrane voltage, local and
// global EOD, EOD times and the stimulus output. Trace names differ between
// setups, so they are looked up in the trace configuration (see package
// config). Protocol types such as Sam embed EfishEphys and add their
// stimulus settings.
//
// Importing the package registers its plugins with rlxnix.
package efish

import (
	"errors"
	"fmt"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/config"
	"github.com/apex/log"
)

// PluginSet is the configuration key of the efish trace names.
const PluginSet = "efish"

const (
	SignalSpikes          = "spikes"
	SignalMembraneVoltage = "membrane voltage"
	SignalLocalEOD        = "local eod"
	SignalGlobalEOD       = "global eod"
	SignalEODTimes        = "eod times"
	SignalStimulus        = "stimulus"
)

// Signals lists the signals EfishEphys resolves.
var Signals = []string{SignalSpikes, SignalMembraneVoltage, SignalLocalEOD, SignalGlobalEOD, SignalEODTimes, SignalStimulus}

// ErrNoTrace is returned when the trace of a signal is not part of the recording.
var ErrNoTrace = errors.New("trace not found")

// Option configures an EfishEphys.
type Option func(*EfishEphys)

// WithConfig sets the trace configuration, config.Default if unset.
func WithConfig(cfg rlxnix.TraceConfig) Option {
	return func(e *EfishEphys) { e.cfg = cfg }
}

// WithLogger sets the logger for missing trace warnings, log.Log if unset.
func WithLogger(l log.Interface) Option {
	return func(e *EfishEphys) { e.logger = l }
}

// EfishEphys is a repro run with named accessors for the efish signals.
type EfishEphys struct {
	*rlxnix.ReProRun
	cfg          rlxnix.TraceConfig
	logger       log.Interface
	signalTraces map[string]string
	spikeTimes   []float64
}

// New wraps run and resolves the signal trace names.
func New(run *rlxnix.ReProRun, opts ...Option) *EfishEphys {
	e := &EfishEphys{ReProRun: run, logger: log.Log}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg == nil {
		e.cfg = config.Default()
	}

	// A later trace of the recording overrides an earlier match.
	e.signalTraces = map[string]string{}
	for _, signal := range Signals {
		candidates := e.cfg.TraceConfiguration(PluginSet, signal)
		for _, t := range run.Traces() {
			for _, name := range candidates {
				if t.Name == name {
					e.signalTraces[signal] = t.Name
				}
			}
		}
	}
	return e
}

// SignalTrace returns the trace name resolved for a signal.
func (e *EfishEphys) SignalTrace(signal string) (string, bool) {
	name, ok := e.signalTraces[signal]
	return name, ok
}

// ReadOption selects what part of a signal is read.
type ReadOption func(*readOptions)

type readOptions struct {
	stimulus  int
	trace     string
	reference rlxnix.TimeReference
}

// Stimulus restricts a read to one stimulus presentation; times are then
// relative to the stimulus onset.
func Stimulus(i int) ReadOption {
	return func(o *readOptions) { o.stimulus = i }
}

// Trace reads the named trace instead of the configured one.
func Trace(name string) ReadOption {
	return func(o *readOptions) { o.trace = name }
}

// Reference sets the time frame of continuous traces, rlxnix.Zero if unset.
func Reference(ref rlxnix.TimeReference) ReadOption {
	return func(o *readOptions) { o.reference = ref }
}

func (e *EfishEphys) readOptions(opts []ReadOption) readOptions {
	o := readOptions{stimulus: -1, reference: rlxnix.Zero}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// pluginOptions turns what a Dataset hands its plugins into options.
func pluginOptions(env rlxnix.PluginEnv) []Option {
	var opts []Option
	if env.Traces != nil {
		opts = append(opts, WithConfig(env.Traces))
	}
	if env.Logger != nil {
		opts = append(opts, WithLogger(env.Logger))
	}
	return opts
}

// Spikes returns the spike times of the run or of one stimulus presentation.
// The spike times of the whole run are read once and cached.
func (e *EfishEphys) Spikes(opts ...ReadOption) ([]float64, error) {
	o := e.readOptions(opts)
	cacheable := o.stimulus < 0 && o.trace == ""
	if cacheable && e.spikeTimes != nil {
		return append([]float64(nil), e.spikeTimes...), nil
	}

	spikes, err := e.events(SignalSpikes, o, "no spikes data found in the file, you probably have to detect them manually")
	if err != nil {
		return nil, err
	}
	if cacheable {
		e.spikeTimes = append([]float64(nil), spikes...)
	}
	return spikes, nil
}

// EODTimes returns the EOD event times of the run or of one stimulus presentation.
func (e *EfishEphys) EODTimes(opts ...ReadOption) ([]float64, error) {
	return e.events(SignalEODTimes, e.readOptions(opts), "eod times were not found in the file, you need to detect them manually")
}

// LocalEOD returns the local EOD recording and its time axis.
func (e *EfishEphys) LocalEOD(opts ...ReadOption) ([]float64, []float64, error) {
	return e.continuous(SignalLocalEOD, e.readOptions(opts), "the local eod trace was not found")
}

// EOD returns the global EOD recording and its time axis.
func (e *EfishEphys) EOD(opts ...ReadOption) ([]float64, []float64, error) {
	return e.continuous(SignalGlobalEOD, e.readOptions(opts), "the eod trace was not found")
}

// MembraneVoltage returns the membrane potential and its time axis.
func (e *EfishEphys) MembraneVoltage(opts ...ReadOption) ([]float64, []float64, error) {
	return e.continuous(SignalMembraneVoltage, e.readOptions(opts), "membrane voltage trace was not found in the file")
}

// StimulusOutput returns the recorded stimulus and its time axis.
func (e *EfishEphys) StimulusOutput(opts ...ReadOption) ([]float64, []float64, error) {
	return e.continuous(SignalStimulus, e.readOptions(opts), "stimulus trace was not found in the file")
}

func (e *EfishEphys) events(signal string, o readOptions, warning string) ([]float64, error) {
	name, err := e.checkTrace(signal, o.trace, rlxnix.KindEvent, warning)
	if err != nil {
		return nil, err
	}
	data, _, err := e.Data(name, o.stimulus, o.reference)
	return data, err
}

func (e *EfishEphys) continuous(signal string, o readOptions, warning string) ([]float64, []float64, error) {
	name, err := e.checkTrace(signal, o.trace, rlxnix.KindContinuous, warning)
	if err != nil {
		return nil, nil, err
	}
	return e.Data(name, o.stimulus, o.reference)
}

// checkTrace resolves the trace of a signal and makes sure the recording has it.
func (e *EfishEphys) checkTrace(signal, name string, kind rlxnix.DataKind, warning string) (string, error) {
	if name == "" {
		name = e.signalTraces[signal]
	}
	if name == "" || !e.HasTrace(name, kind) {
		e.logger.WithFields(log.Fields{
			"run":    e.Name(),
			"signal": signal,
			"trace":  name,
		}).Warn(warning)
		return "", fmt.Errorf("%s %q of run %q: %w", signal, name, e.Name(), ErrNoTrace)
	}
	return name, nil
}
