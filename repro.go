// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rlxnix

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenPSG/rlxnix/nix"
)

// Run is a repro run, plain or wrapped by a plugin.
type Run interface {
	Name() string
	ReproName() string
	Repro() *ReProRun
}

// TraceInfo names a trace of the recording and its kind.
type TraceInfo struct {
	Name string
	Kind DataKind
}

// ReProRun is one execution of a repro: a container over the run's tag plus
// one container per stimulus presentation that falls within the run.
type ReProRun struct {
	*TraceContainer
	stimuli []*TraceContainer
	traces  []TraceInfo
}

// NewReProRun wraps a repro run tag. Every position of the stimulus multi
// tags that lies in [start, start+duration) of the run becomes a stimulus,
// ordered by start time. traces lists the data arrays of the recording.
func NewReProRun(tag *nix.Tag, stimuli []*nix.MultiTag, traces []*nix.DataArray, opts ...Option) (*ReProRun, error) {
	o := newOptions(opts)
	c, err := NewTraceContainer(tag, opts...)
	if err != nil {
		return nil, err
	}

	run := &ReProRun{TraceContainer: c}
	start, end := c.StartTime(), c.StartTime()+c.Duration()
	for _, mt := range stimuli {
		for i, pos := range mt.Positions() {
			if pos < start || pos >= end {
				continue
			}
			s, err := NewTraceContainer(mt, WithIndex(i), WithMappingVersion(o.version), WithTypeMap(o.typeMap))
			if err != nil {
				return nil, fmt.Errorf("repro run %q stimulus %d of %q: %w", tag.Name(), i, mt.Name(), err)
			}
			run.stimuli = append(run.stimuli, s)
		}
	}
	sort.SliceStable(run.stimuli, func(i, j int) bool {
		return run.stimuli[i].StartTime() < run.stimuli[j].StartTime()
	})

	for _, da := range traces {
		run.traces = append(run.traces, TraceInfo{Name: da.Name(), Kind: c.Kind(da.Type())})
	}
	return run, nil
}

// Repro returns the run itself; plugins embedding *ReProRun inherit it.
func (r *ReProRun) Repro() *ReProRun { return r }

// ReproName is the run name without the trailing run counter, e.g. "SAM" for "SAM_3".
func (r *ReProRun) ReproName() string {
	return reproName(r.Name())
}

func reproName(name string) string {
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}

// Stimuli returns the stimulus containers in presentation order.
func (r *ReProRun) Stimuli() []*TraceContainer {
	return append([]*TraceContainer(nil), r.stimuli...)
}

func (r *ReProRun) StimulusCount() int { return len(r.stimuli) }

// Stimulus returns presentation i, ErrStimulusIndex if there is none.
func (r *ReProRun) Stimulus(i int) (*TraceContainer, error) {
	if i < 0 || i >= len(r.stimuli) {
		return nil, fmt.Errorf("repro run %q has %d stimuli, index %d: %w", r.Name(), len(r.stimuli), i, ErrStimulusIndex)
	}
	return r.stimuli[i], nil
}

// StimulusMetadata returns the metadata of presentation i.
func (r *ReProRun) StimulusMetadata(i int) (*nix.Section, error) {
	s, err := r.Stimulus(i)
	if err != nil {
		return nil, err
	}
	return s.Metadata(), nil
}

// Traces lists the traces of the recording.
func (r *ReProRun) Traces() []TraceInfo {
	return append([]TraceInfo(nil), r.traces...)
}

// HasTrace reports whether the recording has a trace of that name and kind.
func (r *ReProRun) HasTrace(name string, kind DataKind) bool {
	for _, t := range r.traces {
		if t.Name == name && t.Kind == kind {
			return true
		}
	}
	return false
}

// Data reads a trace for the whole run, or for one stimulus if stimulus >= 0.
func (r *ReProRun) Data(name string, stimulus int, ref TimeReference) ([]float64, []float64, error) {
	c := r.TraceContainer
	if stimulus >= 0 {
		s, err := r.Stimulus(stimulus)
		if err != nil {
			return nil, nil, err
		}
		c = s
	}
	return c.TraceData(ByName(name), ref)
}
