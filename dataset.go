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
	"sync"

	"github.com/OpenPSG/rlxnix/nix"
	"github.com/apex/log"
)

// TraceConfig resolves the trace names recorded for a signal of a plugin
// set. *config.Config implements it.
type TraceConfig interface {
	TraceConfiguration(pluginset, signal string) []string
}

// PluginEnv is what a Dataset hands its plugins. Unset fields are nil and
// plugins fall back to their defaults.
type PluginEnv struct {
	Traces TraceConfig
	Logger log.Interface
}

// PluginFunc wraps a repro run in a repro-specific type.
type PluginFunc func(run *ReProRun, env PluginEnv) (Run, error)

var (
	pluginsMu sync.RWMutex
	plugins   = map[string]PluginFunc{}
)

// Register makes a plugin available for runs of the named repro. It panics
// if called twice for the same repro.
func Register(repro string, fn PluginFunc) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()
	if fn == nil {
		panic("rlxnix: Register plugin is nil")
	}
	if _, dup := plugins[repro]; dup {
		panic("rlxnix: Register called twice for repro " + repro)
	}
	plugins[repro] = fn
}

// Plugins returns the names of the repros with a registered plugin.
func Plugins() []string {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupPlugin(repro string) (PluginFunc, bool) {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	fn, ok := plugins[repro]
	return fn, ok
}

// Dataset is the collection of repro runs of one recording.
type Dataset struct {
	file  *nix.File
	block *nix.Block
	runs  []Run
}

// NewDataset classifies the tags of the file's first block and builds a Run
// per repro run tag, in order of start time. Runs of repros with a registered
// plugin are wrapped by it.
func NewDataset(f *nix.File, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	blocks := f.Blocks()
	if len(blocks) == 0 {
		return nil, fmt.Errorf("recording has no blocks: %w", nix.ErrNotFound)
	}
	if !o.typeMap.Has(o.version) {
		return nil, fmt.Errorf("%w: unknown mapping version %q", ErrConfiguration, o.version)
	}
	b := blocks[0]

	var stimuli []*nix.MultiTag
	for _, mt := range b.MultiTags() {
		if o.typeMap.Is(o.version, KindStimulus, mt.Type()) {
			stimuli = append(stimuli, mt)
		}
	}

	tags := b.Tags()
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Position() < tags[j].Position() })

	env := PluginEnv{Traces: o.traces, Logger: o.logger}
	ds := &Dataset{file: f, block: b}
	for _, tag := range tags {
		if !o.typeMap.Is(o.version, KindReproRun, tag.Type()) {
			continue
		}
		run, err := NewReProRun(tag, stimuli, b.DataArrays(), WithMappingVersion(o.version), WithTypeMap(o.typeMap))
		if err != nil {
			return nil, err
		}
		wrapped := Run(run)
		if fn, ok := lookupPlugin(run.ReproName()); ok {
			if wrapped, err = fn(run, env); err != nil {
				return nil, fmt.Errorf("repro run %q: %w", run.Name(), err)
			}
		}
		ds.runs = append(ds.runs, wrapped)
	}
	return ds, nil
}

// File returns the underlying recording.
func (d *Dataset) File() *nix.File { return d.file }

// Block returns the block the runs were read from.
func (d *Dataset) Block() *nix.Block { return d.block }

// Runs returns all repro runs in order of start time.
func (d *Dataset) Runs() []Run {
	return append([]Run(nil), d.runs...)
}

// Run returns the run with the given tag name.
func (d *Dataset) Run(name string) (Run, error) {
	for _, r := range d.runs {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrRunNotFound)
}

// RunsOf returns the runs of the named repro.
func (d *Dataset) RunsOf(repro string) []Run {
	var out []Run
	for _, r := range d.runs {
		if r.ReproName() == repro {
			out = append(out, r)
		}
	}
	return out
}

// Close closes the underlying recording; the runs become unusable.
func (d *Dataset) Close() error {
	return d.file.Close()
}
