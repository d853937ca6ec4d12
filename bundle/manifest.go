// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package bundle stores relacs recordings on disk.
//
// A bundle is a directory holding a recording.toml manifest and one EDF file
// per group of continuous traces. The manifest describes the block, its
// traces, the repro run tags, the stimulus multi tags and their metadata:
//
//	mapping_version = "1.1"
//
//	[block]
//	name = "2021-08-02-ab"
//	type = "relacs.session"
//
//	[[trace]]
//	name = "V-1"
//	type = "relacs.data.sampled.V-1"
//	file = "V-1.edf"
//
//	[[trace]]
//	name = "Spikes-1"
//	type = "relacs.data.event.Spikes-1"
//	events = true
//	times = [0.51, 0.72]
//
//	[[tag]]
//	name = "SAM_1"
//	type = "relacs.repro_run"
//	position = 2.0
//	extent = 4.0
//	references = ["V-1", "Spikes-1"]
//
//	[tag.metadata.RePro-Info.settings]
//	pause = { values = [0.5], unit = "s" }
//
// Metadata tables become sections. A table with a values key is a property
// with an optional unit; any other value is a property without unit.
package bundle

// ManifestFile is the name of the manifest inside a bundle directory.
const ManifestFile = "recording.toml"

// Manifest is the decoded recording.toml.
type Manifest struct {
	MappingVersion string         `toml:"mapping_version,omitempty"`
	Block          BlockSpec      `toml:"block"`
	Traces         []TraceSpec    `toml:"trace,omitempty"`
	Tags           []TagSpec      `toml:"tag,omitempty"`
	MultiTags      []MultiTagSpec `toml:"multi_tag,omitempty"`
}

type BlockSpec struct {
	Name     string         `toml:"name"`
	Type     string         `toml:"type"`
	Metadata map[string]any `toml:"metadata,omitempty"`
}

// TraceSpec describes one data array. Exactly one of File, Times and Values
// holds its samples; an event trace without events has Events set and no
// Times.
type TraceSpec struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
	Unit string `toml:"unit,omitempty"`

	// Continuous traces stored in an EDF file. Signal is the EDF label and
	// defaults to the first signal of the file.
	File   string  `toml:"file,omitempty"`
	Signal string  `toml:"signal,omitempty"`
	Offset float64 `toml:"offset,omitempty"`

	// Event times, also the positions of the events. Events marks an event
	// trace, which keeps it one when no event was detected.
	Events bool      `toml:"events,omitempty"`
	Times  []float64 `toml:"times,omitempty"`

	// Inline samples. Without a sampling interval the array has no time axis
	// and can only serve as a feature.
	Values           []float64 `toml:"values,omitempty"`
	SamplingInterval float64   `toml:"sampling_interval,omitempty"`

	// Unit of the time axis, seconds if empty.
	TimeUnit string `toml:"time_unit,omitempty"`
}

type TagSpec struct {
	Name       string         `toml:"name"`
	Type       string         `toml:"type"`
	Position   float64        `toml:"position"`
	Extent     *float64       `toml:"extent,omitempty"`
	References []string       `toml:"references,omitempty"`
	Features   []string       `toml:"features,omitempty"`
	Metadata   map[string]any `toml:"metadata,omitempty"`
}

type MultiTagSpec struct {
	Name       string         `toml:"name"`
	Type       string         `toml:"type"`
	Positions  []float64      `toml:"positions"`
	Extents    []float64      `toml:"extents,omitempty"`
	References []string       `toml:"references,omitempty"`
	Features   []string       `toml:"features,omitempty"`
	Metadata   map[string]any `toml:"metadata,omitempty"`
}
