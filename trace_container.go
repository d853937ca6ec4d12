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
	"strconv"

	"github.com/OpenPSG/rlxnix/nix"
	"github.com/apex/log"
)

// TimeReference selects the time frame of continuous trace axes.
type TimeReference int

const (
	// Zero expresses time relative to the region start.
	Zero TimeReference = iota
	// ReproStart expresses time in the recording's absolute time base.
	ReproStart
)

func (r TimeReference) String() string {
	switch r {
	case Zero:
		return "zero"
	case ReproStart:
		return "repro_start"
	}
	return "TimeReference(" + strconv.Itoa(int(r)) + ")"
}

// ParseTimeReference is the inverse of TimeReference.String.
func ParseTimeReference(s string) (TimeReference, error) {
	switch s {
	case "zero":
		return Zero, nil
	case "repro_start":
		return ReproStart, nil
	}
	return Zero, fmt.Errorf("unknown time reference %q", s)
}

// Reference describes one trace a region can slice.
type Reference struct {
	Index int
	Name  string
	Type  string
}

// FeatureInfo describes one feature array of a region.
type FeatureInfo struct {
	Index int
	Name  string
	Type  string
}

// TraceID identifies a referenced trace or feature by name or position.
type TraceID struct {
	name   string
	index  int
	byName bool
}

// ByName identifies a trace by its name.
func ByName(name string) TraceID { return TraceID{name: name, byName: true} }

// ByIndex identifies a trace by its position in the reference list.
func ByIndex(i int) TraceID { return TraceID{index: i} }

func (id TraceID) String() string {
	if id.byName {
		return strconv.Quote(id.name)
	}
	return "#" + strconv.Itoa(id.index)
}

// Option configures containers, repro runs and datasets.
type Option func(*options)

type options struct {
	index    int
	hasIndex bool
	version  MappingVersion
	typeMap  TypeMap
	traces   TraceConfig
	logger   log.Interface
}

func newOptions(opts []Option) options {
	o := options{version: DefaultMappingVersion, typeMap: DefaultTypeMap()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithIndex selects one region of a multi tag.
func WithIndex(i int) Option {
	return func(o *options) { o.index, o.hasIndex = i, true }
}

// WithMappingVersion selects the type label convention, DefaultMappingVersion if unset.
func WithMappingVersion(v MappingVersion) Option {
	return func(o *options) { o.version = v }
}

// WithTypeMap replaces the mapping version table, DefaultTypeMap if unset.
func WithTypeMap(m TypeMap) Option {
	return func(o *options) { o.typeMap = m }
}

// WithTraceConfig passes the trace configuration on to the plugins of a Dataset.
func WithTraceConfig(tc TraceConfig) Option {
	return func(o *options) { o.traces = tc }
}

// WithLogger passes a logger on to the plugins of a Dataset.
func WithLogger(l log.Interface) Option {
	return func(o *options) { o.logger = l }
}

// TraceContainer reads the traces referenced by one region of a recording.
// It is read-only and valid only while the underlying file is open.
type TraceContainer struct {
	region    nix.Region
	index     int
	version   MappingVersion
	typeMap   TypeMap
	startTime float64
	duration  float64
}

// NewTraceContainer wraps a *nix.Tag, or one region of a *nix.MultiTag
// selected by WithIndex. Passing a multi tag without an index fails with
// ErrConfiguration.
func NewTraceContainer(region nix.Region, opts ...Option) (*TraceContainer, error) {
	o := newOptions(opts)
	if !o.typeMap.Has(o.version) {
		return nil, fmt.Errorf("%w: unknown mapping version %q", ErrConfiguration, o.version)
	}

	c := &TraceContainer{region: region, index: -1, version: o.version, typeMap: o.typeMap}
	switch r := region.(type) {
	case *nix.Tag:
		c.startTime = r.Position()
		if extent, ok := r.Extent(); ok {
			c.duration = extent
		}
	case *nix.MultiTag:
		if !o.hasIndex {
			return nil, fmt.Errorf("%w: index required for multi tag %q", ErrConfiguration, r.Name())
		}
		start, err := r.Position(o.index)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		extent, ok, err := r.Extent(o.index)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		if ok {
			c.duration = extent
		}
		c.index, c.startTime = o.index, start
	default:
		return nil, fmt.Errorf("%w: unsupported region %T", ErrConfiguration, region)
	}
	return c, nil
}

func (c *TraceContainer) Name() string { return c.region.Name() }
func (c *TraceContainer) Type() string { return c.region.Type() }

// StartTime is the region start in seconds of the recording's time base.
func (c *TraceContainer) StartTime() float64 { return c.startTime }

// Duration is the region length in seconds, 0 if the region has no extent.
func (c *TraceContainer) Duration() float64 { return c.duration }

// Index is the multi tag index, -1 for singular regions.
func (c *TraceContainer) Index() int { return c.index }

// ReproTag returns the underlying tag or multi tag.
func (c *TraceContainer) ReproTag() nix.Region { return c.region }

// Metadata returns the metadata section of the underlying region, or nil.
func (c *TraceContainer) Metadata() *nix.Section { return c.region.Metadata() }

func (c *TraceContainer) MappingVersion() MappingVersion { return c.version }

// References lists the referenced traces in their fixed order.
func (c *TraceContainer) References() []Reference {
	refs := c.region.References()
	out := make([]Reference, len(refs))
	for i, da := range refs {
		out[i] = Reference{Index: i, Name: da.Name(), Type: da.Type()}
	}
	return out
}

// Features lists the feature arrays in their fixed order.
func (c *TraceContainer) Features() []FeatureInfo {
	feats := c.region.Features()
	out := make([]FeatureInfo, len(feats))
	for i, da := range feats {
		out[i] = FeatureInfo{Index: i, Name: da.Name(), Type: da.Type()}
	}
	return out
}

// Kind classifies a type label under the container's mapping version.
func (c *TraceContainer) Kind(typ string) DataKind {
	return c.typeMap.TraceKind(c.version, typ)
}

// TraceData reads the part of a referenced trace that lies within
// [StartTime, StartTime+Duration).
//
// For continuous traces it returns the samples and their time axis. The axis
// starts at StartTime for ReproStart and at 0 for Zero.
//
// For event traces it returns the event times relative to StartTime and a nil
// axis. ref is ignored for event traces: they are always relative to the
// region start. Callers rely on this, so it is kept even though it differs
// from the continuous case.
//
// Unresolved names and indexes fail with nix.ErrNotFound.
func (c *TraceContainer) TraceData(id TraceID, ref TimeReference) ([]float64, []float64, error) {
	da, kind, err := c.resolve(id)
	if err != nil {
		return nil, nil, err
	}
	data, err := da.Slice(c.startTime, c.duration)
	if err != nil {
		return nil, nil, err
	}

	if kind == KindEvent {
		for i := range data {
			data[i] -= c.startTime
		}
		return data, nil, nil
	}

	dim, ok := da.Dimension().(nix.SampledDimension)
	if !ok {
		return nil, nil, fmt.Errorf("continuous trace %q has no sampled dimension", da.Name())
	}
	startPosition := 0.0
	if ref == ReproStart {
		startPosition = c.startTime
	}
	time, err := dim.Axis(len(data), startPosition)
	if err != nil {
		return nil, nil, fmt.Errorf("trace %q: %w", da.Name(), err)
	}
	return data, time, nil
}

// FeatureData returns the full payload of a feature array.
func (c *TraceContainer) FeatureData(id TraceID) ([]float64, error) {
	var (
		da  *nix.DataArray
		err error
	)
	if id.byName {
		da, err = c.region.FeatureByName(id.name)
	} else {
		da, err = c.region.FeatureAt(id.index)
	}
	if err != nil {
		return nil, err
	}
	return da.ReadAll()
}

// resolve looks up a reference and classifies it once.
func (c *TraceContainer) resolve(id TraceID) (*nix.DataArray, DataKind, error) {
	var (
		da  *nix.DataArray
		err error
	)
	if id.byName {
		da, err = c.region.ReferenceByName(id.name)
	} else {
		da, err = c.region.ReferenceAt(id.index)
	}
	if err != nil {
		return nil, KindUnknown, err
	}
	return da, c.Kind(da.Type()), nil
}
