// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package nix

import "fmt"

// Region is a labelled time interval that refers to the traces it can slice
// and to per-region feature arrays. It is implemented by *Tag and *MultiTag.
type Region interface {
	Name() string
	Type() string
	Metadata() *Section
	References() []*DataArray
	Features() []*DataArray
	ReferenceByName(name string) (*DataArray, error)
	ReferenceAt(i int) (*DataArray, error)
	FeatureByName(name string) (*DataArray, error)
	FeatureAt(i int) (*DataArray, error)
}

type region struct {
	file       *File
	name, typ  string
	references []*DataArray
	features   []*DataArray
	metadata   *Section
}

func (r *region) Name() string       { return r.name }
func (r *region) Type() string       { return r.typ }
func (r *region) Metadata() *Section { return r.metadata }

// SetMetadata attaches a metadata section.
func (r *region) SetMetadata(s *Section) { r.metadata = s }

// AddReference appends a trace to the ordered reference list.
func (r *region) AddReference(da *DataArray) { r.references = append(r.references, da) }

// AddFeature appends an array to the ordered feature list.
func (r *region) AddFeature(da *DataArray) { r.features = append(r.features, da) }

func (r *region) References() []*DataArray { return append([]*DataArray(nil), r.references...) }
func (r *region) Features() []*DataArray   { return append([]*DataArray(nil), r.features...) }

func (r *region) ReferenceByName(name string) (*DataArray, error) {
	return r.lookup("reference", r.references, name)
}

func (r *region) ReferenceAt(i int) (*DataArray, error) {
	return r.at("reference", r.references, i)
}

func (r *region) FeatureByName(name string) (*DataArray, error) {
	return r.lookup("feature", r.features, name)
}

func (r *region) FeatureAt(i int) (*DataArray, error) {
	return r.at("feature", r.features, i)
}

func (r *region) lookup(what string, list []*DataArray, name string) (*DataArray, error) {
	if err := r.file.check(); err != nil {
		return nil, err
	}
	for _, da := range list {
		if da.name == name {
			return da, nil
		}
	}
	return nil, fmt.Errorf("%s %q of %q: %w", what, name, r.name, ErrNotFound)
}

func (r *region) at(what string, list []*DataArray, i int) (*DataArray, error) {
	if err := r.file.check(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(list) {
		return nil, fmt.Errorf("%s index %d of %q (have %d): %w", what, i, r.name, len(list), ErrNotFound)
	}
	return list[i], nil
}

// Tag is a singular region: a scalar position and an optional scalar extent,
// both in seconds.
type Tag struct {
	region
	position  float64
	extent    float64
	hasExtent bool
}

func (t *Tag) Position() float64 { return t.position }

// Extent returns the extent and whether one was set.
func (t *Tag) Extent() (float64, bool) { return t.extent, t.hasExtent }

// SetExtent sets the length of the region in seconds.
func (t *Tag) SetExtent(extent float64) {
	t.extent, t.hasExtent = extent, true
}

// MultiTag is an indexed sequence of co-located regions given by parallel
// position and optional extent arrays, in seconds.
type MultiTag struct {
	region
	positions []float64
	extents   []float64
}

// Len returns the number of regions in the sequence.
func (mt *MultiTag) Len() int { return len(mt.positions) }

func (mt *MultiTag) Positions() []float64 { return append([]float64(nil), mt.positions...) }

// Extents returns the extents, nil if none were set.
func (mt *MultiTag) Extents() []float64 {
	if mt.extents == nil {
		return nil
	}
	return append([]float64(nil), mt.extents...)
}

// SetExtents sets the extents; there must be one per position.
func (mt *MultiTag) SetExtents(extents []float64) error {
	if len(extents) != len(mt.positions) {
		return fmt.Errorf("multi tag %q: %d extents for %d positions", mt.name, len(extents), len(mt.positions))
	}
	mt.extents = append([]float64(nil), extents...)
	return nil
}

// Position returns the start of region i.
func (mt *MultiTag) Position(i int) (float64, error) {
	if i < 0 || i >= len(mt.positions) {
		return 0, fmt.Errorf("position %d of %q (have %d): %w", i, mt.name, len(mt.positions), ErrNotFound)
	}
	return mt.positions[i], nil
}

// Extent returns the extent of region i and whether extents were set.
func (mt *MultiTag) Extent(i int) (float64, bool, error) {
	if _, err := mt.Position(i); err != nil {
		return 0, false, err
	}
	if mt.extents == nil {
		return 0, false, nil
	}
	return mt.extents[i], true, nil
}
