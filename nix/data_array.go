// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package nix

import (
	"fmt"
	"io"
)

// Source provides the samples of a data array.
type Source interface {
	// Len returns the number of samples.
	Len() int
	// ReadAt fills dst with the samples starting at off.
	ReadAt(dst []float64, off int) (int, error)
}

// Values is an in-memory Source.
type Values []float64

func (v Values) Len() int { return len(v) }

func (v Values) ReadAt(dst []float64, off int) (int, error) {
	if off < 0 || off > len(v) {
		return 0, fmt.Errorf("offset %d out of range [0, %d]", off, len(v))
	}
	n := copy(dst, v[off:])
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

// DataArray is a named, typed trace of a recording.
type DataArray struct {
	file      *File
	name, typ string
	unit      string
	source    Source
	dimension Dimension
}

func (da *DataArray) Name() string { return da.name }
func (da *DataArray) Type() string { return da.typ }
func (da *DataArray) Unit() string { return da.unit }

// SetUnit sets the unit of the data values.
func (da *DataArray) SetUnit(unit string) { da.unit = unit }

// Dimension returns the time axis of the array, nil if it has none.
func (da *DataArray) Dimension() Dimension { return da.dimension }

// Len returns the number of samples.
func (da *DataArray) Len() (int, error) {
	if err := da.file.check(); err != nil {
		return 0, err
	}
	return da.source.Len(), nil
}

// ReadAll returns a copy of all samples.
func (da *DataArray) ReadAll() ([]float64, error) {
	if err := da.file.check(); err != nil {
		return nil, err
	}
	return da.read(0, da.source.Len())
}

// Slice returns a copy of the samples whose position lies in
// [start, start+extent), both given in seconds. The result is empty, never
// nil, when no sample falls in the interval. For alias range dimensions the
// returned values are converted to seconds.
func (da *DataArray) Slice(start, extent float64) ([]float64, error) {
	if err := da.file.check(); err != nil {
		return nil, err
	}
	if extent <= 0 {
		return []float64{}, nil
	}
	end := start + extent

	switch dim := da.dimension.(type) {
	case SampledDimension:
		i, j, err := dim.indexRange(start, end, da.source.Len())
		if err != nil {
			return nil, fmt.Errorf("data array %q: %w", da.name, err)
		}
		return da.read(i, j)
	case RangeDimension:
		ticks := dim.Ticks
		if dim.IsAlias() {
			all, err := da.read(0, da.source.Len())
			if err != nil {
				return nil, err
			}
			ticks = all
		}
		i, j, scale, err := dim.indexRange(ticks, start, end)
		if err != nil {
			return nil, fmt.Errorf("data array %q: %w", da.name, err)
		}
		if !dim.IsAlias() {
			return da.read(i, j)
		}
		// Already in memory; only the unit needs converting.
		out := make([]float64, j-i)
		for k, v := range ticks[i:j] {
			out[k] = v * scale
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("data array %q has no dimension to slice along", da.name)
	default:
		return nil, fmt.Errorf("data array %q: unsupported dimension %T", da.name, dim)
	}
}

func (da *DataArray) read(i, j int) ([]float64, error) {
	out := make([]float64, j-i)
	if len(out) == 0 {
		return out, nil
	}
	n, err := da.source.ReadAt(out, i)
	if err != nil && !(err == io.EOF && n == len(out)) {
		return nil, fmt.Errorf("reading data array %q: %w", da.name, err)
	}
	return out, nil
}
