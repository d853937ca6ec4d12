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
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnit is returned for time units that cannot be converted to seconds.
var ErrUnit = errors.New("unsupported time unit")

// indexTolerance absorbs rounding errors when positions fall on a sample.
const indexTolerance = 1e-6

// Dimension describes the time axis of a data array.
type Dimension interface {
	// TimeUnit is the unit positions along the dimension are expressed in.
	TimeUnit() string
}

// SampledDimension is a regularly sampled axis: position i is Offset + i*Interval.
type SampledDimension struct {
	Interval float64
	Offset   float64
	Unit     string
}

func (d SampledDimension) TimeUnit() string { return d.Unit }

// SamplingInterval returns the interval in seconds.
func (d SampledDimension) SamplingInterval() (float64, error) {
	scale, err := UnitScale(d.Unit)
	if err != nil {
		return 0, err
	}
	return d.Interval * scale, nil
}

// Axis returns n positions in seconds, the first of which is startPosition.
func (d SampledDimension) Axis(n int, startPosition float64) ([]float64, error) {
	interval, err := d.SamplingInterval()
	if err != nil {
		return nil, err
	}
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = startPosition + float64(i)*interval
	}
	return axis, nil
}

// indexRange returns the half-open index range of samples whose position in
// seconds lies in [start, end), clamped to [0, n).
func (d SampledDimension) indexRange(start, end float64, n int) (int, int, error) {
	scale, err := UnitScale(d.Unit)
	if err != nil {
		return 0, 0, err
	}
	if d.Interval <= 0 {
		return 0, 0, fmt.Errorf("sampling interval must be positive, got %g", d.Interval)
	}
	interval, offset := d.Interval*scale, d.Offset*scale
	i := ceilIndex((start - offset) / interval)
	j := ceilIndex((end - offset) / interval)
	i, j = clampRange(i, j, n)
	return i, j, nil
}

// RangeDimension is an irregular axis given by explicit ticks. A range
// dimension without ticks is an alias: the data values are the positions, as
// for event traces.
type RangeDimension struct {
	Ticks []float64
	Unit  string
}

func (d RangeDimension) TimeUnit() string { return d.Unit }

// IsAlias reports whether the data itself serves as the ticks.
func (d RangeDimension) IsAlias() bool { return d.Ticks == nil }

// indexRange returns the half-open index range of sorted ticks (in the
// dimension's unit) that fall in [start, end) seconds.
func (d RangeDimension) indexRange(ticks []float64, start, end float64) (i, j int, scale float64, err error) {
	if scale, err = UnitScale(d.Unit); err != nil {
		return 0, 0, 0, err
	}
	i = sort.SearchFloat64s(ticks, start/scale)
	j = sort.SearchFloat64s(ticks, end/scale)
	i, j = clampRange(i, j, len(ticks))
	return i, j, scale, nil
}

// UnitScale returns the factor converting unit into seconds. An empty unit is
// taken to be seconds.
func UnitScale(unit string) (float64, error) {
	switch unit {
	case "", "s", "sec":
		return 1, nil
	case "ms":
		return 1e-3, nil
	case "us", "µs":
		return 1e-6, nil
	case "ns":
		return 1e-9, nil
	case "min":
		return 60, nil
	case "h":
		return 3600, nil
	}
	return 0, fmt.Errorf("%q: %w", unit, ErrUnit)
}

// ceilIndex returns the smallest index >= f, treating values within
// indexTolerance of an integer as that integer.
func ceilIndex(f float64) int {
	if r := math.Round(f); math.Abs(f-r) <= indexTolerance {
		return int(r)
	}
	return int(math.Ceil(f))
}

func clampRange(i, j, n int) (int, int) {
	i = max(0, min(i, n))
	j = max(i, min(j, n))
	return i, j
}
