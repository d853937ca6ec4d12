// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package dsp holds the signal processing helpers used on EOD recordings:
// smoothing, threshold crossing detection and amplitude modulation envelopes.
package dsp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrKernelWidth is returned for running average kernels narrower than one sample.
	ErrKernelWidth = errors.New("kernel width must be greater than 0")

	// ErrLength is returned when paired inputs differ in length.
	ErrLength = errors.New("length mismatch")
)

// RunningAverage smooths y with a boxcar kernel of the given width. Even
// widths are widened by one. The signal is padded with its first and last
// value so the output has the same length as y.
func RunningAverage(y []float64, width int) ([]float64, error) {
	if width < 1 {
		return nil, ErrKernelWidth
	}
	if len(y) == 0 {
		return []float64{}, nil
	}
	if width%2 == 0 {
		width++
	}
	half := width / 2

	at := func(i int) float64 {
		switch {
		case i < 0:
			return y[0]
		case i >= len(y):
			return y[len(y)-1]
		}
		return y[i]
	}

	out := make([]float64, len(y))
	var sum float64
	for i := -half; i <= half; i++ {
		sum += at(i)
	}
	out[0] = sum / float64(width)
	for i := 1; i < len(y); i++ {
		sum += at(i+half) - at(i-half-1)
		out[i] = sum / float64(width)
	}
	return out, nil
}

// EODEvents returns the times at which the mean-free eod crosses threshold
// upwards. With runningAvg > 0 the signal is smoothed first. The first sample
// is compared against the last one, so a signal that ends below and starts
// above threshold reports an event at time[0].
func EODEvents(time, eod []float64, threshold float64, runningAvg int) ([]float64, error) {
	if len(time) != len(eod) {
		return nil, fmt.Errorf("%d times for %d samples: %w", len(time), len(eod), ErrLength)
	}
	if len(eod) == 0 {
		return []float64{}, nil
	}

	y := make([]float64, len(eod))
	m := mean(eod)
	for i, v := range eod {
		y[i] = v - m
	}
	if runningAvg > 0 {
		var err error
		if y, err = RunningAverage(y, runningAvg); err != nil {
			return nil, err
		}
	}

	events := []float64{}
	for i, v := range y {
		prev := y[(i+len(y)-1)%len(y)]
		if v >= threshold && prev < threshold {
			events = append(events, time[i])
		}
	}
	return events, nil
}

// Default parameters of ExtractAM.
const (
	DefaultSampleRate = 20000.0
	DefaultOrder      = 4
	DefaultCutoff     = 300.0
)

// ExtractAM returns the amplitude modulation envelope of y: the rectified,
// mean-free signal low-pass filtered forwards and backwards with a
// Butterworth filter of the given order and cutoff (Hz) at sample rate fs.
func ExtractAM(y []float64, fs float64, order int, cutoff float64) ([]float64, error) {
	sos, err := Butterworth(order, cutoff, fs)
	if err != nil {
		return nil, err
	}
	rect := make([]float64, len(y))
	m := mean(y)
	for i, v := range y {
		rect[i] = math.Abs(v - m)
	}
	return sos.FiltFilt(rect)
}

func mean(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}
