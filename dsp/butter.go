// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Biquad is one second-order section. A[0] is always 1.
type Biquad struct {
	B [3]float64
	A [3]float64
}

// dcGain is the section's response to a constant input.
func (s Biquad) dcGain() float64 {
	return (s.B[0] + s.B[1] + s.B[2]) / (s.A[0] + s.A[1] + s.A[2])
}

// SOS is a cascade of second-order sections.
type SOS []Biquad

// Butterworth designs a digital low-pass Butterworth filter of the given
// order with cutoff Hz at sample rate fs, using the bilinear transform with
// frequency prewarping. The cascade has unit gain at DC.
func Butterworth(order int, cutoff, fs float64) (SOS, error) {
	if order < 1 {
		return nil, fmt.Errorf("filter order must be positive, got %d", order)
	}
	if fs <= 0 || cutoff <= 0 || cutoff >= fs/2 {
		return nil, fmt.Errorf("cutoff %g Hz must lie between 0 and the Nyquist frequency of %g Hz", cutoff, fs/2)
	}

	fs2 := 2 * fs
	wc := fs2 * math.Tan(math.Pi*cutoff/fs)

	sos := make(SOS, 0, (order+1)/2)
	// Upper half of each conjugate pole pair; zeros sit at z = -1.
	for k := 0; k < order/2; k++ {
		theta := math.Pi * float64(2*k+1+order) / float64(2*order)
		p := cmplx.Rect(wc, theta)
		z := (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		a1, a2 := -2*real(z), real(z)*real(z)+imag(z)*imag(z)
		g := (1 + a1 + a2) / 4
		sos = append(sos, Biquad{B: [3]float64{g, 2 * g, g}, A: [3]float64{1, a1, a2}})
	}
	if order%2 == 1 {
		z := (fs2 - wc) / (fs2 + wc)
		g := (1 - z) / 2
		sos = append(sos, Biquad{B: [3]float64{g, g, 0}, A: [3]float64{1, -z, 0}})
	}
	return sos, nil
}

// Filter runs x through the cascade starting from rest.
func (s SOS) Filter(x []float64) []float64 {
	return s.filter(x, make([][2]float64, len(s)))
}

// filter runs the sections in transposed direct form II from state zi.
func (s SOS) filter(x []float64, zi [][2]float64) []float64 {
	y := append([]float64(nil), x...)
	for k, sec := range s {
		z1, z2 := zi[k][0], zi[k][1]
		for i, v := range y {
			out := sec.B[0]*v + z1
			z1 = sec.B[1]*v - sec.A[1]*out + z2
			z2 = sec.B[2]*v - sec.A[2]*out
			y[i] = out
		}
	}
	return y
}

// steadyState returns the section states of the cascade settled on a
// constant input of x0.
func (s SOS) steadyState(x0 float64) [][2]float64 {
	zi := make([][2]float64, len(s))
	in := x0
	for k, sec := range s {
		out := in * sec.dcGain()
		z2 := sec.B[2]*in - sec.A[2]*out
		zi[k] = [2]float64{sec.B[1]*in - sec.A[1]*out + z2, z2}
		in = out
	}
	return zi
}

// padLen is the length of the odd extension used by FiltFilt.
func (s SOS) padLen() int {
	var bz, az int
	for _, sec := range s {
		if sec.B[2] == 0 {
			bz++
		}
		if sec.A[2] == 0 {
			az++
		}
	}
	return 3 * (2*len(s) + 1 - min(bz, az))
}

// FiltFilt filters x forwards and backwards for zero phase distortion. The
// signal is extended at both ends by point reflection and each pass starts
// from the steady state of its first sample.
func (s SOS) FiltFilt(x []float64) ([]float64, error) {
	n := s.padLen()
	if len(x) <= n {
		return nil, fmt.Errorf("input of %d samples must be longer than the padding of %d: %w", len(x), n, ErrLength)
	}

	ext := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	last := len(x) - 1
	for i := 1; i <= n; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}

	y := s.filter(ext, s.steadyState(ext[0]))
	reverse(y)
	y = s.filter(y, s.steadyState(y[0]))
	reverse(y)
	return y[n : len(y)-n], nil
}

func reverse(y []float64) {
	for i, j := 0, len(y)-1; i < j; i, j = i+1, j-1 {
		y[i], y[j] = y[j], y[i]
	}
}
