// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package bundle

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/OpenPSG/rlxnix/internal/edf"
	"github.com/pelletier/go-toml/v2"
)

// Continuous is a sampled trace to be stored in an EDF file.
type Continuous struct {
	Name string
	Type string
	Unit string
	// SampleRate in Hz. EDF records last a whole fraction of a second, so the
	// rate must be a whole number and the trace must fill whole records.
	SampleRate int
	Values     []float64
}

// Recording is what Write stores: the manifest plus the samples of its
// continuous traces.
type Recording struct {
	Manifest   Manifest
	StartTime  time.Time
	Continuous []Continuous
}

// Write creates the bundle in dir. Every continuous trace is written to an EDF
// file of its own and appended to the manifest's traces. Samples are stored
// with 16 bits over the range of the trace.
func Write(dir string, rec Recording) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating bundle directory: %w", err)
	}

	m := rec.Manifest
	m.Traces = append([]TraceSpec(nil), m.Traces...)
	for i, c := range rec.Continuous {
		file := fmt.Sprintf("trace-%02d.edf", i)
		if err := writeEDF(filepath.Join(dir, file), rec.StartTime, c); err != nil {
			return fmt.Errorf("trace %q: %w", c.Name, err)
		}
		m.Traces = append(m.Traces, TraceSpec{
			Name: c.Name,
			Type: c.Type,
			Unit: c.Unit,
			File: file,
		})
	}
	for i := range m.Traces {
		if m.Traces[i].Times != nil {
			m.Traces[i].Events = true
		}
	}

	b, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("error encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), b, 0o644); err != nil {
		return fmt.Errorf("error writing manifest: %w", err)
	}
	return nil
}

func writeEDF(path string, start time.Time, c Continuous) (err error) {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	duration, perRecord, err := recordSize(c.SampleRate, len(c.Values))
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating EDF file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	pmin, pmax := calibration(c.Values)
	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		RecordingID:        c.Name,
		StartTime:          start,
		DataRecordDuration: duration,
		SignalCount:        1,
		Signals: []edf.Signal{{
			Label:             label(c.Name),
			TransducerType:    c.Type,
			PhysicalDimension: c.Unit,
			PhysicalMin:       pmin,
			PhysicalMax:       pmax,
			DigitalMin:        math.MinInt16,
			DigitalMax:        math.MaxInt16,
			SamplesPerRecord:  c.SampleRate,
		}},
	})
	if err != nil {
		return err
	}

	for off := 0; off < len(c.Values); off += perRecord {
		if err := ew.WriteRecord([][]float64{c.Values[off : off+perRecord]}); err != nil {
			return fmt.Errorf("error writing record: %w", err)
		}
	}
	return ew.Close()
}

// recordSize picks the longest record of 1/k seconds that fits into an EDF
// data record and holds a whole number of samples. The trace must fill whole
// records of that size.
func recordSize(rate, n int) (time.Duration, int, error) {
	first := (rate + edf.MaxRecordSamples - 1) / edf.MaxRecordSamples
	for k := first; k <= rate; k++ {
		if rate%k != 0 || int(time.Second)%k != 0 {
			continue
		}
		// The header holds the duration in eight characters.
		d := time.Second / time.Duration(k)
		if len(strconv.FormatFloat(d.Seconds(), 'f', -1, 64)) > 8 {
			continue
		}
		perRecord := rate / k
		if n%perRecord != 0 {
			return 0, 0, fmt.Errorf("%d samples do not fill whole records of %d", n, perRecord)
		}
		return d, perRecord, nil
	}
	return 0, 0, fmt.Errorf("no EDF record size for %d Hz", rate)
}

// label fits a trace name into the EDF label field. The manifest keeps the
// full name.
func label(name string) string {
	if len(name) > 16 {
		return name[:16]
	}
	return name
}

// calibration returns a physical range covering values whose bounds survive
// the 8 character header fields unchanged.
func calibration(values []float64) (float64, float64) {
	if len(values) == 0 {
		return -1, 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return representable(lo, math.Floor), representable(hi, math.Ceil)
}

// representable rounds v outwards to the fewest digits that fit. Values too
// large for the field are returned as they are and rejected by edf.Create.
func representable(v float64, round func(float64) float64) float64 {
	for _, prec := range []int{4, 3, 2, 1, 0} {
		scale := math.Pow10(prec)
		r := round(v*scale) / scale
		if len(strconv.FormatFloat(r, 'f', prec, 64)) <= 8 {
			return r
		}
	}
	return v
}
