// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// Writer writes EDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new EDF writer that writes to the given writer.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	if hdr.SignalCount != len(hdr.Signals) {
		return nil, fmt.Errorf("signal count %d does not match %d signal headers", hdr.SignalCount, len(hdr.Signals))
	}
	for _, sig := range hdr.Signals {
		if len(sig.Label) > labelBytes {
			return nil, fmt.Errorf("signal label %q longer than %d bytes", sig.Label, labelBytes)
		}
		if len(sig.PhysicalDimension) > unitBytes {
			return nil, fmt.Errorf("signal %q: unit %q longer than %d bytes", sig.Label, sig.PhysicalDimension, unitBytes)
		}
		for _, v := range []float64{sig.PhysicalMin, sig.PhysicalMax} {
			if _, err := formatPhysicalValue(v); err != nil {
				return nil, fmt.Errorf("signal %q: %w", sig.Label, err)
			}
		}
	}
	if _, err := formatDuration(hdr.DataRecordDuration); err != nil {
		return nil, err
	}
	if rb := hdr.recordBytes(); rb > maxRecordBytes {
		return nil, fmt.Errorf("data record too large: %d bytes, max is %d bytes", rb, maxRecordBytes)
	}
	hdr.DataRecords = -1 // Unknown number of data records (at this time).

	ew := &Writer{w: w, hdr: &hdr}
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	return nil
}

// WriteRecord writes a single data record to the EDF file.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}
	for i, samples := range signals {
		if want := ew.hdr.Signals[i].SamplesPerRecord; len(samples) != want {
			return fmt.Errorf("signal %q: expected %d samples, got %d", ew.hdr.Signals[i].Label, want, len(samples))
		}
	}

	// Records are appended after the header and all previously written records.
	pos := int64(ew.hdr.HeaderBytes) + int64(ew.dataRecords)*int64(ew.hdr.recordBytes())
	if _, err := ew.w.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to record %d: %w", ew.dataRecords, err)
	}

	writer := bufio.NewWriter(ew.w)
	buf := make([]byte, sampleBytes)
	for i, samples := range signals {
		signal := ew.hdr.Signals[i]
		for _, sample := range samples {
			digitalValue := convertPhysicalToDigital(sample, signal.PhysicalMin, signal.PhysicalMax, signal.DigitalMin, signal.DigitalMax)
			binary.LittleEndian.PutUint16(buf, uint16(digitalValue))
			if _, err := writer.Write(buf); err != nil {
				return err
			}
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// writeHeader rewinds the file and writes the EDF header.
func (ew *Writer) writeHeader() error {
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	hdr := ew.hdr
	hdr.HeaderBytes = fixedHeaderBytes + hdr.SignalCount*signalHeaderBytes

	duration, err := formatDuration(hdr.DataRecordDuration)
	if err != nil {
		return err
	}

	fields := []string{
		fmt.Sprintf("%-8s", hdr.Version),
		fmt.Sprintf("%-80s", hdr.PatientID),
		fmt.Sprintf("%-80s", hdr.RecordingID),
		fmt.Sprintf("%-8s", hdr.StartTime.Format("02.01.06")),
		fmt.Sprintf("%-8s", hdr.StartTime.Format("15.04.05")),
		fmt.Sprintf("%-8d", hdr.HeaderBytes),
		fmt.Sprintf("%-44s", ""),
		fmt.Sprintf("%-8d", hdr.DataRecords),
		duration,
		fmt.Sprintf("%-4d", hdr.SignalCount),
	}

	// Signal headers are written column by column.
	column := func(format func(Signal) string) {
		for _, signal := range hdr.Signals {
			fields = append(fields, format(signal))
		}
	}
	calibration := func(value func(Signal) float64) error {
		for _, signal := range hdr.Signals {
			s, err := formatPhysicalValue(value(signal))
			if err != nil {
				return fmt.Errorf("signal %q: %w", signal.Label, err)
			}
			fields = append(fields, s)
		}
		return nil
	}
	column(func(s Signal) string { return fmt.Sprintf("%-16s", s.Label) })
	column(func(s Signal) string { return fmt.Sprintf("%-80s", s.TransducerType) })
	column(func(s Signal) string { return fmt.Sprintf("%-8s", s.PhysicalDimension) })
	if err := calibration(func(s Signal) float64 { return s.PhysicalMin }); err != nil {
		return err
	}
	if err := calibration(func(s Signal) float64 { return s.PhysicalMax }); err != nil {
		return err
	}
	column(func(s Signal) string { return fmt.Sprintf("%-8d", s.DigitalMin) })
	column(func(s Signal) string { return fmt.Sprintf("%-8d", s.DigitalMax) })
	column(func(s Signal) string { return fmt.Sprintf("%-80s", s.Prefiltering) })
	column(func(s Signal) string { return fmt.Sprintf("%-8d", s.SamplesPerRecord) })
	column(func(s Signal) string { return fmt.Sprintf("%-32s", "") })

	writer := bufio.NewWriter(ew.w)
	for _, field := range fields {
		if _, err := writer.WriteString(field); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// convertPhysicalToDigital converts a physical value to the nearest digital value within the calibrated range.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int16 {
	if pmax == pmin {
		return 0 // Avoid division by zero
	}
	digital := math.Round((physical-pmin)*float64(dmax-dmin)/(pmax-pmin)) + float64(dmin)
	digital = math.Max(float64(dmin), math.Min(float64(dmax), digital))
	return int16(digital)
}

// formatPhysicalValue renders a calibration value into the 8 characters the header allows.
func formatPhysicalValue(val float64) (string, error) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return "", fmt.Errorf("physical value %v is not finite", val)
	}
	for _, prec := range []int{4, 3, 2, 1, 0} {
		if s := fmt.Sprintf("%.*f", prec, val); len(s) <= numberBytes {
			return fmt.Sprintf("%-8s", s), nil
		}
	}
	return "", fmt.Errorf("physical value %v does not fit into %d characters", val, numberBytes)
}

// formatDuration renders the record duration in seconds. Fractions are
// written in full, so durations such as 1/3 s are rejected.
func formatDuration(d time.Duration) (string, error) {
	if d <= 0 {
		return "", fmt.Errorf("record duration must be positive, got %s", d)
	}
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if len(s) > numberBytes {
		return "", fmt.Errorf("record duration %s does not fit into %d characters", d, numberBytes)
	}
	return fmt.Sprintf("%-8s", s), nil
}
