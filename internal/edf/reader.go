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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrNoSignal is returned when a signal is not part of the file.
var ErrNoSignal = errors.New("no such signal")

// Reader reads EDF files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// signalField describes one per-signal column of the header.
type signalField struct {
	name  string
	width int
	set   func(sig *Signal, b []byte)
}

var signalFields = []signalField{
	{"label", labelBytes, func(sig *Signal, b []byte) { sig.Label = trim(b) }},
	{"transducer type", 80, func(sig *Signal, b []byte) { sig.TransducerType = trim(b) }},
	{"physical dimension", unitBytes, func(sig *Signal, b []byte) { sig.PhysicalDimension = trim(b) }},
	{"physical minimum", 8, func(sig *Signal, b []byte) { sig.PhysicalMin = parseFloat(b) }},
	{"physical maximum", 8, func(sig *Signal, b []byte) { sig.PhysicalMax = parseFloat(b) }},
	{"digital minimum", 8, func(sig *Signal, b []byte) { sig.DigitalMin = parseInt(b) }},
	{"digital maximum", 8, func(sig *Signal, b []byte) { sig.DigitalMax = parseInt(b) }},
	{"prefiltering", 80, func(sig *Signal, b []byte) { sig.Prefiltering = trim(b) }},
	{"samples per record", 8, func(sig *Signal, b []byte) { sig.SamplesPerRecord = parseInt(b) }},
	{"reserved", 32, func(sig *Signal, b []byte) { sig.Reserved = trim(b) }},
}

// Open opens an EDF file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to header: %w", err)
	}
	reader := bufio.NewReader(r)

	b := make([]byte, fixedHeaderBytes)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	hdr := &Header{
		Version:     Version(trim(b[0:8])),
		PatientID:   trim(b[8:88]),
		RecordingID: trim(b[88:168]),
	}

	startDate, err := time.Parse("02.01.06", trim(b[168:176]))
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", trim(b[176:184]))
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(trim(b[184:192])); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	if hdr.DataRecords, err = strconv.Atoi(trim(b[236:244])); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	if hdr.DataRecordDuration, err = time.ParseDuration(trim(b[244:252]) + "s"); err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	if hdr.SignalCount, err = strconv.Atoi(trim(b[252:256])); err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}

	// Signal headers are stored column by column.
	hdr.Signals = make([]Signal, hdr.SignalCount)
	for _, field := range signalFields {
		fb := make([]byte, field.width)
		for i := range hdr.Signals {
			if _, err := io.ReadFull(reader, fb); err != nil {
				return nil, fmt.Errorf("error reading signal %s: %w", field.name, err)
			}
			field.set(&hdr.Signals[i], fb)
		}
	}

	return &Reader{r: r, hdr: hdr}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() Header {
	return *er.hdr
}

// SignalReader reads the samples of one signal from an EDF file.
type SignalReader struct {
	r                io.ReadSeeker
	hdr              *Header
	signalIndex      int // Index of the signal to read
	currentRecord    int // Current record being processed
	currentSample    int // Current sample in the record
	recordSize       int // Total size of one data record
	signalOffset     int // Byte offset of the signal in a record
	samplesPerRecord int // Number of samples per record for the signal
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal index %d: %w", signalIndex, ErrNoSignal)
	}

	signalOffset := 0
	for _, sig := range er.hdr.Signals[:signalIndex] {
		signalOffset += sig.SamplesPerRecord * sampleBytes
	}

	return &SignalReader{
		r:                er.r,
		hdr:              er.hdr,
		signalIndex:      signalIndex,
		recordSize:       er.hdr.recordBytes(),
		signalOffset:     signalOffset,
		samplesPerRecord: er.hdr.Signals[signalIndex].SamplesPerRecord,
	}, nil
}

// SignalByLabel creates a new SignalReader for the signal with the given label.
func (er *Reader) SignalByLabel(label string) (*SignalReader, error) {
	for i, sig := range er.hdr.Signals {
		if sig.Label == label {
			return er.Signal(i)
		}
	}
	return nil, fmt.Errorf("signal %q: %w", label, ErrNoSignal)
}

// Info returns the header entry of the signal.
func (sr *SignalReader) Info() Signal {
	return sr.hdr.Signals[sr.signalIndex]
}

// Interval returns the sampling interval of the signal in seconds.
func (sr *SignalReader) Interval() float64 {
	return sr.Info().Interval(sr.hdr.DataRecordDuration)
}

// Len returns the total number of samples of the signal.
func (sr *SignalReader) Len() int {
	if sr.hdr.DataRecords < 0 {
		return 0
	}
	return sr.hdr.DataRecords * sr.samplesPerRecord
}

// Seek positions the reader at the given sample.
func (sr *SignalReader) Seek(sample int) error {
	if sample < 0 || sample > sr.Len() {
		return fmt.Errorf("sample %d out of range [0, %d]", sample, sr.Len())
	}
	if sr.samplesPerRecord == 0 {
		return nil
	}
	sr.currentRecord = sample / sr.samplesPerRecord
	sr.currentSample = sample % sr.samplesPerRecord
	return nil
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	signal := sr.Info()
	buf := make([]byte, sampleBytes*sr.samplesPerRecord)

	n := 0
	for n < len(data) {
		if sr.currentRecord >= sr.hdr.DataRecords {
			return n, io.EOF
		}

		// Read the rest of the current record in one go.
		count := min(sr.samplesPerRecord-sr.currentSample, len(data)-n)
		pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset) + int64(sr.currentSample*sampleBytes)
		if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
			return n, fmt.Errorf("error seeking to position: %w", err)
		}
		chunk := buf[:count*sampleBytes]
		if _, err := io.ReadFull(sr.r, chunk); err != nil {
			return n, fmt.Errorf("error reading sample data: %w", err)
		}

		for i := 0; i < count; i++ {
			digitalValue := int16(binary.LittleEndian.Uint16(chunk[i*sampleBytes:]))
			data[n+i] = convertDigitalToPhysical(digitalValue, signal.DigitalMin, signal.DigitalMax, signal.PhysicalMin, signal.PhysicalMax)
		}
		n += count

		sr.currentSample += count
		if sr.currentSample >= sr.samplesPerRecord {
			sr.currentSample = 0
			sr.currentRecord++
		}
	}

	return n, nil
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func trim(b []byte) string {
	return strings.TrimSpace(string(b))
}

func parseFloat(b []byte) float64 {
	f, err := strconv.ParseFloat(trim(b), 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(b []byte) int {
	i, err := strconv.Atoi(trim(b))
	if err != nil {
		return 0
	}
	return i
}
