// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package edf stores continuous recording traces as EDF data records.
//
// Every trace of a recording bundle that is sampled at a fixed rate lives in
// an EDF file: one EDF signal per trace, 16-bit digital samples with a linear
// physical calibration. The package reads samples at arbitrary offsets so that
// only the requested slice of a trace has to be decoded.
package edf

import "time"

type Version string

const (
	// Version0 is the only version of the EDF standard.
	Version0 Version = "0"
)

const (
	fixedHeaderBytes  = 256
	signalHeaderBytes = 256
	sampleBytes       = 2
	labelBytes        = 16
	unitBytes         = 8
	maxRecordBytes    = 61440
	numberBytes       = 8
)

// MaxRecordSamples is the number of samples that fit into one data record.
const MaxRecordSamples = maxRecordBytes / sampleBytes

// Header represents the EDF file header.
type Header struct {
	Version            Version       // Version of the EDF standard (usually "0")
	PatientID          string        // Identification of the animal or cell
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, -1 if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// Signal represents the characteristics of one trace in the EDF file.
type Signal struct {
	Label             string  // Trace name (e.g. V-1, LocalEOD-1)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical unit (e.g. mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}

// Interval returns the sampling interval of the signal in seconds.
func (s Signal) Interval(recordDuration time.Duration) float64 {
	if s.SamplesPerRecord <= 0 {
		return 0
	}
	return recordDuration.Seconds() / float64(s.SamplesPerRecord)
}

// recordBytes is the size of one data record holding all signals.
func (h *Header) recordBytes() int {
	var n int
	for _, sig := range h.Signals {
		n += sig.SamplesPerRecord * sampleBytes
	}
	return n
}
