// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/bundle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBundle stores a 10 s recording with one SAM run from 2 s to 6 s and two
// stimuli of 1 s at 2.5 s and 4 s.
func writeBundle(t *testing.T) string {
	t.Helper()

	voltage := make([]float64, 10000)
	eod := make([]float64, 10000)
	for i := range voltage {
		voltage[i] = float64(i) / 100
		eod[i] = math.Sin(2 * math.Pi * 50 * float64(i) / 1000)
	}
	extent := 4.0
	refs := []string{"V-1", "EOD", "Spikes-1"}

	dir := t.TempDir()
	require.NoError(t, bundle.Write(dir, bundle.Recording{
		Manifest: bundle.Manifest{
			MappingVersion: "1.1",
			Block:          bundle.BlockSpec{Name: "2021-08-02-ab", Type: "relacs.session"},
			Traces: []bundle.TraceSpec{
				{Name: "Spikes-1", Type: "relacs.data.event.Spikes-1", Times: []float64{1.0, 2.1, 2.6, 3.0, 4.2, 5.9, 7.0}},
			},
			Tags: []bundle.TagSpec{
				{Name: "SAM_1", Type: "relacs.repro_run", Position: 2, Extent: &extent, References: refs},
			},
			MultiTags: []bundle.MultiTagSpec{
				{Name: "SAM_1-stimuli", Type: "relacs.stimulus", Positions: []float64{2.5, 4.0}, Extents: []float64{1, 1}, References: refs},
			},
		},
		Continuous: []bundle.Continuous{
			{Name: "V-1", Type: "relacs.data.sampled.V-1", Unit: "mV", SampleRate: 1000, Values: voltage},
			{Name: "EOD", Type: "relacs.data.sampled.EOD", Unit: "mV", SampleRate: 1000, Values: eod},
		},
	}))
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := exec(context.Background(), &stdout, &stderr, args)
	return stdout.String(), stderr.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestRuns(t *testing.T) {
	dir := writeBundle(t)

	stdout, _, err := run(t, "runs", dir)
	require.NoError(t, err)
	out := lines(stdout)
	require.Len(t, out, 2)
	assert.Contains(t, out[1], "SAM_1")
	assert.Contains(t, out[1], "*efish.Sam")
}

func TestRefs(t *testing.T) {
	dir := writeBundle(t)

	stdout, _, err := run(t, "refs", dir, "SAM_1")
	require.NoError(t, err)
	out := lines(stdout)
	require.Len(t, out, 4)
	assert.Contains(t, out[1], "V-1")
	assert.Contains(t, out[1], "continuous")
	assert.Contains(t, out[3], "Spikes-1")
	assert.Contains(t, out[3], "event")
}

func TestTrace(t *testing.T) {
	dir := writeBundle(t)

	stdout, _, err := run(t, "trace", "--stimulus", "0", "--reference", "repro_start", dir, "SAM_1", "V-1")
	require.NoError(t, err)
	out := lines(stdout)
	require.Len(t, out, 1000)
	assert.True(t, strings.HasPrefix(out[0], "2.5\t"), out[0])

	stdout, _, err = run(t, "trace", dir, "SAM_1", "Spikes-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.1", "0.6", "1", "2.2", "3.9"}, lines(stdout))

	_, _, err = run(t, "trace", dir, "SAM_2", "V-1")
	require.ErrorIs(t, err, rlxnix.ErrRunNotFound)

	_, _, err = run(t, "trace", dir, "SAM_1")
	require.Error(t, err)
}

func TestSignal(t *testing.T) {
	dir := writeBundle(t)

	stdout, _, err := run(t, "signal", "--stimulus", "1", dir, "SAM_1", "spikes")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.2"}, lines(stdout))

	// 50 Hz for one second.
	stdout, _, err = run(t, "signal", "--events", "--stimulus", "0", dir, "SAM_1", "global eod")
	require.NoError(t, err)
	assert.Len(t, lines(stdout), 50)

	stdout, _, err = run(t, "signal", "--am", dir, "SAM_1", "global eod")
	require.NoError(t, err)
	assert.Len(t, lines(stdout), 4000)

	_, stderr, err := run(t, "signal", dir, "SAM_1", "local eod")
	require.Error(t, err)
	assert.Contains(t, stderr, "local eod trace was not found")

	_, _, err = run(t, "signal", dir, "SAM_1", "heart rate")
	require.Error(t, err)
}

func TestConfigOverride(t *testing.T) {
	dir := writeBundle(t)
	cfg := filepath.Join(t.TempDir(), "local.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[traces.efish]\n\"local eod\" = [\"EOD\"]\n"), 0o644))

	stdout, _, err := run(t, "signal", "--config", cfg, "--stimulus", "0", dir, "SAM_1", "local eod")
	require.NoError(t, err)
	assert.Len(t, lines(stdout), 1000)
}

func TestHelp(t *testing.T) {
	_, stderr, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, stderr, "rlxinfo")

	_, _, err = run(t, "--log", "verbose", "runs")
	require.Error(t, err)
}
