// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rlxnix_test

import (
	"testing"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/nix"
	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type baseline struct {
	*rlxnix.ReProRun
	env rlxnix.PluginEnv
}

func init() {
	rlxnix.Register("BaselineActivity", func(run *rlxnix.ReProRun, env rlxnix.PluginEnv) (rlxnix.Run, error) {
		return &baseline{ReProRun: run, env: env}, nil
	})
}

type traceNames map[string][]string

func (n traceNames) TraceConfiguration(pluginset, signal string) []string {
	return n[pluginset+"/"+signal]
}

func TestReProRunStimuli(t *testing.T) {
	rec := newRecording(t)
	// A presentation outside the run must not be picked up.
	later := rec.block.CreateMultiTag("SAM_2-stimuli", "relacs.stimulus", []float64{5.5, 9.0})
	require.NoError(t, later.SetExtents([]float64{0.25, 0.25}))

	run, err := rlxnix.NewReProRun(rec.run, []*nix.MultiTag{rec.stimuli, later}, rec.block.DataArrays())
	require.NoError(t, err)

	assert.Equal(t, "SAM", run.ReproName())
	require.Equal(t, 3, run.StimulusCount())

	var starts []float64
	for _, s := range run.Stimuli() {
		starts = append(starts, s.StartTime())
	}
	assert.Equal(t, []float64{5.0, 5.5, 6.0}, starts)

	s, err := run.Stimulus(1)
	require.NoError(t, err)
	assert.Equal(t, "SAM_2-stimuli", s.Name())
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, 0.25, s.Duration())

	_, err = run.Stimulus(3)
	require.ErrorIs(t, err, rlxnix.ErrStimulusIndex)
	_, err = run.Stimulus(-1)
	require.ErrorIs(t, err, rlxnix.ErrStimulusIndex)
	_, err = run.StimulusMetadata(3)
	require.ErrorIs(t, err, rlxnix.ErrStimulusIndex)
}

func TestReProRunTraces(t *testing.T) {
	rec := newRecording(t)

	run, err := rlxnix.NewReProRun(rec.run, []*nix.MultiTag{rec.stimuli}, rec.block.DataArrays())
	require.NoError(t, err)

	assert.True(t, run.HasTrace("V-1", rlxnix.KindContinuous))
	assert.True(t, run.HasTrace("Spikes-1", rlxnix.KindEvent))
	assert.False(t, run.HasTrace("Spikes-1", rlxnix.KindContinuous))
	assert.False(t, run.HasTrace("EOD", rlxnix.KindContinuous))

	whole, time, err := run.Data("V-1", -1, rlxnix.ReproStart)
	require.NoError(t, err)
	assert.Len(t, whole, 2000)
	assert.InDelta(t, 5.0, time[0], 1e-12)

	first, _, err := run.Data("Spikes-1", 1, rlxnix.Zero)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.InDelta(t, 0.25, first[0], 1e-12)

	_, _, err = run.Data("V-1", 2, rlxnix.Zero)
	require.ErrorIs(t, err, rlxnix.ErrStimulusIndex)
}

func TestReproName(t *testing.T) {
	rec := newRecording(t)
	for name, want := range map[string]string{
		"SAM_12":           "SAM",
		"BaselineActivity": "BaselineActivity",
		"File_Stimulus_3":  "File_Stimulus",
		"FICurve_x":        "FICurve_x",
	} {
		tag := rec.block.CreateTag(name, "relacs.repro_run", 0)
		run, err := rlxnix.NewReProRun(tag, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, want, run.ReproName(), name)
	}
}

func TestDataset(t *testing.T) {
	rec := newRecording(t)
	// Not a repro run.
	rec.block.CreateTag("comment", "relacs.note", 3.0)

	ds, err := rlxnix.NewDataset(rec.file)
	require.NoError(t, err)

	runs := ds.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "BaselineActivity_1", runs[0].Name())
	assert.Equal(t, "SAM_1", runs[1].Name())

	// The registered plugin wraps baseline runs, other runs stay plain.
	assert.IsType(t, &baseline{}, runs[0])
	assert.IsType(t, &rlxnix.ReProRun{}, runs[1])
	assert.Equal(t, 2, runs[1].Repro().StimulusCount())
	assert.Equal(t, 0, runs[0].Repro().StimulusCount())

	run, err := ds.Run("SAM_1")
	require.NoError(t, err)
	assert.Same(t, runs[1], run)

	_, err = ds.Run("SAM_9")
	require.ErrorIs(t, err, rlxnix.ErrRunNotFound)

	assert.Len(t, ds.RunsOf("SAM"), 1)
	assert.Empty(t, ds.RunsOf("FICurve"))
	assert.Contains(t, rlxnix.Plugins(), "BaselineActivity")

	require.NoError(t, ds.Close())
	_, _, err = runs[1].Repro().TraceData(rlxnix.ByIndex(0), rlxnix.Zero)
	require.ErrorIs(t, err, nix.ErrFileClosed)
}

func TestDatasetPluginEnv(t *testing.T) {
	rec := newRecording(t)

	ds, err := rlxnix.NewDataset(rec.file)
	require.NoError(t, err)
	plain := ds.Runs()[0].(*baseline)
	assert.Nil(t, plain.env.Traces)
	assert.Nil(t, plain.env.Logger)

	names := traceNames{"efish/spikes": {"Spikes-1"}}
	logger := &log.Logger{Handler: memory.New(), Level: log.DebugLevel}
	ds, err = rlxnix.NewDataset(rec.file, rlxnix.WithTraceConfig(names), rlxnix.WithLogger(logger))
	require.NoError(t, err)
	run := ds.Runs()[0].(*baseline)
	require.NotNil(t, run.env.Traces)
	assert.Equal(t, []string{"Spikes-1"}, run.env.Traces.TraceConfiguration("efish", "spikes"))
	assert.Same(t, logger, run.env.Logger)
}

func TestDatasetErrors(t *testing.T) {
	_, err := rlxnix.NewDataset(nix.NewFile())
	require.ErrorIs(t, err, nix.ErrNotFound)

	rec := newRecording(t)
	_, err = rlxnix.NewDataset(rec.file, rlxnix.WithMappingVersion("2.0"))
	require.ErrorIs(t, err, rlxnix.ErrConfiguration)
}

func TestRegisterTwicePanics(t *testing.T) {
	assert.Panics(t, func() {
		rlxnix.Register("BaselineActivity", func(run *rlxnix.ReProRun, _ rlxnix.PluginEnv) (rlxnix.Run, error) { return run, nil })
	})
	assert.Panics(t, func() { rlxnix.Register("Nil", nil) })
}

func TestTypeMap(t *testing.T) {
	m := rlxnix.DefaultTypeMap()
	assert.Equal(t, rlxnix.KindContinuous, m.TraceKind(rlxnix.Version11, "relacs.data.sampled.V-1"))
	assert.Equal(t, rlxnix.KindEvent, m.TraceKind(rlxnix.Version11, "relacs.data.event.Spikes-1"))
	assert.Equal(t, rlxnix.KindContinuous, m.TraceKind(rlxnix.Version10, "nix.data.sampled.V-1"))

	merged := m.Merge(rlxnix.TypeMap{
		"2.0":            {rlxnix.KindContinuous: "rlx.sampled"},
		rlxnix.Version11: {rlxnix.KindContinuous: "relacs.sampled"},
	})
	assert.True(t, merged.Has("2.0"))
	assert.True(t, merged.Is(rlxnix.Version11, rlxnix.KindContinuous, "relacs.sampled.V-1"))
	assert.True(t, merged.Is(rlxnix.Version11, rlxnix.KindEvent, "relacs.data.event"))
	// The receiver is not modified.
	assert.False(t, m.Has("2.0"))

	k, err := rlxnix.ParseDataKind("repro_run")
	require.NoError(t, err)
	assert.Equal(t, rlxnix.KindReproRun, k)
	_, err = rlxnix.ParseDataKind("unknown")
	require.Error(t, err)
}
