// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package efish_test

import (
	"testing"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/config"
	"github.com/OpenPSG/rlxnix/nix"
	"github.com/OpenPSG/rlxnix/plugins/efish"
	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSamRecording builds a 10 s recording with a SAM run from 2 s to 6 s and
// two stimulus presentations at 2.5 s and 4 s, 1 s each.
func newSamRecording(t *testing.T) *nix.File {
	t.Helper()

	f := nix.NewFile()
	t.Cleanup(func() { require.NoError(t, f.Close()) })
	b := f.CreateBlock("2021-08-02-ab", "relacs.session")

	sampled := func(name string, scale float64) *nix.DataArray {
		v := make(nix.Values, 10000)
		for i := range v {
			v[i] = float64(i) * scale
		}
		return b.CreateDataArray(name, "relacs.data.sampled."+name, v, nix.SampledDimension{Interval: 0.001, Unit: "s"})
	}
	voltage := sampled("V-1", 1)
	localEOD := sampled("LocalEOD-1", 0.1)
	globalEOD := sampled("EOD", 0.01)
	stimulus := sampled("GlobalEFieldStimulus", -1)
	spikes := b.CreateDataArray("Spikes-1", "relacs.data.event.Spikes-1", nix.Values{1.0, 2.1, 2.6, 3.0, 4.2, 5.9, 7.0}, nix.RangeDimension{Unit: "s"})
	eodTimes := b.CreateDataArray("EOD_events", "relacs.data.event.EOD_events", nix.Values{2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0}, nix.RangeDimension{Unit: "s"})

	md := nix.NewSection("SAM_1", "relacs.repro")
	settings := md.AddSection("RePro-Info", "relacs.repro").AddSection("settings", "relacs.settings")
	settings.AddProperty("pause", "s", 0.5)
	settings.AddProperty("amplitude", "%", 20.0)
	settings.AddProperty("phase", "rad", 1.5708)
	settings.AddProperty("sinewave", "", true)
	settings.AddProperty("am", "", false)

	run := b.CreateTag("SAM_1", "relacs.repro_run", 2.0)
	run.SetExtent(4.0)
	run.SetMetadata(md)
	stim := b.CreateMultiTag("SAM_1-stimuli", "relacs.stimulus", []float64{2.5, 4.0})
	require.NoError(t, stim.SetExtents([]float64{1.0, 1.0}))
	stimMD := nix.NewSection("stimuli", "relacs.stimulus")
	stimMD.AddSection("SAM_1-stimuli", "relacs.stimulus").AddProperty("DeltaF", "Hz", int64(20))
	stim.SetMetadata(stimMD)
	stim.AddFeature(b.CreateDataArray("SAM_1-stimuli_DeltaF", "relacs.feature", nix.Values{20, -20}, nil))

	for _, da := range []*nix.DataArray{voltage, localEOD, globalEOD, stimulus, spikes, eodTimes} {
		run.AddReference(da)
		stim.AddReference(da)
	}
	return f
}

func samRun(t *testing.T, opts ...efish.Option) (*efish.Sam, *memory.Handler) {
	t.Helper()

	f := newSamRecording(t)
	b := f.Blocks()[0]
	run, err := rlxnix.NewReProRun(b.Tags()[0], b.MultiTags(), b.DataArrays())
	require.NoError(t, err)

	handler := memory.New()
	logger := &log.Logger{Handler: handler, Level: log.DebugLevel}
	return efish.NewSam(run, append([]efish.Option{efish.WithLogger(logger)}, opts...)...), handler
}

func TestSignalTraces(t *testing.T) {
	sam, _ := samRun(t)

	for signal, want := range map[string]string{
		efish.SignalSpikes:          "Spikes-1",
		efish.SignalMembraneVoltage: "V-1",
		efish.SignalLocalEOD:        "LocalEOD-1",
		efish.SignalGlobalEOD:       "EOD",
		efish.SignalEODTimes:        "EOD_events",
		efish.SignalStimulus:        "GlobalEFieldStimulus",
	} {
		got, ok := sam.SignalTrace(signal)
		assert.True(t, ok, signal)
		assert.Equal(t, want, got, signal)
	}
}

func TestSpikes(t *testing.T) {
	sam, handler := samRun(t)

	spikes, err := sam.Spikes()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.6, 1.0, 2.2, 3.9}, spikes, 1e-12)

	// Cached copies are handed out.
	spikes[0] = 100
	again, err := sam.Spikes()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, again[0], 1e-12)

	// Relative to the stimulus onset.
	spikes, err = sam.Spikes(efish.Stimulus(1))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2}, spikes, 1e-12)

	_, err = sam.Spikes(efish.Stimulus(2))
	require.ErrorIs(t, err, rlxnix.ErrStimulusIndex)

	assert.Empty(t, handler.Entries)
}

func TestContinuousSignals(t *testing.T) {
	sam, _ := samRun(t)

	v, time, err := sam.MembraneVoltage()
	require.NoError(t, err)
	require.Len(t, v, 4000)
	require.Len(t, time, 4000)
	assert.Equal(t, 2000.0, v[0])
	assert.InDelta(t, 0.0, time[0], 1e-12)

	v, time, err = sam.MembraneVoltage(efish.Stimulus(0), efish.Reference(rlxnix.ReproStart))
	require.NoError(t, err)
	require.Len(t, v, 1000)
	assert.Equal(t, 2500.0, v[0])
	assert.InDelta(t, 2.5, time[0], 1e-12)

	local, _, err := sam.LocalEOD(efish.Stimulus(1))
	require.NoError(t, err)
	assert.InDelta(t, 400.0, local[0], 1e-9)

	global, _, err := sam.EOD()
	require.NoError(t, err)
	assert.InDelta(t, 20.0, global[0], 1e-9)

	stim, _, err := sam.StimulusOutput()
	require.NoError(t, err)
	assert.Equal(t, -2000.0, stim[0])

	eod, err := sam.EODTimes(efish.Stimulus(0))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5}, eod, 1e-12)
}

func TestMissingTraceWarns(t *testing.T) {
	cfg := config.Default()
	cfg.Merge(&config.Config{Traces: map[string]map[string][]string{
		efish.PluginSet: {efish.SignalSpikes: {"Spikes-7"}},
	}})
	sam, handler := samRun(t, efish.WithConfig(cfg))

	_, ok := sam.SignalTrace(efish.SignalSpikes)
	assert.False(t, ok)

	_, err := sam.Spikes()
	require.ErrorIs(t, err, efish.ErrNoTrace)
	require.Len(t, handler.Entries, 1)
	assert.Equal(t, log.WarnLevel, handler.Entries[0].Level)
	assert.Equal(t, efish.SignalSpikes, handler.Entries[0].Fields["signal"])
	assert.Equal(t, "SAM_1", handler.Entries[0].Fields["run"])

	// An explicit trace of the wrong kind is rejected as well.
	_, _, err = sam.MembraneVoltage(efish.Trace("Spikes-1"))
	require.ErrorIs(t, err, efish.ErrNoTrace)
	require.Len(t, handler.Entries, 2)

	spikes, err := sam.Spikes(efish.Trace("Spikes-1"))
	require.NoError(t, err)
	assert.Len(t, spikes, 5)
}

func TestSamSettings(t *testing.T) {
	sam, _ := samRun(t)

	dfs, err := sam.DeltaFs()
	require.NoError(t, err)
	assert.Equal(t, []float64{20, -20}, dfs)

	pause, err := sam.Pause()
	require.NoError(t, err)
	assert.Equal(t, 0.5, pause)

	contrast, unit, err := sam.Contrast()
	require.NoError(t, err)
	assert.Equal(t, 20.0, contrast)
	assert.Equal(t, "%", unit)

	phase, err := sam.Phase()
	require.NoError(t, err)
	assert.InDelta(t, 1.5708, phase, 1e-12)

	sine, err := sam.IsSinewave()
	require.NoError(t, err)
	assert.True(t, sine)

	am, err := sam.IsAmplitudeModulation()
	require.NoError(t, err)
	assert.False(t, am)
}

func TestSamMissingSettings(t *testing.T) {
	f := nix.NewFile()
	t.Cleanup(func() { require.NoError(t, f.Close()) })
	b := f.CreateBlock("bare", "relacs.session")
	tag := b.CreateTag("SAM_2", "relacs.repro_run", 0)
	tag.SetExtent(1)
	stim := b.CreateMultiTag("SAM_2-stimuli", "relacs.stimulus", []float64{0.5})

	run, err := rlxnix.NewReProRun(tag, []*nix.MultiTag{stim}, nil)
	require.NoError(t, err)
	sam := efish.NewSam(run)

	_, err = sam.Pause()
	require.ErrorIs(t, err, nix.ErrNotFound)
	_, err = sam.DeltaFs()
	require.ErrorIs(t, err, nix.ErrNotFound)

	// A feature shorter than the positions.
	stim.AddFeature(b.CreateDataArray("SAM_2-stimuli_DeltaF", "relacs.feature", nix.Values{}, nil))
	_, err = sam.DeltaFs()
	require.ErrorIs(t, err, nix.ErrNotFound)
}

func TestSamDeltaFFromMetadata(t *testing.T) {
	f := nix.NewFile()
	t.Cleanup(func() { require.NoError(t, f.Close()) })
	b := f.CreateBlock("bare", "relacs.session")
	tag := b.CreateTag("SAM_3", "relacs.repro_run", 0)
	tag.SetExtent(2)
	stim := b.CreateMultiTag("SAM_3-stimuli", "relacs.stimulus", []float64{0.5, 1.5})
	md := nix.NewSection("stimuli", "relacs.stimulus")
	md.AddSection("SAM_3-stimuli", "relacs.stimulus").AddProperty("DeltaF", "Hz", -50.0)
	stim.SetMetadata(md)

	run, err := rlxnix.NewReProRun(tag, []*nix.MultiTag{stim}, nil)
	require.NoError(t, err)

	dfs, err := efish.NewSam(run).DeltaFs()
	require.NoError(t, err)
	assert.Equal(t, []float64{-50, -50}, dfs)
}

func TestSamIsRegistered(t *testing.T) {
	f := newSamRecording(t)

	ds, err := rlxnix.NewDataset(f)
	require.NoError(t, err)

	runs := ds.RunsOf(efish.SamRepro)
	require.Len(t, runs, 1)
	sam, ok := runs[0].(*efish.Sam)
	require.True(t, ok)
	assert.Equal(t, 2, sam.StimulusCount())
}

func TestSamFromDatasetUsesConfig(t *testing.T) {
	f := newSamRecording(t)
	cfg := config.Default()
	cfg.Merge(&config.Config{Traces: map[string]map[string][]string{
		efish.PluginSet: {efish.SignalSpikes: {"Spikes-7"}},
	}})
	handler := memory.New()
	logger := &log.Logger{Handler: handler, Level: log.DebugLevel}

	ds, err := rlxnix.NewDataset(f, rlxnix.WithTraceConfig(cfg), rlxnix.WithLogger(logger))
	require.NoError(t, err)
	sam, ok := ds.RunsOf(efish.SamRepro)[0].(*efish.Sam)
	require.True(t, ok)

	_, ok = sam.SignalTrace(efish.SignalSpikes)
	assert.False(t, ok)
	_, err = sam.Spikes()
	require.ErrorIs(t, err, efish.ErrNoTrace)
	require.Len(t, handler.Entries, 1)
	assert.Equal(t, efish.SignalSpikes, handler.Entries[0].Fields["signal"])
}
