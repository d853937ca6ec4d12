// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package efish

import (
	"fmt"
	"strings"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/nix"
)

// SamRepro is the name of the sinusoidal amplitude modulation repro.
const SamRepro = "SAM"

func init() {
	rlxnix.Register(SamRepro, func(run *rlxnix.ReProRun, env rlxnix.PluginEnv) (rlxnix.Run, error) {
		return NewSam(run, pluginOptions(env)...), nil
	})
}

// Sam is a run of the SAM repro: a beat stimulus at a difference frequency
// to the fish's own EOD.
type Sam struct {
	*EfishEphys
}

// NewSam wraps a SAM run.
func NewSam(run *rlxnix.ReProRun, opts ...Option) *Sam {
	return &Sam{EfishEphys: New(run, opts...)}
}

// DeltaFs returns the difference frequency of each stimulus presentation in
// Hz. Presentations store theirs in the DeltaF feature of the stimulus multi
// tag, one value per position; without that feature the value of the
// stimulus metadata applies to all of them.
func (s *Sam) DeltaFs() ([]float64, error) {
	dfs := make([]float64, 0, s.StimulusCount())
	for i, stim := range s.Stimuli() {
		df, err := deltaF(stim)
		if err != nil {
			return nil, fmt.Errorf("stimulus %d: %w", i, err)
		}
		dfs = append(dfs, df)
	}
	return dfs, nil
}

func deltaF(stim *rlxnix.TraceContainer) (float64, error) {
	for _, f := range stim.Features() {
		if !strings.HasSuffix(f.Name, "DeltaF") {
			continue
		}
		values, err := stim.FeatureData(rlxnix.ByIndex(f.Index))
		if err != nil {
			return 0, err
		}
		if stim.Index() >= len(values) {
			return 0, fmt.Errorf("feature %q has no value at position %d: %w", f.Name, stim.Index(), nix.ErrNotFound)
		}
		return values[stim.Index()], nil
	}

	p, err := stim.Metadata().Lookup(stim.Name(), "DeltaF")
	if err != nil {
		return 0, err
	}
	return p.Float(0)
}

// Pause returns the pause between stimuli in seconds.
func (s *Sam) Pause() (float64, error) {
	p, err := s.setting("pause")
	if err != nil {
		return 0, err
	}
	return p.Float(0)
}

// Contrast returns the stimulus amplitude relative to the EOD amplitude and its unit.
func (s *Sam) Contrast() (float64, string, error) {
	p, err := s.setting("amplitude")
	if err != nil {
		return 0, "", err
	}
	a, err := p.Float(0)
	if err != nil {
		return 0, "", err
	}
	return a, p.Unit, nil
}

// Phase returns the phase the stimulus starts with, in radians.
func (s *Sam) Phase() (float64, error) {
	p, err := s.setting("phase")
	if err != nil {
		return 0, err
	}
	return p.Float(0)
}

// IsSinewave reports whether the stimulus is a sine wave.
func (s *Sam) IsSinewave() (bool, error) {
	p, err := s.setting("sinewave")
	if err != nil {
		return false, err
	}
	return p.Bool(0)
}

// IsAmplitudeModulation reports whether the stimulus is an amplitude
// modulation rather than a direct stimulus.
func (s *Sam) IsAmplitudeModulation() (bool, error) {
	p, err := s.setting("am")
	if err != nil {
		return false, err
	}
	return p.Bool(0)
}

func (s *Sam) setting(name string) (*nix.Property, error) {
	p, err := s.Metadata().Lookup("RePro-Info", "settings", name)
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", s.Name(), err)
	}
	return p, nil
}
