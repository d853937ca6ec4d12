// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, []string{"Spikes-1", "spikes-1", "Spikes"}, cfg.TraceConfiguration("efish", "spikes"))
	assert.Equal(t, []string{"V-1", "V"}, cfg.TraceConfiguration("efish", "membrane voltage"))
	assert.Nil(t, cfg.TraceConfiguration("efish", "calcium"))
	assert.Nil(t, cfg.TraceConfiguration("auditory", "spikes"))

	for _, signal := range []string{"spikes", "membrane voltage", "local eod", "global eod", "eod times", "stimulus"} {
		assert.NotEmpty(t, cfg.TraceConfiguration("efish", signal), signal)
	}

	m, err := cfg.TypeMap()
	require.NoError(t, err)
	assert.Equal(t, rlxnix.DefaultTypeMap(), m)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "rlxnix.toml")
	require.NoError(t, os.WriteFile(local, []byte(`
[traces.efish]
"spikes" = ["Spikes-2"]

[traces.auditory]
"spikes" = ["Spikes-1"]

[type_map."1.2"]
continuous = "relacs.sampled"
event = "relacs.event"
`), 0o644))

	cfg, err := config.Load(local)
	require.NoError(t, err)

	assert.Equal(t, []string{"Spikes-2"}, cfg.TraceConfiguration("efish", "spikes"))
	assert.Equal(t, []string{"V-1", "V"}, cfg.TraceConfiguration("efish", "membrane voltage"))
	assert.Equal(t, []string{"Spikes-1"}, cfg.TraceConfiguration("auditory", "spikes"))

	m, err := cfg.TypeMap()
	require.NoError(t, err)
	assert.True(t, m.Has(rlxnix.Version11))
	assert.Equal(t, rlxnix.KindContinuous, m.TraceKind("1.2", "relacs.sampled.V-1"))
	assert.Equal(t, rlxnix.KindEvent, m.TraceKind("1.2", "relacs.event.Spikes-1"))
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[traces.efish\n"), 0o644))
	_, err = config.Load(bad)
	require.Error(t, err)

	unknown := filepath.Join(t.TempDir(), "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[type_map.\"1.2\"]\nsampled = \"x\"\n"), 0o644))
	cfg, err := config.Load(unknown)
	require.NoError(t, err)
	_, err = cfg.TypeMap()
	require.Error(t, err)
}

func TestTraceConfigurationReturnsCopy(t *testing.T) {
	cfg := config.Default()
	names := cfg.TraceConfiguration("efish", "spikes")
	names[0] = "changed"
	assert.Equal(t, "Spikes-1", cfg.TraceConfiguration("efish", "spikes")[0])
}
