// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config maps the signals plugins know about, such as "spikes" or
// "local eod", to the trace names different recording setups use for them.
//
// A default configuration is embedded. Local TOML files can override single
// signals and add type label conventions for further mapping versions:
//
//	[traces.efish]
//	"spikes" = ["Spikes-2"]
//
//	[type_map."1.2"]
//	continuous = "relacs.sampled"
//	event = "relacs.event"
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/OpenPSG/rlxnix"
	"github.com/pelletier/go-toml/v2"
)

//go:embed default_config.toml
var defaultConfig []byte

// Config holds trace name candidates and optional type label conventions.
type Config struct {
	Traces   map[string]map[string][]string `toml:"traces"`
	TypeMaps map[string]map[string]string   `toml:"type_map"`
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := Parse(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("config: embedded default is invalid: %v", err))
	}
	return cfg
}

// Parse decodes one TOML document.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}
	return &cfg, nil
}

// Load starts from the default configuration and merges the given files over
// it, later files taking precedence.
func Load(paths ...string) (*Config, error) {
	cfg := Default()
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading configuration: %w", err)
		}
		local, err := Parse(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.Merge(local)
	}
	return cfg, nil
}

// Merge lays other over c, replacing whole signal entries.
func (c *Config) Merge(other *Config) {
	if c.Traces == nil {
		c.Traces = map[string]map[string][]string{}
	}
	for set, signals := range other.Traces {
		if c.Traces[set] == nil {
			c.Traces[set] = map[string][]string{}
		}
		for signal, names := range signals {
			c.Traces[set][signal] = names
		}
	}
	if c.TypeMaps == nil {
		c.TypeMaps = map[string]map[string]string{}
	}
	for version, kinds := range other.TypeMaps {
		if c.TypeMaps[version] == nil {
			c.TypeMaps[version] = map[string]string{}
		}
		for kind, marker := range kinds {
			c.TypeMaps[version][kind] = marker
		}
	}
}

// TraceConfiguration returns the candidate trace names of a signal, nil if
// the plugin set or signal is unknown.
func (c *Config) TraceConfiguration(pluginset, signal string) []string {
	names := c.Traces[pluginset][signal]
	if names == nil {
		return nil
	}
	return append([]string(nil), names...)
}

// TypeMap returns the default mapping version table with the configured
// conventions laid over it.
func (c *Config) TypeMap() (rlxnix.TypeMap, error) {
	extra := rlxnix.TypeMap{}
	for version, kinds := range c.TypeMaps {
		m := map[rlxnix.DataKind]string{}
		for name, marker := range kinds {
			kind, err := rlxnix.ParseDataKind(name)
			if err != nil {
				return nil, fmt.Errorf("type_map %q: %w", version, err)
			}
			m[kind] = marker
		}
		extra[rlxnix.MappingVersion(version)] = m
	}
	return rlxnix.DefaultTypeMap().Merge(extra), nil
}
