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
	"fmt"
	"io"

	"github.com/OpenPSG/rlxnix"
	"github.com/OpenPSG/rlxnix/bundle"
	"github.com/OpenPSG/rlxnix/config"
	"github.com/apex/log"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type rootConfig struct {
	stdout io.Writer
	stderr io.Writer

	logLevel       string
	configFiles    []string
	mappingVersion string

	logger log.Interface
}

func (cfg *rootConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'l',
		LongName:    "log",
		Value:       ffval.NewEnum(&cfg.logLevel, "warn", "debug", "info", "error", "fatal"),
		Usage:       "log level: debug, info, warn, error, fatal",
		Placeholder: "LEVEL",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'c',
		LongName:    "config",
		Value:       ffval.NewUniqueList(&cfg.configFiles),
		Usage:       "trace configuration file laid over the default (repeatable)",
		Placeholder: "FILE",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "mapping-version",
		Value:       ffval.NewValue(&cfg.mappingVersion),
		Usage:       "type label convention, overrides the bundle's",
		Placeholder: "VERSION",
	})
}

// recording is an opened bundle with its runs.
type recording struct {
	*rlxnix.Dataset
	config *config.Config
}

func (cfg *rootConfig) open(dir string) (*recording, error) {
	c, err := config.Load(cfg.configFiles...)
	if err != nil {
		return nil, err
	}
	typeMap, err := c.TypeMap()
	if err != nil {
		return nil, err
	}

	f, m, err := bundle.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}

	version := rlxnix.DefaultMappingVersion
	switch {
	case cfg.mappingVersion != "":
		version = rlxnix.MappingVersion(cfg.mappingVersion)
	case m.MappingVersion != "":
		version = rlxnix.MappingVersion(m.MappingVersion)
	}
	cfg.logger.WithFields(log.Fields{
		"bundle":          dir,
		"block":           m.Block.Name,
		"mapping_version": version,
	}).Debug("opened recording")

	ds, err := rlxnix.NewDataset(f,
		rlxnix.WithMappingVersion(version),
		rlxnix.WithTypeMap(typeMap),
		rlxnix.WithTraceConfig(c),
		rlxnix.WithLogger(cfg.logger),
	)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &recording{Dataset: ds, config: c}, nil
}

// openRun opens the bundle and looks up one run. The caller closes the recording.
func (cfg *rootConfig) openRun(dir, name string) (*recording, rlxnix.Run, error) {
	rec, err := cfg.open(dir)
	if err != nil {
		return nil, nil, err
	}
	run, err := rec.Run(name)
	if err != nil {
		_ = rec.Close()
		return nil, nil, err
	}
	return rec, run, nil
}

func wantArgs(args []string, names ...string) error {
	if len(args) != len(names) {
		return fmt.Errorf("expected arguments %v, got %d", names, len(args))
	}
	return nil
}
