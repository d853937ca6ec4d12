// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rlxnix

import (
	"fmt"
	"strings"
)

// DataKind classifies data arrays and tags by their type label.
type DataKind int

const (
	KindUnknown DataKind = iota
	KindContinuous
	KindEvent
	KindReproRun
	KindStimulus
)

var kindNames = map[DataKind]string{
	KindUnknown:    "unknown",
	KindContinuous: "continuous",
	KindEvent:      "event",
	KindReproRun:   "repro_run",
	KindStimulus:   "stimulus",
}

func (k DataKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DataKind(%d)", int(k))
}

// ParseDataKind is the inverse of DataKind.String.
func ParseDataKind(s string) (DataKind, error) {
	for k, name := range kindNames {
		if name == s && k != KindUnknown {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown data kind %q", s)
}

// MappingVersion selects the type label convention of a relacs generation.
type MappingVersion string

const (
	Version10 MappingVersion = "1.0"
	Version11 MappingVersion = "1.1"

	DefaultMappingVersion = Version11
)

// TypeMap maps each mapping version to the type label markers of its kinds.
type TypeMap map[MappingVersion]map[DataKind]string

// DefaultTypeMap returns the conventions of the known relacs versions.
func DefaultTypeMap() TypeMap {
	return TypeMap{
		Version10: {
			KindContinuous: "nix.data.sampled",
			KindEvent:      "nix.data.events",
			KindReproRun:   "nix.repro_run",
			KindStimulus:   "nix.stimulus",
		},
		Version11: {
			KindContinuous: "relacs.data.sampled",
			KindEvent:      "relacs.data.event",
			KindReproRun:   "relacs.repro_run",
			KindStimulus:   "relacs.stimulus",
		},
	}
}

// Marker returns the label marker of kind under version v.
func (m TypeMap) Marker(v MappingVersion, kind DataKind) (string, bool) {
	s, ok := m[v][kind]
	return s, ok && s != ""
}

// Has reports whether v is a known version.
func (m TypeMap) Has(v MappingVersion) bool {
	_, ok := m[v]
	return ok
}

// Is reports whether the type label carries the marker of kind under version v.
func (m TypeMap) Is(v MappingVersion, kind DataKind, typ string) bool {
	marker, ok := m.Marker(v, kind)
	return ok && strings.Contains(typ, marker)
}

// TraceKind classifies a trace type label: continuous if it carries the
// continuous marker of version v, event otherwise.
func (m TypeMap) TraceKind(v MappingVersion, typ string) DataKind {
	if m.Is(v, KindContinuous, typ) {
		return KindContinuous
	}
	return KindEvent
}

// Merge returns a copy of m with the entries of other laid over it.
func (m TypeMap) Merge(other TypeMap) TypeMap {
	out := make(TypeMap, len(m)+len(other))
	for _, src := range []TypeMap{m, other} {
		for v, kinds := range src {
			if out[v] == nil {
				out[v] = map[DataKind]string{}
			}
			for k, s := range kinds {
				out[v][k] = s
			}
		}
	}
	return out
}
