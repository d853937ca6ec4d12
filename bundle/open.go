// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/OpenPSG/rlxnix/internal/edf"
	"github.com/OpenPSG/rlxnix/nix"
	"github.com/pelletier/go-toml/v2"
)

// ReadManifest decodes the manifest of the bundle in dir.
func ReadManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	return &m, nil
}

// Open loads the bundle in dir. Samples of EDF backed traces are read on
// demand; closing the returned file closes the EDF files.
func Open(dir string) (*nix.File, *Manifest, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}

	f := nix.NewFile()
	l := &loader{dir: dir, file: f, edfs: map[string]*edf.Reader{}}
	if err := l.load(m); err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, m, nil
}

type loader struct {
	dir  string
	file *nix.File
	edfs map[string]*edf.Reader
}

func (l *loader) load(m *Manifest) error {
	b := l.file.CreateBlock(m.Block.Name, m.Block.Type)
	if m.Block.Metadata != nil {
		s, err := section(m.Block.Name, m.Block.Type, m.Block.Metadata)
		if err != nil {
			return fmt.Errorf("block %q: %w", m.Block.Name, err)
		}
		b.AddSection(s)
	}

	arrays := map[string]*nix.DataArray{}
	for _, spec := range m.Traces {
		if _, ok := arrays[spec.Name]; ok {
			return fmt.Errorf("duplicate trace %q", spec.Name)
		}
		da, err := l.dataArray(b, spec)
		if err != nil {
			return fmt.Errorf("trace %q: %w", spec.Name, err)
		}
		arrays[spec.Name] = da
	}
	lookup := func(names []string) ([]*nix.DataArray, error) {
		out := make([]*nix.DataArray, 0, len(names))
		for _, name := range names {
			da, ok := arrays[name]
			if !ok {
				return nil, fmt.Errorf("trace %q: %w", name, nix.ErrNotFound)
			}
			out = append(out, da)
		}
		return out, nil
	}

	for _, spec := range m.Tags {
		t := b.CreateTag(spec.Name, spec.Type, spec.Position)
		if spec.Extent != nil {
			t.SetExtent(*spec.Extent)
		}
		if err := l.link(t, spec.Name, spec.Type, spec.References, spec.Features, spec.Metadata, lookup); err != nil {
			return fmt.Errorf("tag %q: %w", spec.Name, err)
		}
	}

	for _, spec := range m.MultiTags {
		mt := b.CreateMultiTag(spec.Name, spec.Type, spec.Positions)
		if spec.Extents != nil {
			if err := mt.SetExtents(spec.Extents); err != nil {
				return fmt.Errorf("multi tag %q: %w", spec.Name, err)
			}
		}
		if err := l.link(mt, spec.Name, spec.Type, spec.References, spec.Features, spec.Metadata, lookup); err != nil {
			return fmt.Errorf("multi tag %q: %w", spec.Name, err)
		}
	}
	return nil
}

// linkable is implemented by *nix.Tag and *nix.MultiTag.
type linkable interface {
	AddReference(da *nix.DataArray)
	AddFeature(da *nix.DataArray)
	SetMetadata(s *nix.Section)
}

func (l *loader) link(r linkable, name, typ string, refs, feats []string, md map[string]any,
	lookup func([]string) ([]*nix.DataArray, error)) error {
	references, err := lookup(refs)
	if err != nil {
		return fmt.Errorf("reference %w", err)
	}
	for _, da := range references {
		r.AddReference(da)
	}

	features, err := lookup(feats)
	if err != nil {
		return fmt.Errorf("feature %w", err)
	}
	for _, da := range features {
		r.AddFeature(da)
	}

	if md != nil {
		s, err := section(name, typ, md)
		if err != nil {
			return err
		}
		r.SetMetadata(s)
	}
	return nil
}

func (l *loader) dataArray(b *nix.Block, spec TraceSpec) (*nix.DataArray, error) {
	timeUnit := spec.TimeUnit
	if timeUnit == "" {
		timeUnit = "s"
	}
	if _, err := nix.UnitScale(timeUnit); err != nil {
		return nil, err
	}

	var (
		src  nix.Source
		dim  nix.Dimension
		unit = spec.Unit
	)
	switch {
	case spec.File != "":
		sr, err := l.signal(spec.File, spec.Signal)
		if err != nil {
			return nil, err
		}
		src = &edfSource{sr: sr}
		dim = nix.SampledDimension{Interval: sr.Interval(), Offset: spec.Offset, Unit: "s"}
		if unit == "" {
			unit = sr.Info().PhysicalDimension
		}
	case spec.Events || spec.Times != nil:
		if !sort.Float64sAreSorted(spec.Times) {
			return nil, fmt.Errorf("event times are not sorted")
		}
		times := spec.Times
		if times == nil {
			times = []float64{}
		}
		src = nix.Values(times)
		dim = nix.RangeDimension{Unit: timeUnit}
	case spec.Values != nil:
		src = nix.Values(spec.Values)
		if spec.SamplingInterval > 0 {
			dim = nix.SampledDimension{Interval: spec.SamplingInterval, Offset: spec.Offset, Unit: timeUnit}
		}
	default:
		return nil, fmt.Errorf("no file, times or values given")
	}

	da := b.CreateDataArray(spec.Name, spec.Type, src, dim)
	da.SetUnit(unit)
	return da, nil
}

// signal opens an EDF file of the bundle once and returns a reader for one of
// its signals.
func (l *loader) signal(file, label string) (*edf.SignalReader, error) {
	er, ok := l.edfs[file]
	if !ok {
		f, err := os.Open(filepath.Join(l.dir, file))
		if err != nil {
			return nil, fmt.Errorf("error opening EDF file: %w", err)
		}
		l.file.AddCloser(f)

		if er, err = edf.Open(f); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		l.edfs[file] = er
	}

	if label == "" {
		return er.Signal(0)
	}
	return er.SignalByLabel(label)
}

// edfSource adapts an EDF signal to nix.Source.
type edfSource struct {
	sr *edf.SignalReader
}

func (s *edfSource) Len() int { return s.sr.Len() }

func (s *edfSource) ReadAt(dst []float64, off int) (int, error) {
	if err := s.sr.Seek(off); err != nil {
		return 0, err
	}
	return s.sr.Read(dst)
}

// section converts a metadata table into a section tree. Keys are visited in
// sorted order.
func section(name, typ string, tree map[string]any) (*nix.Section, error) {
	s := nix.NewSection(name, typ)

	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table, ok := tree[k].(map[string]any)
		if !ok {
			s.AddProperty(k, "", propertyValues(tree[k])...)
			continue
		}
		if values, ok := table["values"]; ok {
			unit, isString := table["unit"].(string)
			if _, present := table["unit"]; present && !isString {
				return nil, fmt.Errorf("property %q: unit must be a string", k)
			}
			s.AddProperty(k, unit, propertyValues(values)...)
			continue
		}
		sub, err := section(k, "", table)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", k, err)
		}
		s.Sections = append(s.Sections, sub)
	}
	return s, nil
}

func propertyValues(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}
