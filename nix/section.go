// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package nix

import (
	"fmt"
	"strings"
)

// Section is a node of the metadata tree attached to blocks and regions.
type Section struct {
	Name       string
	Type       string
	Properties []*Property
	Sections   []*Section
}

// Property is a named list of values with an optional unit.
type Property struct {
	Name   string
	Values []any
	Unit   string
}

// NewSection creates an empty section.
func NewSection(name, typ string) *Section {
	return &Section{Name: name, Type: typ}
}

// AddSection appends and returns a new subsection.
func (s *Section) AddSection(name, typ string) *Section {
	sub := NewSection(name, typ)
	s.Sections = append(s.Sections, sub)
	return sub
}

// AddProperty appends and returns a new property.
func (s *Section) AddProperty(name, unit string, values ...any) *Property {
	p := &Property{Name: name, Unit: unit, Values: values}
	s.Properties = append(s.Properties, p)
	return p
}

// Section returns the direct subsection with the given name, or nil.
func (s *Section) Section(name string) *Section {
	for _, sub := range s.Sections {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// Property returns the property with the given name, or nil.
func (s *Section) Property(name string) *Property {
	for _, p := range s.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Lookup walks path through subsections; the last element names a property.
func (s *Section) Lookup(path ...string) (*Property, error) {
	if s == nil {
		return nil, fmt.Errorf("metadata %q: no section: %w", strings.Join(path, "/"), ErrNotFound)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("metadata lookup in %q: empty path", s.Name)
	}
	cur := s
	for i, name := range path[:len(path)-1] {
		if cur = cur.Section(name); cur == nil {
			return nil, fmt.Errorf("metadata section %q: %w", strings.Join(path[:i+1], "/"), ErrNotFound)
		}
	}
	p := cur.Property(path[len(path)-1])
	if p == nil {
		return nil, fmt.Errorf("metadata property %q: %w", strings.Join(path, "/"), ErrNotFound)
	}
	return p, nil
}

func (p *Property) value(i int) (any, error) {
	if i < 0 || i >= len(p.Values) {
		return nil, fmt.Errorf("property %q value %d (have %d): %w", p.Name, i, len(p.Values), ErrNotFound)
	}
	return p.Values[i], nil
}

// Float returns value i as a float64. Integer values are converted.
func (p *Property) Float(i int) (float64, error) {
	v, err := p.value(i)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("property %q value %d is %T, not a number", p.Name, i, v)
}

// Bool returns value i as a bool.
func (p *Property) Bool(i int) (bool, error) {
	v, err := p.value(i)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("property %q value %d is %T, not a bool", p.Name, i, v)
	}
	return b, nil
}

// String returns value i as a string.
func (p *Property) String(i int) (string, error) {
	v, err := p.value(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("property %q value %d is %T, not a string", p.Name, i, v)
	}
	return s, nil
}
