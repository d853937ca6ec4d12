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
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotFound is returned when a named or indexed entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFileClosed is returned by every read after the file has been closed.
	ErrFileClosed = errors.New("file is closed")
)

// File is an open recording. Every entity created from a file refers back to
// it and stops working once the file is closed.
type File struct {
	blocks  []*Block
	closers []io.Closer
	closed  bool
}

// NewFile creates an empty, open file.
func NewFile() *File {
	return &File{}
}

// IsOpen reports whether the file can still be read.
func (f *File) IsOpen() bool {
	return !f.closed
}

// AddCloser registers a resource that is released when the file is closed.
func (f *File) AddCloser(c io.Closer) {
	f.closers = append(f.closers, c)
}

// Close invalidates the file and releases its resources. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}

func (f *File) check() error {
	if f == nil || f.closed {
		return ErrFileClosed
	}
	return nil
}

// CreateBlock appends a new block to the file.
func (f *File) CreateBlock(name, typ string) *Block {
	b := &Block{file: f, name: name, typ: typ}
	f.blocks = append(f.blocks, b)
	return b
}

// Blocks returns the blocks of the file in creation order.
func (f *File) Blocks() []*Block {
	return append([]*Block(nil), f.blocks...)
}

// Block returns the block with the given name.
func (f *File) Block(name string) (*Block, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	for _, b := range f.blocks {
		if b.name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("block %q: %w", name, ErrNotFound)
}

// Block groups the data arrays, tags and metadata of one recording session.
type Block struct {
	file       *File
	name, typ  string
	dataArrays []*DataArray
	tags       []*Tag
	multiTags  []*MultiTag
	sections   []*Section
}

func (b *Block) Name() string { return b.name }
func (b *Block) Type() string { return b.typ }

// File returns the file the block belongs to.
func (b *Block) File() *File { return b.file }

// CreateDataArray adds a trace backed by src to the block. dim may be nil for
// arrays that are only used as features.
func (b *Block) CreateDataArray(name, typ string, src Source, dim Dimension) *DataArray {
	da := &DataArray{file: b.file, name: name, typ: typ, source: src, dimension: dim}
	b.dataArrays = append(b.dataArrays, da)
	return da
}

// CreateTag adds a singular region starting at position seconds.
func (b *Block) CreateTag(name, typ string, position float64) *Tag {
	t := &Tag{region: region{file: b.file, name: name, typ: typ}, position: position}
	b.tags = append(b.tags, t)
	return t
}

// CreateMultiTag adds an indexed sequence of regions starting at positions.
func (b *Block) CreateMultiTag(name, typ string, positions []float64) *MultiTag {
	mt := &MultiTag{
		region:    region{file: b.file, name: name, typ: typ},
		positions: append([]float64(nil), positions...),
	}
	b.multiTags = append(b.multiTags, mt)
	return mt
}

// AddSection attaches a metadata tree to the block.
func (b *Block) AddSection(s *Section) {
	b.sections = append(b.sections, s)
}

func (b *Block) DataArrays() []*DataArray { return append([]*DataArray(nil), b.dataArrays...) }
func (b *Block) Tags() []*Tag             { return append([]*Tag(nil), b.tags...) }
func (b *Block) MultiTags() []*MultiTag   { return append([]*MultiTag(nil), b.multiTags...) }
func (b *Block) Sections() []*Section     { return append([]*Section(nil), b.sections...) }

// DataArray returns the data array with the given name.
func (b *Block) DataArray(name string) (*DataArray, error) {
	if err := b.file.check(); err != nil {
		return nil, err
	}
	for _, da := range b.dataArrays {
		if da.name == name {
			return da, nil
		}
	}
	return nil, fmt.Errorf("data array %q in block %q: %w", name, b.name, ErrNotFound)
}
