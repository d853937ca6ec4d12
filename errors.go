// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package rlxnix

import "errors"

var (
	// ErrConfiguration reports misuse at construction time, such as a multi
	// tag passed without an index.
	ErrConfiguration = errors.New("configuration error")

	// ErrStimulusIndex is returned for stimulus indexes outside a repro run.
	ErrStimulusIndex = errors.New("stimulus index out of range")

	// ErrRunNotFound is returned when a dataset has no run of the given name.
	ErrRunNotFound = errors.New("repro run not found")
)
