// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package rlxnix reads relacs recordings stored in the NIX data model.
//
// A TraceContainer wraps one region of a recording, either a repro run tag or
// one stimulus presentation of a multi tag, and reads the slices of the traces
// it references. Continuous traces come with a reconstructed time axis, event
// traces are returned as times relative to the region start.
//
// A Dataset groups the repro runs of a file. Repro-specific behaviour is
// added by plugins registered with Register, see the plugins/efish package.
package rlxnix
