// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package nix models the parts of the NIX data model that relacs recordings
// use: blocks of typed data arrays with a time dimension, tags and multi tags
// that mark regions of those arrays, and odML-style metadata sections.
//
// A File must stay open for as long as any entity created from it is used.
// Once it is closed, every read returns ErrFileClosed.
package nix
