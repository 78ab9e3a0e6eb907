// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes word-level diffs between a learner's sentence and its
// corrected form.
//
// # Key Types
//
//   - SegmentType: context, added or removed
//   - Segment: a run of text with Added/Removed flags
//   - Stats: counts of inserted and deleted words
//
// # Usage
//
//	segs := diff.Words("I has a apple", "I have an apple")
//	fmt.Println(diff.Plain(segs)) // I [-has-]{+have+} [-a-]{+an+} apple
//
// Segments satisfy a reconstruction invariant: Corrected(segs) and
// Original(segs) return the two inputs exactly.
package diff
