// go-pn532-rhizome
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn532-rhizome.
//
// go-pn532-rhizome is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn532-rhizome is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn532-rhizome; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package polling

import (
	"errors"
	"fmt"
	"time"
)

// DetectionState is the state of the poll loop
type DetectionState int

const (
	// StateIdle means the loop is polling or waiting for the next poll
	StateIdle DetectionState = iota
	// StateTagDetected means the last poll returned a tag that is being reported
	StateTagDetected
	// StateRemovalPause means the loop is sleeping after a detection
	StateRemovalPause
)

// String returns the state name
func (s DetectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTagDetected:
		return "tag detected"
	case StateRemovalPause:
		return "removal pause"
	default:
		return fmt.Sprintf("DetectionState(%d)", int(s))
	}
}

// PollResult classifies a single poll cycle
type PollResult int

const (
	// ResultMiss means no tag answered within the poll timeout
	ResultMiss PollResult = iota
	// ResultHit means a tag was detected and reported
	ResultHit
	// ResultSuppressed means the same tag was seen again and not reported
	ResultSuppressed
	// ResultError means the driver failed; the cycle counts as a miss
	ResultError
)

// String returns the result name used in logs and metric labels
func (r PollResult) String() string {
	switch r {
	case ResultMiss:
		return "miss"
	case ResultHit:
		return "hit"
	case ResultSuppressed:
		return "suppressed"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("PollResult(%d)", int(r))
	}
}

// CardState tracks what the poll loop has seen so far
type CardState struct {
	LastSeenTime   time.Time
	LastUID        string
	Detections     uint64
	Misses         uint64
	Errors         uint64
	DetectionState DetectionState
	Present        bool
}

// ErrNoTagInPoll indicates no tag was detected during polling (not an error condition)
var ErrNoTagInPoll = errors.New("no tag detected in polling cycle")

// TransitionToDetected records a reported tag
func (cs *CardState) TransitionToDetected(uid string, now time.Time) {
	cs.DetectionState = StateTagDetected
	cs.Present = true
	cs.LastUID = uid
	cs.LastSeenTime = now
	cs.Detections++
}

// TransitionToRemovalPause marks the start of the post-detection pause
func (cs *CardState) TransitionToRemovalPause() {
	cs.DetectionState = StateRemovalPause
}

// TransitionToIdle returns to polling. The last UID is kept for repeat suppression.
func (cs *CardState) TransitionToIdle() {
	cs.DetectionState = StateIdle
}

// RecordMiss clears presence after an empty poll
func (cs *CardState) RecordMiss() {
	cs.DetectionState = StateIdle
	cs.Present = false
	cs.Misses++
}

// RecordError counts a failed poll; presence is cleared like a miss
func (cs *CardState) RecordError() {
	cs.DetectionState = StateIdle
	cs.Present = false
	cs.Errors++
}

// SeenAgain reports whether uid is the tag that was present at the previous poll
func (cs CardState) SeenAgain(uid string) bool {
	return cs.Present && cs.LastUID == uid
}
