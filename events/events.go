// Copyright 2025 BINARY Members
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events defines the tagged-union records exchanged between
// the three pipeline stages, plus the narrow Client interface the
// network front-end implements. Both RequestEvent and PersistEvent are
// designed to live inside a ring buffer's preallocated slot array and
// be mutated in place by producers, never individually heap-allocated
// on the hot path.
package events

// Client is the opaque handle the network front-end gives the core for
// a connection. The persistence processor calls SendReply once its
// durability barrier has passed; a client whose channel has since
// closed silently drops the reply (§7).
type Client interface {
	SendReply(msg any)
}

// RequestKind tags which arm of RequestEvent is populated.
type RequestKind uint8

const (
	RequestTimestamp RequestKind = iota + 1
	RequestCommit
)

// _inlineRows bounds the common case write-set size that fits in a
// RequestEvent slot without a spillover allocation.
const _inlineRows = 40

// RequestEvent is a slot in the request ring. The commit arm's
// write-set lives in InlineRows[:InlineLen] plus, only when a commit
// writes more than _inlineRows rows, Spillover for the remainder.
type RequestEvent struct {
	Kind    RequestKind
	Client  Client
	StartTs uint64
	IsRetry bool

	InlineRows [_inlineRows]uint64
	InlineLen  int
	Spillover  []uint64
}

// Reset clears the slot for reuse by a new producer claim. Spillover's
// backing array is dropped rather than kept, since spillover is the
// uncommon case and retaining a large backing array across unrelated
// requests would waste memory for no benefit.
func (e *RequestEvent) Reset() {
	e.Kind = 0
	e.Client = nil
	e.StartTs = 0
	e.IsRetry = false
	e.InlineLen = 0
	e.Spillover = nil
}

// AppendRow adds one row fingerprint to the commit write-set, spilling
// into Spillover once InlineRows is exhausted.
func (e *RequestEvent) AppendRow(row uint64) {
	if e.InlineLen < _inlineRows {
		e.InlineRows[e.InlineLen] = row
		e.InlineLen++
		return
	}
	e.Spillover = append(e.Spillover, row)
}

// RowCount returns the total number of rows in the write-set.
func (e *RequestEvent) RowCount() int {
	return e.InlineLen + len(e.Spillover)
}

// Row returns the i-th row fingerprint, 0 <= i < RowCount().
func (e *RequestEvent) Row(i int) uint64 {
	if i < e.InlineLen {
		return e.InlineRows[i]
	}
	return e.Spillover[i-e.InlineLen]
}

// PersistKind tags which arm of PersistEvent is populated.
type PersistKind uint8

const (
	PersistTimestamp PersistKind = iota + 1
	PersistCommit
	PersistAbort
	PersistLowWatermark
)

// PersistEvent is a slot in the persistence ring.
type PersistEvent struct {
	Kind   PersistKind
	Client Client // nil for PersistLowWatermark

	Ts       uint64 // PersistTimestamp
	StartTs  uint64 // PersistCommit, PersistAbort
	CommitTs uint64 // PersistCommit
	IsRetry  bool   // PersistAbort
	LW       uint64 // PersistLowWatermark
}

// Reset clears the slot for reuse.
func (e *PersistEvent) Reset() {
	e.Kind = 0
	e.Client = nil
	e.Ts = 0
	e.StartTs = 0
	e.CommitTs = 0
	e.IsRetry = false
	e.LW = 0
}

// TimestampResponse answers a Timestamp request.
type TimestampResponse struct {
	Ts uint64
}

// CommitResponse answers a successful Commit request.
type CommitResponse struct {
	StartTs  uint64
	CommitTs uint64
}

// AbortResponse answers a failed Commit request.
type AbortResponse struct {
	StartTs uint64
	IsRetry bool
}
