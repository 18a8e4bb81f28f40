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

// Package requestproc implements the request processor: the
// single-threaded conflict-detection engine that consumes RequestEvents
// off the request ring, decides commit/abort against the conflict map
// and low-watermark, and forwards PersistEvents downstream.
package requestproc

import (
	"github.com/B1NARY-GR0UP/oracle/events"
	"github.com/B1NARY-GR0UP/oracle/metrics"
	"github.com/B1NARY-GR0UP/oracle/pkg/conflictmap"
	"github.com/B1NARY-GR0UP/oracle/pkg/logger"
	"github.com/B1NARY-GR0UP/oracle/pkg/ringbuf"
	"github.com/B1NARY-GR0UP/oracle/timestamp"
)

// Oracle is the narrow surface the request processor needs from the
// timestamp oracle; satisfied by *timestamp.Oracle.
type Oracle interface {
	Next() uint64
}

// Processor owns the conflict map M and the low-watermark LW. It is
// driven by exactly one goroutine (Run, or direct calls to
// HandleTimestamp/HandleCommit from a single caller); neither M nor LW
// is protected by a lock, matching §5's single-mutator contract.
type Processor struct {
	oracle Oracle
	m      *conflictmap.Map
	lw     uint64

	persist *ringbuf.Ring[events.PersistEvent]
	log     logger.Logger
}

// New builds a Processor. initialLW is the value recovered from the
// commit log's replay (0 on a fresh cluster).
func New(oracle Oracle, persist *ringbuf.Ring[events.PersistEvent], cfg Config, initialLW uint64) *Processor {
	cfg.validate()
	return &Processor{
		oracle:  oracle,
		m:       conflictmap.New(cfg.MaxItems),
		lw:      initialLW,
		persist: persist,
		log:     logger.GetLogger(),
	}
}

// LowWatermark returns the current LW. Exposed for tests and metrics;
// only ever read from the owning goroutine in production.
func (p *Processor) LowWatermark() uint64 {
	return p.lw
}

// HandleTimestamp services a Timestamp request: allocate a fresh
// timestamp and forward it to the persistence ring.
func (p *Processor) HandleTimestamp(client events.Client) {
	metrics.RequestsReceived.WithLabelValues("timestamp").Inc()

	ts := p.oracle.Next()

	seq, slot := p.persist.Claim()
	slot.Reset()
	slot.Kind = events.PersistTimestamp
	slot.Client = client
	slot.Ts = ts
	p.persist.Publish(seq)
}

// HandleCommit runs the decision algorithm of spec.md §4.2 against req
// and forwards a Commit or Abort PersistEvent (plus, if LW advanced, a
// LowWatermark PersistEvent).
//
// is_retry requests are re-decided against current M/LW rather than
// replayed from the log: a retry is just another commit_request from
// the processor's point of view, and may legitimately produce a
// different outcome than the original attempt if M or LW has moved in
// the interim.
func (p *Processor) HandleCommit(req *events.RequestEvent) {
	metrics.RequestsReceived.WithLabelValues("commit").Inc()

	startTs := req.StartTs
	rows := req.RowCount()

	if startTs <= p.lw {
		p.abort(startTs, req.IsRetry, req.Client)
		return
	}

	for i := 0; i < rows; i++ {
		r := req.Row(i)
		if commitTs, ok := p.m.Get(r); ok && commitTs >= startTs {
			p.abort(startTs, req.IsRetry, req.Client)
			return
		}
	}

	commitTs := p.oracle.Next()

	newLW := p.lw
	for i := 0; i < rows; i++ {
		r := req.Row(i)
		evictedRow, evictedTs, evicted := p.m.Put(r, commitTs)
		if evicted {
			metrics.ConflictMapEvictions.Inc()
			// A row written more than once in the same write-set evicts
			// its own entry from the prior Put in this same loop
			// (evictedRow == r, evictedTs == commitTs); M still holds that
			// row at commitTs, so it must never advance the watermark. A
			// different row of this write-set sharing the slot is a real
			// loss and is folded in like any other eviction.
			if evictedTs > newLW && (evictedRow != r || evictedTs < commitTs) {
				newLW = evictedTs
			}
		}
	}

	lwAdvanced := newLW > p.lw
	p.lw = newLW

	metrics.Commits.Inc()

	seq, slot := p.persist.Claim()
	slot.Reset()
	slot.Kind = events.PersistCommit
	slot.Client = req.Client
	slot.StartTs = startTs
	slot.CommitTs = commitTs
	p.persist.Publish(seq)

	if lwAdvanced {
		metrics.LowWatermarkAdvances.Inc()
		p.persistLowWatermark(newLW)
	}
}

func (p *Processor) abort(startTs uint64, isRetry bool, client events.Client) {
	metrics.Aborts.Inc()

	seq, slot := p.persist.Claim()
	slot.Reset()
	slot.Kind = events.PersistAbort
	slot.Client = client
	slot.StartTs = startTs
	slot.IsRetry = isRetry
	p.persist.Publish(seq)
}

func (p *Processor) persistLowWatermark(lw uint64) {
	seq, slot := p.persist.Claim()
	slot.Reset()
	slot.Kind = events.PersistLowWatermark
	slot.LW = lw
	p.persist.Publish(seq)
}

// Run drains req, calling HandleTimestamp/HandleCommit in sequence
// order, until stopC is closed. It is the single consumer goroutine for
// req and must never be invoked from more than one goroutine.
func (p *Processor) Run(req *ringbuf.Ring[events.RequestEvent], stopC <-chan struct{}) {
	var next int64
	for {
		select {
		case <-stopC:
			return
		default:
		}

		slot, ready := req.Poll(next)
		if !ready {
			continue
		}

		switch slot.Kind {
		case events.RequestTimestamp:
			p.HandleTimestamp(slot.Client)
		case events.RequestCommit:
			p.HandleCommit(slot)
		default:
			p.log.Warnf("requestproc: unknown request kind %d at seq %d", slot.Kind, next)
		}

		req.Release(next)
		next++
	}
}
