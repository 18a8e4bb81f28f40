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

// Package persistproc implements the persistence processor: a
// single-threaded, batching stage that durably logs commit/abort
// decisions and low-watermark advances, and only then releases replies
// to network clients.
package persistproc

import (
	"context"
	"time"

	"github.com/B1NARY-GR0UP/oracle/commitlog"
	"github.com/B1NARY-GR0UP/oracle/events"
	"github.com/B1NARY-GR0UP/oracle/metrics"
	"github.com/B1NARY-GR0UP/oracle/pkg/logger"
	"github.com/B1NARY-GR0UP/oracle/pkg/ringbuf"
	"github.com/B1NARY-GR0UP/oracle/pkg/watermark"
)

// Processor owns the commit log. It is driven by exactly one goroutine
// (Run); the log is never written from any other goroutine.
//
// wm tracks which ring sequences have been durably flushed: Begin is
// called the moment a slot is drained out of the ring, Done once its
// batch has cleared the durability barrier and had its reply released.
// DoneUntil() therefore answers "every sequence up to and including
// this one is safely on disk" — the precondition log rotation needs
// before it may safely truncate the active segment.
type Processor struct {
	log *commitlog.Log
	cfg Config
	lg  logger.Logger
	wm  *watermark.WaterMark
}

// New builds a Processor writing durable records to log.
func New(log *commitlog.Log, cfg Config) *Processor {
	cfg.validate()
	return &Processor{log: log, cfg: cfg, lg: logger.GetLogger(), wm: watermark.New()}
}

// Run drains in in batches of up to cfg.BatchSize events or
// cfg.BatchTimeout, whichever comes first, appends them to the commit
// log, issues one durability barrier, and only then releases replies.
// It returns when stopC is closed and no further events are pending.
func (p *Processor) Run(in *ringbuf.Ring[events.PersistEvent], stopC <-chan struct{}) {
	var next int64
	for {
		batch, seqs, advanced := p.drainBatch(in, next, stopC)
		next = advanced

		if len(batch) == 0 {
			select {
			case <-stopC:
				return
			default:
				continue
			}
		}

		p.flush(batch, seqs)
		for _, seq := range seqs {
			in.Release(seq)
			p.wm.Done(uint64(seq))
		}
	}
}

// DoneUntil returns the highest ring sequence known to be durably
// flushed and replied to, or 0 if none has been yet.
func (p *Processor) DoneUntil() uint64 {
	return p.wm.DoneUntil()
}

// WaitUntilDurable blocks until every sequence up to and including seq
// has cleared the durability barrier, or ctx is done.
func (p *Processor) WaitUntilDurable(ctx context.Context, seq int64) error {
	if seq < 0 {
		return nil
	}
	return p.wm.WaitForMark(ctx, uint64(seq))
}

// Close stops the internal watermark tracker. It must be called after
// Run has returned.
func (p *Processor) Close() {
	p.wm.Stop()
}

// drainBatch collects up to cfg.BatchSize slots starting at next,
// stopping early once cfg.BatchTimeout has elapsed since the first slot
// was observed (or immediately, if the ring is empty and stopC fires).
func (p *Processor) drainBatch(in *ringbuf.Ring[events.PersistEvent], next int64, stopC <-chan struct{}) (batch []*events.PersistEvent, seqs []int64, advanced int64) {
	var deadline time.Time
	for len(batch) < p.cfg.BatchSize {
		slot, ready := in.Poll(next)
		if !ready {
			select {
			case <-stopC:
				return batch, seqs, next
			default:
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return batch, seqs, next
			}
			continue
		}

		if deadline.IsZero() {
			deadline = time.Now().Add(p.cfg.BatchTimeout)
		}

		p.wm.Begin(uint64(next))
		batch = append(batch, slot)
		seqs = append(seqs, next)
		next++

		if !deadline.IsZero() && time.Now().After(deadline) {
			return batch, seqs, next
		}
	}
	return batch, seqs, next
}

// flush appends batch to the log, issues the durability barrier, then
// releases replies in order. A write or barrier failure is fatal (§7):
// it means decisions already handed to this stage can no longer be made
// durable, so the process must stop accepting traffic rather than risk
// an undurable commit becoming visible.
func (p *Processor) flush(batch []*events.PersistEvent, seqs []int64) {
	start := time.Now()
	metrics.PersistBatchSize.Observe(float64(len(batch)))

	records := make([]commitlog.Record, 0, len(batch))
	var maxLW uint64
	var lwSeen bool

	for _, ev := range batch {
		switch ev.Kind {
		case events.PersistTimestamp:
			records = append(records, commitlog.Record{Kind: commitlog.KindTimestamp, Ts: ev.Ts})
		case events.PersistCommit:
			records = append(records, commitlog.Record{Kind: commitlog.KindCommit, StartTs: ev.StartTs, CommitTs: ev.CommitTs})
		case events.PersistAbort:
			records = append(records, commitlog.Record{Kind: commitlog.KindAbort, StartTs: ev.StartTs, IsRetry: ev.IsRetry})
		case events.PersistLowWatermark:
			lwSeen = true
			if ev.LW > maxLW {
				maxLW = ev.LW
			}
		default:
			p.lg.Warnf("persistproc: dropping unknown persist kind %d", ev.Kind)
		}
	}
	if lwSeen {
		records = append(records, commitlog.Record{Kind: commitlog.KindLowWatermark, LW: maxLW})
	}

	if err := p.log.Append(records...); err != nil {
		p.lg.Panicf("persistproc: commit log append failed: %v", err)
	}
	if err := p.log.Sync(); err != nil {
		p.lg.Panicf("persistproc: commit log durability barrier failed: %v", err)
	}

	metrics.PersistBatchLatencySeconds.Observe(time.Since(start).Seconds())

	for _, ev := range batch {
		if ev.Client == nil {
			continue // LowWatermark events carry no client
		}
		reply(ev)
	}
}

// reply builds the response message for ev and sends it, swallowing a
// panic from a client whose channel has since closed so one dead client
// can never wedge the batch for everyone else.
func reply(ev *events.PersistEvent) {
	defer func() { _ = recover() }()

	switch ev.Kind {
	case events.PersistTimestamp:
		ev.Client.SendReply(events.TimestampResponse{Ts: ev.Ts})
	case events.PersistCommit:
		ev.Client.SendReply(events.CommitResponse{StartTs: ev.StartTs, CommitTs: ev.CommitTs})
	case events.PersistAbort:
		ev.Client.SendReply(events.AbortResponse{StartTs: ev.StartTs, IsRetry: ev.IsRetry})
	}
}
