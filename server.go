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

// Package oracle wires the timestamp oracle, the request processor, and
// the persistence processor into a single runnable server: two ring
// buffers connect the three stages, and Open/Close give the process a
// single lifecycle to drive from a network front-end or a CLI.
package oracle

import (
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/B1NARY-GR0UP/originium"

	"github.com/B1NARY-GR0UP/oracle/ceilingstore"
	"github.com/B1NARY-GR0UP/oracle/commitlog"
	"github.com/B1NARY-GR0UP/oracle/events"
	"github.com/B1NARY-GR0UP/oracle/persistproc"
	"github.com/B1NARY-GR0UP/oracle/pkg/logger"
	"github.com/B1NARY-GR0UP/oracle/pkg/ringbuf"
	"github.com/B1NARY-GR0UP/oracle/requestproc"
	"github.com/B1NARY-GR0UP/oracle/timestamp"
)

// Server owns every long-lived resource of a single oracle node: the
// timestamp oracle, the conflict-detection engine, the durable commit
// log, and the two rings connecting them to their driving goroutines.
// A network front-end claims slots on ReqRing and blocks on its Client
// implementation for the matching reply; Server itself speaks no wire
// protocol (§1: that's an external collaborator).
type Server struct {
	cfg Config

	Oracle    *timestamp.Oracle
	Requests  *requestproc.Processor
	Persister *persistproc.Processor

	ReqRing     *ringbuf.Ring[events.RequestEvent]
	PersistRing *ringbuf.Ring[events.PersistEvent]

	ceilingDB *originium.DB // non-nil only when TimestampStoreColumn is selected
	etcdCli   *clientv3.Client
	log       *commitlog.Log

	stopC  chan struct{}
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex

	lg logger.Logger
}

// Open brings up every stage: it opens the commit log and replays it to
// recover the low-watermark, opens the configured ceiling store and the
// timestamp oracle on top of it, constructs the request and persistence
// processors, and launches their driving goroutines. The returned
// Server is ready to accept claims on ReqRing immediately.
func Open(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		stopC: make(chan struct{}),
		lg:    logger.GetLogger(),
	}

	log, err := commitlog.Create(cfg.CommitLogDir)
	if err != nil {
		return nil, fmt.Errorf("oracle: open commit log: %w", err)
	}
	s.log = log

	initialLW, err := log.Replay()
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("oracle: replay commit log: %w", err)
	}

	ceilStore, err := s.openCeilingStore(cfg)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	o, err := timestamp.Open(ceilStore, timestamp.Config{Batch: cfg.BatchSize, Threshold: cfg.Threshold})
	if err != nil {
		s.closeResources()
		return nil, fmt.Errorf("oracle: open timestamp oracle: %w", err)
	}
	s.Oracle = o

	s.PersistRing = ringbuf.New[events.PersistEvent](cfg.PersistRingCapacity, ringbuf.BusySpin{})
	s.ReqRing = ringbuf.New[events.RequestEvent](cfg.RequestRingCapacity, ringbuf.BusySpin{})

	s.Requests = requestproc.New(o, s.PersistRing, requestproc.Config{MaxItems: cfg.MaxItems}, initialLW)
	s.Persister = persistproc.New(log, persistproc.Config{BatchSize: cfg.PersistBatchSize, BatchTimeout: cfg.PersistBatchTimeout})

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.Requests.Run(s.ReqRing, s.stopC)
	}()
	go func() {
		defer s.wg.Done()
		s.Persister.Run(s.PersistRing, s.stopC)
	}()

	return s, nil
}

func (s *Server) openCeilingStore(cfg Config) (ceilingstore.CeilingStore, error) {
	switch cfg.TimestampStore {
	case TimestampStoreCoordination:
		cli, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.EtcdEndpoints,
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("oracle: connect coordination service: %w", err)
		}
		s.etcdCli = cli
		return ceilingstore.NewEtcdStore(cli, cfg.EtcdCeilingKey, 5*time.Second), nil
	default:
		db, err := originium.Open(cfg.ColumnStoreDir, originium.DefaultConfig)
		if err != nil {
			return nil, fmt.Errorf("oracle: open column store: %w", err)
		}
		s.ceilingDB = db
		return ceilingstore.NewColumnStore(db, cfg.ColumnStoreRow), nil
	}
}

// Close signals both stage goroutines to stop, waits for them to exit,
// and releases every underlying resource. The persistence goroutine
// first flushes events already published to PersistRing; the request
// goroutine stops at once and leaves unconsumed requests in ReqRing
// unprocessed. Close is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stopC)
	s.wg.Wait()
	s.Persister.Close()

	return s.closeResources()
}

func (s *Server) closeResources() error {
	var firstErr error
	if s.log != nil {
		if err := s.log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.ceilingDB != nil {
		s.ceilingDB.Close()
	}
	if s.etcdCli != nil {
		if err := s.etcdCli.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
