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

package oracle

import (
	"errors"
	"time"

	"github.com/B1NARY-GR0UP/oracle/persistproc"
	"github.com/B1NARY-GR0UP/oracle/requestproc"
	"github.com/B1NARY-GR0UP/oracle/timestamp"
)

// TimestampStoreKind selects the backend the timestamp oracle persists
// its allocation ceiling to.
type TimestampStoreKind string

const (
	TimestampStoreCoordination TimestampStoreKind = "coordination"
	TimestampStoreColumn       TimestampStoreKind = "column-store"
)

// Config is the single configuration record the three stages and the
// oracle are constructed from at startup (§9: explicit DI, no
// process-wide mutable state beyond the stage values themselves).
type Config struct {
	// MaxItems is the conflict map's fixed capacity C.
	MaxItems int
	// BatchSize is the timestamp oracle's allocation batch size.
	BatchSize uint64
	// Threshold governs how far ahead of exhaustion the oracle
	// persists the next ceiling; 0 selects Batch/10.
	Threshold uint64

	// PersistBatchSize and PersistBatchTimeout govern the persistence
	// processor's batching window.
	PersistBatchSize    int
	PersistBatchTimeout time.Duration

	// RequestRingCapacity and PersistRingCapacity must be powers of
	// two; 0 selects 4096.
	RequestRingCapacity int
	PersistRingCapacity int

	// TimestampStore selects which CeilingStore backend the oracle
	// uses.
	TimestampStore TimestampStoreKind

	// EtcdEndpoints and EtcdCeilingKey configure the coordination-
	// service backend; ColumnStoreDir and ColumnStoreRow configure the
	// column-store backend. Only the fields matching TimestampStore
	// are read.
	EtcdEndpoints  []string
	EtcdCeilingKey string

	ColumnStoreDir string
	ColumnStoreRow string

	// CommitLogDir is where the persistence processor's durable log
	// lives.
	CommitLogDir string

	// NetworkInterface and Port are informational only — the wire
	// protocol and network layer are external collaborators (§1).
	NetworkInterface string
	Port             int
}

const (
	_defaultRingCapacity = 4096
)

var DefaultConfig = Config{
	MaxItems:            requestproc.DefaultConfig.MaxItems,
	BatchSize:           timestamp.DefaultConfig.Batch,
	Threshold:           timestamp.DefaultConfig.Threshold,
	PersistBatchSize:    persistproc.DefaultConfig.BatchSize,
	PersistBatchTimeout: persistproc.DefaultConfig.BatchTimeout,
	RequestRingCapacity: _defaultRingCapacity,
	PersistRingCapacity: _defaultRingCapacity,
	TimestampStore:      TimestampStoreColumn,
	EtcdCeilingKey:      "oracle/ceiling",
	ColumnStoreRow:      "oracle/ceiling",
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (c *Config) validate() error {
	if c.MaxItems <= 0 {
		c.MaxItems = DefaultConfig.MaxItems
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultConfig.BatchSize
	}
	if c.PersistBatchSize <= 0 {
		c.PersistBatchSize = DefaultConfig.PersistBatchSize
	}
	if c.PersistBatchTimeout <= 0 {
		c.PersistBatchTimeout = DefaultConfig.PersistBatchTimeout
	}
	if c.RequestRingCapacity == 0 {
		c.RequestRingCapacity = DefaultConfig.RequestRingCapacity
	}
	if c.PersistRingCapacity == 0 {
		c.PersistRingCapacity = DefaultConfig.PersistRingCapacity
	}
	if !isPowerOfTwo(c.RequestRingCapacity) || !isPowerOfTwo(c.PersistRingCapacity) {
		return errors.New("oracle: ring capacities must be powers of two")
	}
	switch c.TimestampStore {
	case TimestampStoreCoordination:
		if len(c.EtcdEndpoints) == 0 {
			return errors.New("oracle: coordination timestamp store requires EtcdEndpoints")
		}
	case TimestampStoreColumn, "":
		c.TimestampStore = TimestampStoreColumn
		if c.ColumnStoreDir == "" {
			return errors.New("oracle: column-store timestamp store requires ColumnStoreDir")
		}
	default:
		return errors.New("oracle: unknown TimestampStore kind")
	}
	if c.CommitLogDir == "" {
		return errors.New("oracle: CommitLogDir is required")
	}
	return nil
}
