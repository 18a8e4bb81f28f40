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

package persistproc

import "time"

const (
	_defaultBatchSize    = 1000
	_defaultBatchTimeout = 2 * time.Millisecond
)

// Config governs how the persistence processor batches decisions before
// issuing a durability barrier.
type Config struct {
	// BatchSize is the maximum number of events drained per batch.
	BatchSize int
	// BatchTimeout is the maximum time to wait for a batch to fill
	// before flushing whatever has been drained so far.
	BatchTimeout time.Duration
}

var DefaultConfig = Config{
	BatchSize:    _defaultBatchSize,
	BatchTimeout: _defaultBatchTimeout,
}

func (c *Config) validate() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultConfig.BatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultConfig.BatchTimeout
	}
}
