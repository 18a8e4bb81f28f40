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

package timestamp

const (
	_defaultBatch = 10_000_000
	_minThreshold = 1
)

// Config governs how large a ceiling batch the oracle persists at once,
// and how far ahead of the ceiling it starts the next batch.
type Config struct {
	// Batch is the number of timestamps allocated per durable ceiling
	// bump. Recommended >= 1,000,000.
	Batch uint64
	// Threshold is how close cur may get to ceiling before a new batch
	// is persisted ahead of exhaustion. Recommended Batch/10.
	Threshold uint64
}

var DefaultConfig = Config{
	Batch:     _defaultBatch,
	Threshold: _defaultBatch / 10,
}

func (c *Config) validate() {
	if c.Batch == 0 {
		c.Batch = DefaultConfig.Batch
	}
	if c.Threshold == 0 {
		c.Threshold = c.Batch / 10
	}
	if c.Threshold < _minThreshold {
		c.Threshold = _minThreshold
	}
	if c.Threshold >= c.Batch {
		c.Threshold = c.Batch - 1
	}
}
