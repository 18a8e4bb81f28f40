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

package requestproc

const _defaultMaxItems = 1_000_000

// Config governs the conflict map's capacity.
type Config struct {
	// MaxItems is the fixed capacity C of the conflict map.
	MaxItems int
}

var DefaultConfig = Config{MaxItems: _defaultMaxItems}

func (c *Config) validate() {
	if c.MaxItems <= 0 {
		c.MaxItems = DefaultConfig.MaxItems
	}
}
