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

// Package metrics exposes the counters and histograms named in §6 of
// the oracle's external interface contract, collected with
// prometheus/client_golang and registered against the default
// registerer so a standard /metrics handler picks them up without
// further wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const _namespace = "oracle"

var (
	RequestsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "requests_received_total",
		Help:      "Requests consumed off the request ring, by kind.",
	}, []string{"kind"})

	Commits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "commits_total",
		Help:      "Commit requests that resulted in a commit decision.",
	})

	Aborts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "aborts_total",
		Help:      "Commit requests that resulted in an abort decision.",
	})

	ConflictMapEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "conflict_map_evictions_total",
		Help:      "Entries evicted from the conflict map by a colliding insert.",
	})

	LowWatermarkAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "low_watermark_advances_total",
		Help:      "Times the low-watermark moved forward.",
	})

	OracleBatchPersists = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "oracle_batch_persists_total",
		Help:      "Times the timestamp oracle persisted a new ceiling.",
	})

	PersistBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: _namespace,
		Name:      "persist_batch_size",
		Help:      "Number of events drained into a single persistence batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	})

	PersistBatchLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: _namespace,
		Name:      "persist_batch_latency_seconds",
		Help:      "Time from batch drain start to durability barrier completion.",
		Buckets:   prometheus.DefBuckets,
	})
)
