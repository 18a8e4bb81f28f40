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

// Command oracled runs a single timestamp-oracle / conflict-detection
// node: it parses flags into an oracle.Config, opens the server, and
// blocks until an interrupt or termination signal requests shutdown.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/B1NARY-GR0UP/oracle"
	"github.com/B1NARY-GR0UP/oracle/pkg/logger"
)

func main() {
	cfg := oracle.DefaultConfig

	var (
		maxItems         = flag.Int("max-items", cfg.MaxItems, "conflict map capacity")
		batchSize        = flag.Uint64("ts-batch", cfg.BatchSize, "timestamp allocation batch size")
		threshold        = flag.Uint64("ts-threshold", cfg.Threshold, "timestamp ceiling repersist threshold")
		persistBatchSize = flag.Int("persist-batch", cfg.PersistBatchSize, "max decisions per durability barrier")
		reqRingCap       = flag.Int("req-ring-capacity", cfg.RequestRingCapacity, "request ring capacity, power of two")
		persistRingCap   = flag.Int("persist-ring-capacity", cfg.PersistRingCapacity, "persist ring capacity, power of two")
		tsStore          = flag.String("ts-store", string(cfg.TimestampStore), "timestamp ceiling backend: column-store or coordination")
		etcdEndpoints    = flag.String("etcd-endpoints", "", "comma-separated coordination service endpoints")
		etcdKey          = flag.String("etcd-key", cfg.EtcdCeilingKey, "coordination service key for the ceiling")
		columnDir        = flag.String("column-store-dir", "", "directory for the embedded column store")
		columnRow        = flag.String("column-store-row", cfg.ColumnStoreRow, "row key for the ceiling cell")
		commitLogDir     = flag.String("commit-log-dir", "", "directory for the durable commit log")
		iface            = flag.String("interface", "0.0.0.0", "listen interface")
		port             = flag.Int("port", 5678, "listen port")
	)
	flag.Parse()

	cfg.MaxItems = *maxItems
	cfg.BatchSize = *batchSize
	cfg.Threshold = *threshold
	cfg.PersistBatchSize = *persistBatchSize
	cfg.RequestRingCapacity = *reqRingCap
	cfg.PersistRingCapacity = *persistRingCap
	cfg.TimestampStore = oracle.TimestampStoreKind(*tsStore)
	cfg.EtcdCeilingKey = *etcdKey
	cfg.ColumnStoreDir = *columnDir
	cfg.ColumnStoreRow = *columnRow
	cfg.CommitLogDir = *commitLogDir
	cfg.NetworkInterface = *iface
	cfg.Port = *port
	if *etcdEndpoints != "" {
		cfg.EtcdEndpoints = strings.Split(*etcdEndpoints, ",")
	}

	lg := logger.GetLogger()

	srv, err := oracle.Open(cfg)
	if err != nil {
		lg.Fatalf("oracled: failed to start: %v", err)
		return
	}
	lg.Infof("oracled: started (configured interface %s:%d, no socket opened), commit log at %s", cfg.NetworkInterface, cfg.Port, cfg.CommitLogDir)

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	<-sigC

	lg.Infof("oracled: shutting down")
	if err := srv.Close(); err != nil {
		lg.Errorf("oracled: error during shutdown: %v", err)
	}
}
