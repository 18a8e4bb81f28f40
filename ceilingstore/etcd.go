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

package ceilingstore

import (
	"context"
	"encoding/binary"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

var _ CeilingStore = (*EtcdStore)(nil)

// EtcdStore persists the ceiling as a big-endian uint64 under a single
// key in a coordination service. CASCeiling is a clientv3 transaction
// guarded on the key's ModRevision, so a racing writer (a demoted
// leader still believing it holds the lease) can never silently clobber
// a newer ceiling.
type EtcdStore struct {
	client  *clientv3.Client
	key     string
	timeout time.Duration
}

// NewEtcdStore builds a store rooted at key, using client for all
// requests. timeout bounds every individual Get/Txn call; zero selects
// a 5 second default.
func NewEtcdStore(client *clientv3.Client, key string, timeout time.Duration) *EtcdStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EtcdStore{client: client, key: key, timeout: timeout}
}

func (s *EtcdStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *EtcdStore) ReadCeiling() (uint64, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.key)
	if err != nil {
		return 0, err
	}
	if len(resp.Kvs) == 0 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(resp.Kvs[0].Value), nil
}

func (s *EtcdStore) CASCeiling(old, new uint64) error {
	ctx, cancel := s.ctx()
	defer cancel()

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, new)

	// modRevision 0 means the key has never been written: CAS against
	// its absence rather than a prior revision.
	var cmp clientv3.Cmp
	if old == 0 {
		cmp = clientv3.Compare(clientv3.ModRevision(s.key), "=", 0)
	} else {
		oldBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(oldBuf, old)
		getResp, err := s.client.Get(ctx, s.key)
		if err != nil {
			return err
		}
		if len(getResp.Kvs) == 0 || string(getResp.Kvs[0].Value) != string(oldBuf) {
			return ErrCASConflict
		}
		cmp = clientv3.Compare(clientv3.ModRevision(s.key), "=", getResp.Kvs[0].ModRevision)
	}

	txnResp, err := s.client.Txn(ctx).
		If(cmp).
		Then(clientv3.OpPut(s.key, string(buf))).
		Commit()
	if err != nil {
		return err
	}
	if !txnResp.Succeeded {
		return ErrCASConflict
	}
	return nil
}
