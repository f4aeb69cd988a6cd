// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lachlanorr/consolerw/pkg/stream"
)

type beginArgs struct {
	timeout          time.Duration
	maxExecutionTime time.Duration
	gracePeriod      time.Duration
}

type fakeWrite struct {
	routingKey string
	payload    string
}

type fakeWriter struct {
	writes   []fakeWrite
	writeErr error
	begins   []beginArgs
	beginErr error
	txns     []*fakeTxn
}

func (w *fakeWriter) WriteEvent(ctx context.Context, payload string) *stream.Ack {
	return w.WriteEventRK(ctx, "", payload)
}

func (w *fakeWriter) WriteEventRK(ctx context.Context, routingKey string, payload string) *stream.Ack {
	if w.writeErr != nil {
		return stream.NewAck(w.writeErr)
	}
	w.writes = append(w.writes, fakeWrite{routingKey: routingKey, payload: payload})
	return stream.NewAck(nil)
}

func (w *fakeWriter) BeginTxn(ctx context.Context, timeout time.Duration, maxExecutionTime time.Duration, gracePeriod time.Duration) (Txn, error) {
	w.begins = append(w.begins, beginArgs{timeout, maxExecutionTime, gracePeriod})
	if w.beginErr != nil {
		return nil, w.beginErr
	}
	txn := &fakeTxn{id: uuid.New(), status: stream.TxnStatusOpen}
	w.txns = append(w.txns, txn)
	return txn, nil
}

type fakeTxn struct {
	id     uuid.UUID
	status stream.TxnStatus
	writes []fakeWrite
	calls  []string
	pings  []time.Duration

	writeErr  error
	flushErr  error
	pingErr   error
	commitErr error
	abortErr  error
	statusErr error
}

func (txn *fakeTxn) Id() uuid.UUID {
	return txn.id
}

func (txn *fakeTxn) WriteEvent(ctx context.Context, payload string) error {
	return txn.WriteEventRK(ctx, "", payload)
}

func (txn *fakeTxn) WriteEventRK(ctx context.Context, routingKey string, payload string) error {
	txn.calls = append(txn.calls, "write")
	if txn.writeErr != nil {
		return txn.writeErr
	}
	txn.writes = append(txn.writes, fakeWrite{routingKey: routingKey, payload: payload})
	return nil
}

func (txn *fakeTxn) Flush(ctx context.Context) error {
	txn.calls = append(txn.calls, "flush")
	return txn.flushErr
}

func (txn *fakeTxn) Ping(ctx context.Context, lease time.Duration) error {
	txn.calls = append(txn.calls, "ping")
	txn.pings = append(txn.pings, lease)
	return txn.pingErr
}

func (txn *fakeTxn) Commit(ctx context.Context) error {
	txn.calls = append(txn.calls, "commit")
	if txn.commitErr != nil {
		return txn.commitErr
	}
	txn.status = stream.TxnStatusCommitted
	return nil
}

func (txn *fakeTxn) Abort(ctx context.Context) error {
	txn.calls = append(txn.calls, "abort")
	if txn.abortErr != nil {
		return txn.abortErr
	}
	txn.status = stream.TxnStatusAborted
	return nil
}

func (txn *fakeTxn) CheckStatus(ctx context.Context) (stream.TxnStatus, error) {
	txn.calls = append(txn.calls, "status")
	return txn.status, txn.statusErr
}
