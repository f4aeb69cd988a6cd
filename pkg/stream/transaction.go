// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"github.com/lachlanorr/consolerw/pkg/telem"
)

// Transaction buffers writes on a dedicated transactional producer
// until Commit or Abort. It stays open only while its lease is alive:
// the lease starts at the begin timeout and each Ping moves it to
// now+lease, never past begin+maxExecutionTime.
//
// A Transaction is meant to be driven from a single goroutine.
type Transaction struct {
	id     uuid.UUID
	writer *EventWriter
	prod   Producer
	status TxnStatus

	began         time.Time
	leaseDeadline time.Time
	maxExecTime   time.Duration
	gracePeriod   time.Duration
	closed        bool

	deliveryErr error
	mtx         sync.Mutex
}

func newTransaction(
	id uuid.UUID,
	writer *EventWriter,
	prod Producer,
	timeout time.Duration,
	maxExecutionTime time.Duration,
	gracePeriod time.Duration,
) *Transaction {
	now := writer.now()
	return &Transaction{
		id:            id,
		writer:        writer,
		prod:          prod,
		status:        TxnStatusOpen,
		began:         now,
		leaseDeadline: now.Add(timeout),
		maxExecTime:   maxExecutionTime,
		gracePeriod:   gracePeriod,
	}
}

func (txn *Transaction) Id() uuid.UUID {
	return txn.id
}

func (txn *Transaction) recordDeliveryErr(err error) {
	txn.mtx.Lock()
	defer txn.mtx.Unlock()

	if txn.deliveryErr == nil {
		txn.deliveryErr = err
	}
}

func (txn *Transaction) takeDeliveryErr() error {
	txn.mtx.Lock()
	defer txn.mtx.Unlock()

	err := txn.deliveryErr
	txn.deliveryErr = nil
	return err
}

func (txn *Transaction) failed(op string, err error) error {
	return &TxnFailedError{TxnId: txn.id, Op: op, Err: err}
}

func (txn *Transaction) closeProducer() {
	if !txn.closed {
		txn.closed = true
		txn.prod.Close()
	}
}

// expireLease aborts an open transaction whose lease or max execution
// time has run out.
func (txn *Transaction) expireLease(ctx context.Context) {
	if txn.status != TxnStatusOpen {
		return
	}
	now := txn.writer.now()
	if !now.After(txn.leaseDeadline) && !now.After(txn.began.Add(txn.maxExecTime)) {
		return
	}

	log.Warn().
		Str("TxnId", txn.id.String()).
		Time("LeaseDeadline", txn.leaseDeadline).
		Msg("Transaction lease expired, aborting")

	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	err := txn.prod.AbortTransaction(opCtx)
	if err != nil {
		log.Error().
			Err(err).
			Str("TxnId", txn.id.String()).
			Msg("Failed to abort expired transaction")
	}
	txn.status = TxnStatusAborted
	txn.closeProducer()
}

func (txn *Transaction) ensureOpen(ctx context.Context, op string) error {
	wasOpen := txn.status == TxnStatusOpen
	txn.expireLease(ctx)
	if txn.status == TxnStatusOpen {
		return nil
	}
	if wasOpen {
		return txn.failed(op, ErrLeaseExpired)
	}
	return txn.failed(op, fmt.Errorf("%w, status %s", ErrTxnNotOpen, txn.status))
}

func (txn *Transaction) WriteEvent(ctx context.Context, payload string) error {
	return txn.write(ctx, "stream.Txn.WriteEvent", "", payload)
}

func (txn *Transaction) WriteEventRK(ctx context.Context, routingKey string, payload string) error {
	return txn.write(ctx, "stream.Txn.WriteEventRK", routingKey, payload)
}

func (txn *Transaction) write(ctx context.Context, spanName string, routingKey string, payload string) error {
	ctx, span := telem.Start(ctx, spanName, txn.writer.topic)
	defer span.End()

	err := txn.ensureOpen(ctx, "write")
	if err == nil {
		err = txn.prod.Produce(newMessage(ctx, &txn.writer.topic, routingKey, payload), nil)
		if err != nil {
			err = txn.failed("write", err)
		}
	}
	if err != nil {
		telem.RecordSpanError(span, err)
	}
	return err
}

func timeoutMs(ctx context.Context) int {
	if deadline, ok := ctx.Deadline(); ok {
		return int(time.Until(deadline) / time.Millisecond)
	}
	return int(defaultOpTimeout / time.Millisecond)
}

// Flush blocks until every write so far has been delivered to the
// brokers, still uncommitted.
func (txn *Transaction) Flush(ctx context.Context) error {
	ctx, span := telem.Start(ctx, "stream.Txn.Flush", txn.writer.topic)
	defer span.End()

	err := txn.flush(ctx)
	if err != nil {
		telem.RecordSpanError(span, err)
	}
	return err
}

func (txn *Transaction) flush(ctx context.Context) error {
	err := txn.ensureOpen(ctx, "flush")
	if err != nil {
		return err
	}

	remaining := txn.prod.Flush(timeoutMs(ctx))
	if remaining > 0 {
		return txn.failed("flush", fmt.Errorf("%d events still in flight", remaining))
	}
	if derr := txn.takeDeliveryErr(); derr != nil {
		return txn.failed("flush", derr)
	}
	return nil
}

func (txn *Transaction) Ping(ctx context.Context, lease time.Duration) error {
	ctx, span := telem.Start(ctx, "stream.Txn.Ping", txn.writer.topic)
	defer span.End()

	err := txn.ping(ctx, lease)
	if err != nil {
		telem.RecordSpanError(span, err)
	}
	return err
}

func (txn *Transaction) ping(ctx context.Context, lease time.Duration) error {
	err := txn.ensureOpen(ctx, "ping")
	if err != nil {
		return err
	}
	if lease <= 0 {
		return fmt.Errorf("Invalid lease %s", lease)
	}

	deadline := txn.writer.now().Add(lease)
	if deadline.After(txn.began.Add(txn.maxExecTime)) {
		return fmt.Errorf("%w: lease %s, max execution time %s", ErrLeaseTooLong, lease, txn.maxExecTime)
	}
	txn.leaseDeadline = deadline

	log.Debug().
		Str("TxnId", txn.id.String()).
		Time("LeaseDeadline", deadline).
		Msg("Transaction pinged")
	return nil
}

func (txn *Transaction) Commit(ctx context.Context) error {
	ctx, span := telem.Start(ctx, "stream.Txn.Commit", txn.writer.topic)
	defer span.End()

	err := txn.commit(ctx)
	if err != nil {
		telem.RecordSpanError(span, err)
	}
	return err
}

func (txn *Transaction) commit(ctx context.Context) error {
	err := txn.ensureOpen(ctx, "commit")
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()

	txn.status = TxnStatusCommitting
	err = txn.prod.CommitTransaction(opCtx)
	if err == nil {
		err = txn.takeDeliveryErr()
	}
	if err != nil {
		var kerr kafka.Error
		if errors.As(err, &kerr) && kerr.TxnRequiresAbort() {
			if aerr := txn.prod.AbortTransaction(opCtx); aerr == nil {
				txn.status = TxnStatusAborted
			} else {
				txn.status = TxnStatusUnknown
			}
		} else {
			txn.status = TxnStatusUnknown
		}
		txn.closeProducer()
		return txn.failed("commit", err)
	}

	txn.status = TxnStatusCommitted
	txn.closeProducer()
	log.Info().
		Str("TxnId", txn.id.String()).
		Msg("Transaction committed")
	return nil
}

// Abort discards every write made in the transaction. Aborting a
// transaction that already expired succeeds.
func (txn *Transaction) Abort(ctx context.Context) error {
	ctx, span := telem.Start(ctx, "stream.Txn.Abort", txn.writer.topic)
	defer span.End()

	err := txn.abort(ctx)
	if err != nil {
		telem.RecordSpanError(span, err)
	}
	return err
}

func (txn *Transaction) abort(ctx context.Context) error {
	txn.expireLease(ctx)
	if txn.status == TxnStatusAborted {
		return nil
	}
	if txn.status != TxnStatusOpen {
		return txn.failed("abort", fmt.Errorf("%w, status %s", ErrTxnNotOpen, txn.status))
	}

	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()

	txn.status = TxnStatusAborting
	err := txn.prod.AbortTransaction(opCtx)
	if err != nil {
		var kerr kafka.Error
		if errors.As(err, &kerr) && kerr.IsRetriable() {
			txn.status = TxnStatusOpen
		} else {
			txn.status = TxnStatusUnknown
			txn.closeProducer()
		}
		return txn.failed("abort", err)
	}

	txn.status = TxnStatusAborted
	txn.closeProducer()
	log.Info().
		Str("TxnId", txn.id.String()).
		Msg("Transaction aborted")
	return nil
}

func (txn *Transaction) CheckStatus(ctx context.Context) (TxnStatus, error) {
	ctx, span := telem.Start(ctx, "stream.Txn.CheckStatus", txn.writer.topic)
	defer span.End()

	txn.expireLease(ctx)
	return txn.status, nil
}
