// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"github.com/lachlanorr/consolerw/pkg/telem"
)

const (
	defaultOpTimeout = 30 * time.Second
	closeFlushMs     = 60 * 1000
)

type EventWriter struct {
	strmprov StreamProvider
	brokers  string
	scope    string
	name     string
	topic    string

	prod   Producer
	logCh  chan kafka.LogEvent
	cancel context.CancelFunc
	now    func() time.Time
}

type EventWriterOption func(*EventWriter)

// WithClock replaces time.Now for transaction lease bookkeeping.
func WithClock(now func() time.Time) EventWriterOption {
	return func(w *EventWriter) {
		w.now = now
	}
}

// NewEventWriter makes sure the stream exists and opens a producer for
// non transactional writes against it.
func NewEventWriter(
	ctx context.Context,
	strmprov StreamProvider,
	brokers string,
	scope string,
	name string,
	partitions int,
	opts ...EventWriterOption,
) (*EventWriter, error) {
	w := &EventWriter{
		strmprov: strmprov,
		brokers:  brokers,
		scope:    scope,
		name:     name,
		topic:    TopicName(scope, name),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	err := EnsureStream(ctx, strmprov, brokers, w.topic, partitions)
	if err != nil {
		return nil, err
	}

	var logCtx context.Context
	logCtx, w.cancel = context.WithCancel(context.Background())
	w.logCh = make(chan kafka.LogEvent)
	go PrintKafkaLogs(logCtx, w.logCh)

	w.prod, err = strmprov.NewProducer(brokers, w.logCh)
	if err != nil {
		w.cancel()
		return nil, fmt.Errorf("Failed to create producer to %s: %w", brokers, err)
	}
	go watchDeliveries(w.prod, brokers, nil)

	log.Info().
		Str("Brokers", brokers).
		Str("Topic", w.topic).
		Msg("EventWriter ready")
	return w, nil
}

func (w *EventWriter) Scope() string {
	return w.scope
}

func (w *EventWriter) Name() string {
	return w.name
}

func (w *EventWriter) Topic() string {
	return w.topic
}

func (w *EventWriter) WriteEvent(ctx context.Context, payload string) *Ack {
	return w.write(ctx, "stream.WriteEvent", "", payload)
}

func (w *EventWriter) WriteEventRK(ctx context.Context, routingKey string, payload string) *Ack {
	return w.write(ctx, "stream.WriteEventRK", routingKey, payload)
}

func (w *EventWriter) write(ctx context.Context, spanName string, routingKey string, payload string) *Ack {
	ctx, span := telem.Start(ctx, spanName, w.topic)
	defer span.End()

	deliveryCh := make(chan kafka.Event, 1)
	err := w.prod.Produce(newMessage(ctx, &w.topic, routingKey, payload), deliveryCh)
	if err != nil {
		telem.RecordSpanError(span, err)
		return NewAck(err)
	}
	return &Ack{deliveryCh: deliveryCh}
}

// BeginTxn opens a transaction on its own transactional producer.
// timeout is the initial lease, maxExecutionTime bounds the total
// lifetime including pings.
func (w *EventWriter) BeginTxn(
	ctx context.Context,
	timeout time.Duration,
	maxExecutionTime time.Duration,
	gracePeriod time.Duration,
) (*Transaction, error) {
	ctx, span := telem.Start(ctx, "stream.BeginTxn", w.topic)
	defer span.End()

	txn, err := w.beginTxn(ctx, timeout, maxExecutionTime, gracePeriod)
	if err != nil {
		telem.RecordSpanError(span, err)
		return nil, err
	}
	return txn, nil
}

func (w *EventWriter) beginTxn(
	ctx context.Context,
	timeout time.Duration,
	maxExecutionTime time.Duration,
	gracePeriod time.Duration,
) (*Transaction, error) {
	if timeout <= 0 || maxExecutionTime <= 0 || gracePeriod < 0 {
		return nil, fmt.Errorf(
			"Invalid transaction times, timeout=%s maxExecutionTime=%s gracePeriod=%s",
			timeout,
			maxExecutionTime,
			gracePeriod,
		)
	}
	if timeout > maxExecutionTime {
		return nil, fmt.Errorf("Transaction timeout %s exceeds maxExecutionTime %s", timeout, maxExecutionTime)
	}

	id := uuid.New()
	prod, err := w.strmprov.NewTxnProducer(w.brokers, transactionalId(w.topic, id), maxExecutionTime, w.logCh)
	if err != nil {
		return nil, fmt.Errorf("Failed to create transactional producer: %w", err)
	}

	txn := newTransaction(id, w, prod, timeout, maxExecutionTime, gracePeriod)
	go watchDeliveries(prod, w.brokers, txn.recordDeliveryErr)

	opCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	err = prod.InitTransactions(opCtx)
	if err != nil {
		prod.Close()
		return nil, fmt.Errorf("InitTransactions failed: %w", err)
	}
	err = prod.BeginTransaction()
	if err != nil {
		prod.Close()
		return nil, fmt.Errorf("BeginTransaction failed: %w", err)
	}

	log.Info().
		Str("TxnId", id.String()).
		Str("Topic", w.topic).
		Dur("Timeout", timeout).
		Dur("MaxExecutionTime", maxExecutionTime).
		Dur("GracePeriod", gracePeriod).
		Msg("Transaction begun")
	return txn, nil
}

func transactionalId(topic string, id uuid.UUID) string {
	return fmt.Sprintf("%s.%s", topic, id)
}

// Close flushes outstanding direct writes and closes the producer.
// Open transactions are left as they are.
func (w *EventWriter) Close() {
	if w.prod != nil {
		remaining := w.prod.Flush(closeFlushMs)
		if remaining > 0 {
			log.Warn().
				Int("Remaining", remaining).
				Str("Topic", w.topic).
				Msg("Closing producer with undelivered events")
		}
		w.prod.Close()
		w.prod = nil
	}
	if w.cancel != nil {
		w.cancel()
	}
}
