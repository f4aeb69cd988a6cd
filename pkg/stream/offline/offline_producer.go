// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package offline

import (
	"context"
	"sync"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// OfflineProducer appends straight into the in-memory cluster. A
// transactional producer holds messages back until CommitTransaction.
type OfflineProducer struct {
	cluster         *Cluster
	events          chan kafka.Event
	transactionalId string

	txnInited bool
	inTxn     bool
	pending   []*kafka.Message
	closed    bool
	mtx       sync.Mutex
}

func NewOfflineProducer(cluster *Cluster) *OfflineProducer {
	oprod := &OfflineProducer{
		cluster: cluster,
		events:  make(chan kafka.Event, 100),
	}
	return oprod
}

func NewOfflineTxnProducer(cluster *Cluster, transactionalId string) *OfflineProducer {
	oprod := NewOfflineProducer(cluster)
	oprod.transactionalId = transactionalId
	return oprod
}

func stateError(msg string) error {
	return kafka.NewError(kafka.ErrState, msg, false)
}

func (oprod *OfflineProducer) resolve(msg *kafka.Message) (*Partition, error) {
	partIdx := msg.TopicPartition.Partition
	if partIdx == kafka.PartitionAny {
		topic, err := oprod.cluster.GetTopic(*msg.TopicPartition.Topic)
		if err != nil {
			return nil, kafka.NewError(kafka.ErrUnknownTopicOrPart, err.Error(), false)
		}
		partIdx = topic.SelectPartition(msg.Key)
	}
	part, err := oprod.cluster.GetPartition(*msg.TopicPartition.Topic, partIdx)
	if err != nil {
		return nil, kafka.NewError(kafka.ErrUnknownTopicOrPart, err.Error(), false)
	}
	msg.TopicPartition.Partition = partIdx
	return part, nil
}

// deliver must be called with mtx held.
func (oprod *OfflineProducer) deliver(msg *kafka.Message, deliveryChan chan kafka.Event) {
	if deliveryChan != nil {
		deliveryChan <- msg
		return
	}
	if !oprod.closed {
		select {
		case oprod.events <- msg:
		default:
		}
	}
}

func (oprod *OfflineProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	if oprod.closed {
		return stateError("Producer closed")
	}
	if oprod.transactionalId != "" && !oprod.inTxn {
		return stateError("Transactional producer used outside of a transaction")
	}

	part, err := oprod.resolve(msg)
	if err != nil {
		return err
	}

	if oprod.inTxn {
		oprod.pending = append(oprod.pending, msg)
		return nil
	}

	part.Produce(msg)
	oprod.deliver(msg, deliveryChan)
	return nil
}

func (oprod *OfflineProducer) Close() {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	if !oprod.closed {
		oprod.closed = true
		close(oprod.events)
	}
}

func (oprod *OfflineProducer) Events() chan kafka.Event {
	return oprod.events
}

func (*OfflineProducer) Flush(timeoutMs int) int {
	// nothing is ever in flight
	return 0
}

func (oprod *OfflineProducer) InitTransactions(ctx context.Context) error {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	if oprod.transactionalId == "" {
		return kafka.NewError(kafka.ErrNotConfigured, "transactional.id not configured", false)
	}
	oprod.txnInited = true
	return nil
}

func (oprod *OfflineProducer) BeginTransaction() error {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	if !oprod.txnInited {
		return stateError("InitTransactions not called")
	}
	if oprod.inTxn {
		return stateError("Transaction already in progress")
	}
	oprod.inTxn = true
	oprod.pending = nil
	return nil
}

func (oprod *OfflineProducer) CommitTransaction(ctx context.Context) error {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	if !oprod.inTxn {
		return stateError("No transaction in progress")
	}
	for _, msg := range oprod.pending {
		part, err := oprod.cluster.GetPartition(*msg.TopicPartition.Topic, msg.TopicPartition.Partition)
		if err != nil {
			return kafka.NewError(kafka.ErrUnknownTopicOrPart, err.Error(), false)
		}
		part.Produce(msg)
		oprod.deliver(msg, nil)
	}
	oprod.pending = nil
	oprod.inTxn = false
	return nil
}

func (oprod *OfflineProducer) AbortTransaction(ctx context.Context) error {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	if !oprod.inTxn {
		return stateError("No transaction in progress")
	}
	oprod.pending = nil
	oprod.inTxn = false
	return nil
}

// Pending reports how many messages wait for CommitTransaction.
func (oprod *OfflineProducer) Pending() int {
	oprod.mtx.Lock()
	defer oprod.mtx.Unlock()

	return len(oprod.pending)
}
