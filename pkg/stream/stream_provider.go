// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"
	"time"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// StreamProvider builds the kafka handles an EventWriter needs. The
// kafka backend returns real librdkafka clients, the offline backend
// returns in-memory stand-ins.
type StreamProvider interface {
	NewProducer(brokers string, logCh chan kafka.LogEvent) (Producer, error)
	NewTxnProducer(brokers string, transactionalId string, txnTimeout time.Duration, logCh chan kafka.LogEvent) (Producer, error)
	NewAdminClient(brokers string) (AdminClient, error)
}

type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Close()
	Events() chan kafka.Event
	Flush(timeoutMs int) int

	InitTransactions(ctx context.Context) error
	BeginTransaction() error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
}

type AdminClient interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	CreateTopics(
		ctx context.Context,
		topics []kafka.TopicSpecification,
		options ...kafka.CreateTopicsAdminOption,
	) ([]kafka.TopicResult, error)
	Close()
}
