// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"time"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

type KafkaStreamProvider struct{}

func NewKafkaStreamProvider() *KafkaStreamProvider {
	return &KafkaStreamProvider{}
}

func (*KafkaStreamProvider) NewProducer(brokers string, logCh chan kafka.LogEvent) (Producer, error) {
	prod, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               -1,     // acks required from all in-sync replicas
		"enable.idempotence": true,   // no duplicates on internal retries
		"message.timeout.ms": 600000, // 10 minutes

		"go.logs.channel.enable": true,
		"go.logs.channel":        logCh,
	})
	if err != nil {
		return nil, err
	}
	return prod, nil
}

func (*KafkaStreamProvider) NewTxnProducer(
	brokers string,
	transactionalId string,
	txnTimeout time.Duration,
	logCh chan kafka.LogEvent,
) (Producer, error) {
	prod, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":      brokers,
		"acks":                   -1,
		"transactional.id":       transactionalId,
		"transaction.timeout.ms": int(txnTimeout / time.Millisecond),

		"go.logs.channel.enable": true,
		"go.logs.channel":        logCh,
	})
	if err != nil {
		return nil, err
	}
	return prod, nil
}

func (*KafkaStreamProvider) NewAdminClient(brokers string) (AdminClient, error) {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}
