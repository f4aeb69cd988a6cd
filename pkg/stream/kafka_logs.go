// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

func librdkafkaToZerologLevel(kafkaLevel int) zerolog.Level {
	switch kafkaLevel {
	case 7:
		return zerolog.DebugLevel
	case 6:
		fallthrough
	case 5:
		return zerolog.InfoLevel
	case 4:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func PrintKafkaLogs(ctx context.Context, kafkaLogCh <-chan kafka.LogEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case logEvt := <-kafkaLogCh:
			log.WithLevel(librdkafkaToZerologLevel(logEvt.Level)).
				Str("Name", logEvt.Name).
				Str("Tag", logEvt.Tag).
				Int("Level", logEvt.Level).
				Str("Timestamp", logEvt.Timestamp.Format(time.RFC3339)).
				Msgf("Kafka Log: %s", logEvt.Message)
		}
	}
}

// watchDeliveries logs failed deliveries reported on the producer's
// event channel until the producer is closed. onErr, when set, sees
// every failure.
func watchDeliveries(prod Producer, brokers string, onErr func(error)) {
	for e := range prod.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				log.Error().
					Err(ev.TopicPartition.Error).
					Str("Brokers", brokers).
					Msgf("Delivery failed: %+v", ev)
				if onErr != nil {
					onErr(ev.TopicPartition.Error)
				}
			}
		case kafka.Error:
			log.Error().
				Err(ev).
				Str("Brokers", brokers).
				Msg("Producer error")
			if onErr != nil && ev.IsFatal() {
				onErr(ev)
			}
		}
	}
}
