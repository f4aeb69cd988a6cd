// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

const metadataTimeoutMs = 10000

// TopicName is the kafka topic backing the stream scope/name.
func TopicName(scope string, name string) string {
	return fmt.Sprintf("%s.%s", scope, name)
}

// EnsureStream creates topic with the given partition count unless it
// already exists.
func EnsureStream(
	ctx context.Context,
	strmprov StreamProvider,
	brokers string,
	topic string,
	partitions int,
) error {
	if partitions < 1 {
		return fmt.Errorf("Invalid partition count %d for stream %s", partitions, topic)
	}

	admin, err := strmprov.NewAdminClient(brokers)
	if err != nil {
		return fmt.Errorf("Failed to NewAdminClient: %w", err)
	}
	defer admin.Close()

	md, err := admin.GetMetadata(nil, true, metadataTimeoutMs)
	if err != nil {
		return fmt.Errorf("Failed to GetMetadata: %w", err)
	}

	if _, ok := md.Topics[topic]; ok {
		log.Debug().
			Str("Topic", topic).
			Msg("Stream already exists")
		return nil
	}

	replicationFactor := len(md.Brokers)
	if replicationFactor < 1 {
		replicationFactor = 1
	}

	result, err := admin.CreateTopics(
		ctx,
		[]kafka.TopicSpecification{
			{
				Topic:             topic,
				NumPartitions:     partitions,
				ReplicationFactor: replicationFactor,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("Failed to create stream %s: %w", topic, err)
	}
	for _, res := range result {
		code := res.Error.Code()
		if code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("Failed to create stream %s: %w", topic, res.Error)
		}
	}

	log.Info().
		Str("Topic", topic).
		Int("Partitions", partitions).
		Msg("Created stream")
	return nil
}
