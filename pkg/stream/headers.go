// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"github.com/lachlanorr/consolerw/pkg/telem"
)

const TRACE_PARENT_HEADER = "traceparent"

func findHeader(msg *kafka.Message, key string) []byte {
	for _, hdr := range msg.Headers {
		if key == hdr.Key {
			return hdr.Value
		}
	}
	return nil
}

func GetTraceParent(msg *kafka.Message) string {
	val := findHeader(msg, TRACE_PARENT_HEADER)
	if val != nil {
		return string(val)
	}
	return ""
}

func standardHeaders(ctx context.Context) []kafka.Header {
	traceParent := telem.ExtractTraceParent(ctx)
	if !telem.TraceParentIsValid(traceParent) {
		return nil
	}
	return []kafka.Header{
		{
			Key:   TRACE_PARENT_HEADER,
			Value: []byte(traceParent),
		},
	}
}

func newMessage(ctx context.Context, topic *string, routingKey string, payload string) *kafka.Message {
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: topic, Partition: kafka.PartitionAny},
		Value:          []byte(payload),
		Headers:        standardHeaders(ctx),
	}
	if routingKey != "" {
		msg.Key = []byte(routingKey)
	}
	return msg
}
