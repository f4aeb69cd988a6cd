// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"context"
	"fmt"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// Ack resolves once the brokers acknowledge (or reject) a single write.
type Ack struct {
	deliveryCh chan kafka.Event
	err        error
}

// NewAck returns an already resolved Ack.
func NewAck(err error) *Ack {
	return &Ack{err: err}
}

func (ack *Ack) Wait(ctx context.Context) error {
	if ack.deliveryCh == nil {
		return ack.err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case evt := <-ack.deliveryCh:
		switch ev := evt.(type) {
		case *kafka.Message:
			ack.err = ev.TopicPartition.Error
		case kafka.Error:
			ack.err = ev
		default:
			ack.err = fmt.Errorf("Unexpected delivery event: %v", evt)
		}
		ack.deliveryCh = nil
		return ack.err
	}
}
