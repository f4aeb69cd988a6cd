// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"github.com/lachlanorr/consolerw/pkg/stream"
	"github.com/lachlanorr/consolerw/pkg/stream/offline"
	"github.com/lachlanorr/consolerw/pkg/telem"
)

const testBrokers = "offline:9092"

type testClock struct {
	now time.Time
	mtx sync.Mutex
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)}
}

func (clock *testClock) Now() time.Time {
	clock.mtx.Lock()
	defer clock.mtx.Unlock()
	return clock.now
}

func (clock *testClock) Advance(d time.Duration) {
	clock.mtx.Lock()
	defer clock.mtx.Unlock()
	clock.now = clock.now.Add(d)
}

func newTestWriter(t *testing.T, partitions int) (*stream.EventWriter, *offline.Cluster, *testClock) {
	strmprov, err := offline.NewOfflineStreamProvider(testBrokers)
	if err != nil {
		t.Fatalf("NewOfflineStreamProvider error: %s", err.Error())
	}
	clock := newTestClock()
	w, err := stream.NewEventWriter(
		context.Background(),
		strmprov,
		testBrokers,
		"examples",
		"someStream",
		partitions,
		stream.WithClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("NewEventWriter error: %s", err.Error())
	}
	t.Cleanup(w.Close)

	clus, err := strmprov.Manager().GetCluster(testBrokers)
	if err != nil {
		t.Fatalf("GetCluster error: %s", err.Error())
	}
	return w, clus, clock
}

func streamMessages(t *testing.T, clus *offline.Cluster) []*kafka.Message {
	topic, err := clus.GetTopic("examples.someStream")
	if err != nil {
		t.Fatalf("GetTopic error: %s", err.Error())
	}
	var msgs []*kafka.Message
	for i := int32(0); i < topic.PartitionCount(); i++ {
		part, err := clus.GetPartition(topic.Name(), i)
		if err != nil {
			t.Fatalf("GetPartition error: %s", err.Error())
		}
		for off := int64(0); off < part.Len(); off++ {
			msgs = append(msgs, part.GetMessage(kafka.Offset(off)))
		}
	}
	return msgs
}

func TestTopicName(t *testing.T) {
	if name := stream.TopicName("examples", "someStream"); name != "examples.someStream" {
		t.Fatalf("Bad topic name '%s'", name)
	}
}

func TestNewEventWriterCreatesStream(t *testing.T) {
	w, clus, _ := newTestWriter(t, 3)

	if w.Topic() != "examples.someStream" {
		t.Fatalf("Bad writer topic '%s'", w.Topic())
	}
	topic, err := clus.GetTopic(w.Topic())
	if err != nil {
		t.Fatalf("Stream not created: %s", err.Error())
	}
	if topic.PartitionCount() != 3 {
		t.Fatalf("Bad partition count %d", topic.PartitionCount())
	}

	// partition count is checked before any broker is contacted
	err = stream.EnsureStream(context.Background(), nil, testBrokers, w.Topic(), 0)
	if err == nil {
		t.Fatalf("EnsureStream accepted zero partitions")
	}
}

func TestEnsureStreamExisting(t *testing.T) {
	strmprov, err := offline.NewOfflineStreamProvider(testBrokers)
	if err != nil {
		t.Fatalf("NewOfflineStreamProvider error: %s", err.Error())
	}
	for i := 0; i < 2; i++ {
		err = stream.EnsureStream(context.Background(), strmprov, testBrokers, "examples.s", 2)
		if err != nil {
			t.Fatalf("EnsureStream pass %d error: %s", i, err.Error())
		}
	}

	_, err = stream.NewEventWriter(context.Background(), strmprov, "elsewhere:9092", "examples", "s", 1)
	if err == nil {
		t.Fatalf("NewEventWriter succeeded against unknown brokers")
	}
}

func TestWriteEvent(t *testing.T) {
	w, clus, _ := newTestWriter(t, 1)
	ctx := context.Background()

	if err := w.WriteEvent(ctx, "hello world").Wait(ctx); err != nil {
		t.Fatalf("WriteEvent error: %s", err.Error())
	}
	if err := w.WriteEventRK(ctx, "key1", "keyed").Wait(ctx); err != nil {
		t.Fatalf("WriteEventRK error: %s", err.Error())
	}

	msgs := streamMessages(t, clus)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if string(msgs[0].Value) != "hello world" || msgs[0].Key != nil {
		t.Fatalf("Bad first message key='%s' value='%s'", msgs[0].Key, msgs[0].Value)
	}
	if string(msgs[1].Value) != "keyed" || string(msgs[1].Key) != "key1" {
		t.Fatalf("Bad second message key='%s' value='%s'", msgs[1].Key, msgs[1].Value)
	}
}

func TestWriteEventTraceParent(t *testing.T) {
	w, clus, _ := newTestWriter(t, 1)
	ctx := context.Background()

	if err := w.WriteEvent(ctx, "untraced").Wait(ctx); err != nil {
		t.Fatalf("WriteEvent error: %s", err.Error())
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		tp.Shutdown(context.Background())
	})

	traceCtx, span := tp.Tracer("test").Start(ctx, "operator")
	if err := w.WriteEvent(traceCtx, "traced").Wait(traceCtx); err != nil {
		t.Fatalf("WriteEvent error: %s", err.Error())
	}
	span.End()

	msgs := streamMessages(t, clus)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if traceParent := stream.GetTraceParent(msgs[0]); traceParent != "" {
		t.Fatalf("Untraced write carries traceparent '%s'", traceParent)
	}

	traceParent := stream.GetTraceParent(msgs[1])
	if !telem.TraceParentIsValid(traceParent) {
		t.Fatalf("Bad traceparent '%s'", traceParent)
	}
	traceId := span.SpanContext().TraceID().String()
	if !strings.Contains(traceParent, "-"+traceId+"-") {
		t.Fatalf("traceparent '%s' not in trace %s", traceParent, traceId)
	}
}

func TestWriteEventRKSamePartition(t *testing.T) {
	w, clus, _ := newTestWriter(t, 8)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := w.WriteEventRK(ctx, "key1", "payload").Wait(ctx); err != nil {
			t.Fatalf("WriteEventRK error: %s", err.Error())
		}
	}

	msgs := streamMessages(t, clus)
	if len(msgs) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(msgs))
	}
	for _, msg := range msgs {
		if msg.TopicPartition.Partition != msgs[0].TopicPartition.Partition {
			t.Fatalf("Routing key spread over partitions %d and %d", msgs[0].TopicPartition.Partition, msg.TopicPartition.Partition)
		}
	}
}

func TestAckResolved(t *testing.T) {
	ctx := context.Background()
	if err := stream.NewAck(nil).Wait(ctx); err != nil {
		t.Fatalf("Resolved ack returned error: %s", err.Error())
	}
	failure := errors.New("boom")
	if err := stream.NewAck(failure).Wait(ctx); err != failure {
		t.Fatalf("Resolved ack lost error, got %v", err)
	}
}

func TestBeginTxnValidation(t *testing.T) {
	w, _, _ := newTestWriter(t, 1)
	ctx := context.Background()

	bad := []struct {
		timeout, maxExec, grace time.Duration
	}{
		{0, time.Second, time.Second},
		{time.Second, 0, time.Second},
		{time.Second, time.Second, -time.Second},
		{2 * time.Second, time.Second, time.Second},
	}
	for _, b := range bad {
		txn, err := w.BeginTxn(ctx, b.timeout, b.maxExec, b.grace)
		if err == nil {
			t.Errorf("BeginTxn(%s, %s, %s) succeeded with txn %s", b.timeout, b.maxExec, b.grace, txn.Id())
		}
	}
}
