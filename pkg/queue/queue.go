// Package queue manages event publishing for the datastore pipeline.
//
// Overview
//   - Publish/subscribe decouples the publish, retention and reconciliation
//     stages from downstream consumers (processing flows, notifications).
//   - Unified message envelope: Message[Payload] = Header + Payload.
//   - Topic constants live in topics.go, payload structs in payloads.go.
//   - JSON encoding via bytedance/sonic, easy to parse from any language.
//
// Envelope JSON shape
//
//	{
//	  "header": {
//	    "topic": "mv.record.published",
//	    "trace_id": "optional-trace-id",
//	    "producer": "magvault",
//	    "occurred_at": "2025-05-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... depends on the topic ... }
//	}
//
// Publish/subscribe example
//
//	payload := queue.RecordPublishedPayload{
//	  Record: queue.RecordRef{
//	    Mission:    "imap",
//	    Instrument: "mag",
//	    Level:      "l2",
//	    Descriptor: "norm-mago",
//	    Date:       "2025-05-02",
//	    Version:    3,
//	    Path:       "l2/2025/05/02/imap_mag_l2_norm-mago_20250502_v003.cdf",
//	    Checksum:   "ab12...",
//	    Size:       1024,
//	  },
//	}
//
//	msg, _ := queue.NewWatermillMessage(
//	  queue.TopicRecordPublished, payload,
//	  queue.WithProducer("magvault"),
//	)
//
//	// client, _ := mq.New(ctx)
//	// _ = client.Publish(ctx, queue.TopicRecordPublished, msg)
//
//	// ch, _ := client.Subscribe(ctx, queue.TopicRecordPublished)
//	// for m := range ch {
//	//     env, _ := queue.ParseWatermillMessage[queue.RecordPublishedPayload](m)
//	//     m.Ack()
//	// }
//
// Notes
//  1. occurred_at is UTC RFC3339.
//  2. version enables payload evolution; consumers should ignore unknown
//     fields.
//  3. Header.topic duplicates the broker subject on purpose so dumped
//     messages stay traceable offline.
package queue

import (
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader builds an event header for a topic.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID sets the TraceID header.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer sets the Producer header.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode serializes a message envelope to JSON.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode deserializes a message envelope from JSON.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage builds a watermill message with ID and metadata set.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage extracts the typed envelope from a watermill message.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
