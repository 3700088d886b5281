package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- typed event helpers --------------------------

// PublishRecordPublished publishes an mv.record.published event after a new
// version is written and indexed.
func PublishRecordPublished(pub message.Publisher, payload RecordPublishedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicRecordPublished, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicRecordPublished, msg)
}

// ParseRecordPublished parses a watermill message into a typed envelope.
func ParseRecordPublished(msg *message.Message) (Message[RecordPublishedPayload], error) {
	return ParseWatermillMessage[RecordPublishedPayload](msg)
}

// PublishRecordSoftDeleted publishes an mv.record.soft_deleted event.
func PublishRecordSoftDeleted(pub message.Publisher, payload RecordSoftDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicRecordSoftDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicRecordSoftDeleted, msg)
}

// ParseRecordSoftDeleted parses a watermill message into a typed envelope.
func ParseRecordSoftDeleted(msg *message.Message) (Message[RecordSoftDeletedPayload], error) {
	return ParseWatermillMessage[RecordSoftDeletedPayload](msg)
}

// PublishSweepCompleted publishes an mv.retention.sweep.completed event.
func PublishSweepCompleted(pub message.Publisher, payload SweepCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicSweepCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicSweepCompleted, msg)
}

// ParseSweepCompleted parses a watermill message into a typed envelope.
func ParseSweepCompleted(msg *message.Message) (Message[SweepCompletedPayload], error) {
	return ParseWatermillMessage[SweepCompletedPayload](msg)
}
