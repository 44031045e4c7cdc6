package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotguard/backend/internal/domain"
)

type fakeWriter struct {
	msgs     []kafka.Message
	writeErr error
	closed   int
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed++
	return nil
}

func sampleBooking() domain.Booking {
	return domain.Booking{
		ID:        uuid.MustParse("01890000-0000-7000-8000-000000000001"),
		OwnerID:   "alice",
		Title:     "standup",
		StartTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_KeysByOwnerAndTagsType(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, slog.Default())

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ev := NewBookingEvent(TypeBookingCreated, sampleBooking(), now)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "alice", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, TypeBookingCreated, string(msg.Headers[0].Value))
	assert.True(t, msg.Time.Equal(now))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.BookingID, decoded.BookingID)
	assert.Equal(t, "standup", decoded.Title)
	assert.True(t, decoded.Start.Equal(ev.Start))
}

func TestKafkaPublisher_WriteErrorAndClose(t *testing.T) {
	w := &fakeWriter{writeErr: errors.New("broker unavailable")}
	p := newKafkaPublisher(w, slog.Default())

	err := p.Publish(context.Background(), NewBookingEvent(TypeBookingDeleted, sampleBooking(), time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, w.writeErr)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)

	err = p.Publish(context.Background(), NewBookingEvent(TypeBookingDeleted, sampleBooking(), time.Now()))
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestNewKafkaPublisher_RequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "bookings"}, nil)
	assert.Error(t, err)

	_, err = NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "bookings"}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
