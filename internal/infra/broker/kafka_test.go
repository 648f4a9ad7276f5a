package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

func TestMessages_KeyedByAggregate(t *testing.T) {
	created := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	msgs := Messages([]*domain.OutboxEvent{{
		ID:          "e1",
		TenantID:    "t1",
		AggregateID: "b1",
		EventType:   domain.EventBookingCreated,
		Payload:     []byte(`{"bookingId":"b1"}`),
		CreatedAt:   created,
	}})

	require.Len(t, msgs, 1)
	assert.Equal(t, []byte("b1"), msgs[0].Key)
	assert.Equal(t, created, msgs[0].Time)
	require.Len(t, msgs[0].Headers, 3)
	assert.Equal(t, HeaderEventType, msgs[0].Headers[1].Key)
	assert.Equal(t, []byte(domain.EventBookingCreated), msgs[0].Headers[1].Value)
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "topic", time.Second)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "", time.Second)
	assert.ErrorIs(t, err, ErrConfig)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "topic", time.Second)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
