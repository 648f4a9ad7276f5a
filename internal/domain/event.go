package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Типы доменных событий outbox
const (
	EventBookingCreated     = "booking.created"
	EventBookingCanceled    = "booking.canceled"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingStatus      = "booking.status_changed"
)

// OutboxEvent domain event written in the same transaction as the state change
type OutboxEvent struct {
	ID          string
	TenantID    string
	AggregateID string // ID бронирования, ключ партиционирования
	EventType   string
	Payload     []byte // JSON
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// BookingEventPayload JSON body of booking events
type BookingEventPayload struct {
	BookingID       string    `json:"bookingId"`
	TenantID        string    `json:"tenantId"`
	ResourceID      string    `json:"resourceId"`
	CustomerID      string    `json:"customerId"`
	ServiceID       string    `json:"serviceId"`
	Status          string    `json:"status"`
	PreviousStatus  string    `json:"previousStatus,omitempty"`
	StartAt         time.Time `json:"startAt"`
	EndAt           time.Time `json:"endAt"`
	Timezone        string    `json:"timezone"`
	RescheduledFrom *string   `json:"rescheduledFrom,omitempty"`
	Reason          *string   `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// NewBookingEventPayload snapshot of a booking for an event body
func NewBookingEventPayload(b *Booking, occurredAt time.Time) BookingEventPayload {
	return BookingEventPayload{
		BookingID:       b.ID,
		TenantID:        b.TenantID,
		ResourceID:      b.ResourceID,
		CustomerID:      b.CustomerID,
		ServiceID:       b.ServiceID,
		Status:          string(b.Status),
		StartAt:         b.StartAt,
		EndAt:           b.EndAt,
		Timezone:        b.BookingTZ,
		RescheduledFrom: b.RescheduledFrom,
		Reason:          b.CancellationReason,
		OccurredAt:      occurredAt,
	}
}

// NewBookingEvent outbox row for a booking state change.
// previous is empty for events that do not change an existing status.
func NewBookingEvent(id, eventType string, b *Booking, previous BookingStatus, at time.Time) (*OutboxEvent, error) {
	payload := NewBookingEventPayload(b, at)
	payload.PreviousStatus = string(previous)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &OutboxEvent{
		ID:          id,
		TenantID:    b.TenantID,
		AggregateID: b.ID,
		EventType:   eventType,
		Payload:     body,
		CreatedAt:   at,
	}, nil
}
