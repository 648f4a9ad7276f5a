package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// UpdateStatusRequest запрос на обновление статуса бронирования
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListBookingsRequest запрос на получение бронирований ресурса
type ListBookingsRequest struct {
	TenantID   string
	ResourceID string
	From       *time.Time // Бронирования, заканчивающиеся после From (опционально)
	To         *time.Time // Бронирования, начинающиеся до To (опционально)
	Statuses   []string   // Фильтр по статусам (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingFilter, error) {
	filter := domain.BookingFilter{
		TenantID:   r.TenantID,
		ResourceID: r.ResourceID,
		From:       r.From,
		To:         r.To,
	}

	for _, raw := range r.Statuses {
		status, err := ToDomainBookingStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	return filter, nil
}

// Response модели

// BookingItemResponse позиция бронирования
type BookingItemResponse struct {
	ServiceID           string `json:"serviceId"`
	DurationMinutes     int    `json:"durationMinutes"`
	BufferBeforeMinutes int    `json:"bufferBeforeMinutes"`
	BufferAfterMinutes  int    `json:"bufferAfterMinutes"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	CustomerID string `json:"customerId"`
	ResourceID string `json:"resourceId"`
	ServiceID  string `json:"serviceId"`

	StartAt         time.Time `json:"startAt"`
	EndAt           time.Time `json:"endAt"`
	Timezone        string    `json:"timezone"`
	LocalDate       string    `json:"localDate"` // "2025-01-06"
	LocalStartTime  string    `json:"localStartTime"`
	DurationMinutes int       `json:"durationMinutes"`

	BufferBeforeMinutes int    `json:"bufferBeforeMinutes"`
	BufferAfterMinutes  int    `json:"bufferAfterMinutes"`
	Status              string `json:"status"`
	AttendeeCount       int    `json:"attendeeCount"`

	ClientGeneratedID *string               `json:"clientGeneratedId,omitempty"`
	RescheduledFrom   *string               `json:"rescheduledFrom,omitempty"`
	Items             []BookingItemResponse `json:"items"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CanceledAt         *string `json:"canceledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                  b.ID,
		TenantID:            b.TenantID,
		CustomerID:          b.CustomerID,
		ResourceID:          b.ResourceID,
		ServiceID:           b.ServiceID,
		StartAt:             b.StartAt.UTC(),
		EndAt:               b.EndAt.UTC(),
		Timezone:            b.BookingTZ,
		DurationMinutes:     b.DurationMinutes(),
		BufferBeforeMinutes: b.BufferBeforeMinutes,
		BufferAfterMinutes:  b.BufferAfterMinutes,
		Status:              string(b.Status),
		AttendeeCount:       b.AttendeeCount,
		ClientGeneratedID:   b.ClientGeneratedID,
		RescheduledFrom:     b.RescheduledFrom,
		Items:               make([]BookingItemResponse, 0, len(b.Items)),
		CancellationReason:  b.CancellationReason,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}

	// Локальное время в зоне бронирования; неизвестная зона оставляет UTC
	local := b.StartAt.UTC()
	if b.BookingTZ != "" {
		if loc, err := time.LoadLocation(b.BookingTZ); err == nil {
			local = b.StartAt.In(loc)
		}
	}
	resp.LocalDate = local.Format(domain.DateFormat)
	resp.LocalStartTime = local.Format("15:04")

	for _, item := range b.Items {
		resp.Items = append(resp.Items, BookingItemResponse{
			ServiceID:           item.ServiceID,
			DurationMinutes:     item.DurationMinutes,
			BufferBeforeMinutes: item.BufferBeforeMinutes,
			BufferAfterMinutes:  item.BufferAfterMinutes,
		})
	}

	// Конвертируем CanceledAt в строку ISO 8601
	if b.CanceledAt != nil {
		canceledStr := b.CanceledAt.UTC().Format(time.RFC3339)
		resp.CanceledAt = &canceledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s, ok := domain.ParseBookingStatus(status)
	if !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}
