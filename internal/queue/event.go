// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by publishers and consumers.
const (
	AuditQueueName    = "booking.audit"
	ReminderQueueName = "email.reminder"
)

// Audit event actions.
const (
	ActionReservationCreated   = "reservation.created"
	ActionReservationCancelled = "reservation.cancelled"
	ActionCreditAdjusted       = "credit.adjusted"
)

// AuditEvent is published to the audit sink after a balance-affecting
// or booking operation commits. The sink is a pure side-effect
// consumer: publishing failures are logged and never fail the
// originating request.
type AuditEvent struct {
	EventID    string `json:"event_id"`
	Action     string `json:"action"`
	ActorID    uint64 `json:"actor_id"`
	TargetID   uint64 `json:"target_id"`
	UserID     uint64 `json:"user_id"`
	Amount     int64  `json:"amount,omitempty"`
	Detail     string `json:"detail,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// ReminderEmailEvent carries everything the e-mail worker needs to send
// an appointment reminder without querying the primary database.
type ReminderEmailEvent struct {
	EventID       string  `json:"event_id"`
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	To            string  `json:"to"`
	FirstName     *string `json:"first_name,omitempty"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	ReminderType  string  `json:"reminder_type"`
}
