package domain

import "time"

// EventType identifies a point on a payment's transition history.
type EventType string

const (
	EventCreated       EventType = "payment_created"
	EventRiskUpdated   EventType = "risk_updated"
	EventProofVerified EventType = "proof_verified"
	EventCompleted     EventType = "payment_completed"
	EventRefunded      EventType = "payment_refunded"
	EventExpired       EventType = "payment_expired"
)

// PaymentEvent is an append-only audit record. The sequence of events for a
// payment reconstructs its full state-transition history without decrypting
// any payment content.
type PaymentEvent struct {
	ID         string    `db:"id" json:"id"` // uuid
	PaymentID  string    `db:"payment_id" json:"payment_id"`
	Type       EventType `db:"event_type" json:"type"`
	Actor      string    `db:"actor" json:"actor"`
	Detail     string    `db:"detail" json:"detail,omitempty"` // score, refund reason, fingerprint, ...
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
