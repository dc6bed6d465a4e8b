// Package repository defines the persistence interfaces for the settlement
// core. Implementations: postgres (pgx) and memory (tests, dev mode).
//
// Lookup methods return (nil, nil) when the record is absent; the service
// layer decides whether absence is an error. Status transitions are
// compare-and-set: they report whether the expected-status precondition held
// at write time, so a read-validate-write sequence on one payment can never
// interleave with another transition on the same record.
package repository

import (
	"context"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

// PaymentRepository owns payment records.
type PaymentRepository interface {
	// Create inserts a new payment. Returns domain.ErrConflict if the
	// identifier already exists.
	Create(ctx context.Context, p *domain.Payment) error

	// Get fetches a payment by id. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*domain.Payment, error)

	// NextSequence returns the next value of the ledger-wide monotonic
	// counter used in identifier derivation. Crash-consistent in the
	// postgres implementation (a database sequence).
	NextSequence(ctx context.Context) (uint64, error)

	// SetRiskScore records score and moves the payment from status `from`
	// to status `to`. Returns false when the payment's status no longer
	// matches `from`.
	SetRiskScore(ctx context.Context, id string, score int32, from, to domain.PaymentStatus) (bool, error)

	// SetProofAttested attaches a verified proof fingerprint, moving the
	// payment from `from` to `to` (`to` is Verified for a plain attestation
	// or Completed under auto-complete policy).
	SetProofAttested(ctx context.Context, id, fingerprint string, from, to domain.PaymentStatus) (bool, error)

	// SetCompleted finalizes the payment from status `from`.
	SetCompleted(ctx context.Context, id string, from domain.PaymentStatus, completedAt time.Time) (bool, error)

	// SetRefunded refunds the payment from status `from`, recording reason.
	SetRefunded(ctx context.Context, id, reason string, from domain.PaymentStatus) (bool, error)

	// ListByStatus returns up to limit payments in the given status,
	// oldest first. Used by the orchestrator's scan cycles.
	ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]*domain.Payment, error)

	// ListPendingBefore returns Pending payments created before cutoff,
	// oldest first. Used by the expiry sweep.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error)
}

// ProofRepository owns proof attestations.
type ProofRepository interface {
	// Create inserts a new attestation. Returns domain.ErrConflict if the
	// fingerprint was already submitted (write-once, no overwrite).
	Create(ctx context.Context, a *domain.ProofAttestation) error

	// Get fetches an attestation by fingerprint. Returns (nil, nil) when absent.
	Get(ctx context.Context, fingerprint string) (*domain.ProofAttestation, error)

	// GetByPayment fetches the newest attestation submitted for a payment.
	// Returns (nil, nil) when none exists.
	GetByPayment(ctx context.Context, paymentID string) (*domain.ProofAttestation, error)

	// MarkVerified latches verified=true with the verifying agent identity.
	// Returns false if the attestation was already verified.
	MarkVerified(ctx context.Context, fingerprint, verifier string, verifiedAt time.Time) (bool, error)

	// RecordFailure increments the failure counter and stores the last
	// verification error. Never latches.
	RecordFailure(ctx context.Context, fingerprint, verifyErr string) error

	// ListUnverified returns up to limit unverified attestations, oldest first.
	ListUnverified(ctx context.Context, limit int) ([]*domain.ProofAttestation, error)
}

// PolicyRepository owns per-payer privacy policies.
type PolicyRepository interface {
	// Upsert creates or replaces the payer's policy.
	Upsert(ctx context.Context, p *domain.PrivacyPolicy) error

	// Get fetches the payer's stored policy. Returns (nil, nil) when the
	// payer has never set one.
	Get(ctx context.Context, payer string) (*domain.PrivacyPolicy, error)
}

// AgentRepository owns the agent authorization allow-list.
type AgentRepository interface {
	// Set grants or revokes authorization for an identity.
	Set(ctx context.Context, identity string, authorized bool) error

	// IsAuthorized reports whether identity is on the allow-list.
	IsAuthorized(ctx context.Context, identity string) (bool, error)
}

// EventRepository is the append-only audit log.
type EventRepository interface {
	Append(ctx context.Context, e *domain.PaymentEvent) error
	ListByPayment(ctx context.Context, paymentID string) ([]*domain.PaymentEvent, error)
}
