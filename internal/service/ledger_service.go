package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
	"github.com/mja2001/SolCipher-Cronos/internal/validator"
)

// LedgerService is the authoritative payment state machine. Every transition
// checks actor authorization and the current status before writing, and the
// check-then-write pair is serialized per payment identifier.
type LedgerService interface {
	// CreatePayment records a new payment in Pending and returns its
	// content-derived identifier.
	CreatePayment(ctx context.Context, params domain.CreatePaymentParams) (string, error)

	// ApplyRiskScore records the assessor's score and moves the payment to
	// Verified (score below the payer's threshold) or Flagged (at or above).
	ApplyRiskScore(ctx context.Context, paymentID string, score int32, assessor string) (domain.PaymentStatus, error)

	// VerifyProof attaches a verified proof attestation to a Verified
	// payment. Under the payer's auto-complete policy this settles the
	// payment directly; otherwise the payer must still call CompletePayment.
	VerifyProof(ctx context.Context, paymentID, fingerprint, agent string) error

	// CompletePayment settles the payment. Only the original payer may call
	// it, and only from Verified (with a verified proof if policy requires one).
	CompletePayment(ctx context.Context, paymentID, caller string) error

	// RefundPayment refunds from Pending, Verified or Flagged. Authorized
	// agents only.
	RefundPayment(ctx context.Context, paymentID, agent, reason string) error

	// ExpirePayment refunds a Pending payment that outlived the ledger TTL.
	// Driven by the orchestrator's expiry sweep.
	ExpirePayment(ctx context.Context, paymentID, agent string) error

	// GetPayment returns the read-only projection. Encrypted blobs only,
	// never cleartext amount or metadata.
	GetPayment(ctx context.Context, paymentID string) (*domain.PaymentView, error)

	// GetHistory returns the payment's audit events in order.
	GetHistory(ctx context.Context, paymentID string) ([]*domain.PaymentEvent, error)

	// ListByStatus is the orchestrator's scan entry point.
	ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]*domain.PaymentView, error)

	// ListPendingBefore lists Pending payments older than cutoff.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentView, error)
}

type ledgerService struct {
	payments repository.PaymentRepository
	proofs   repository.ProofRepository
	events   repository.EventRepository
	policies PolicyService
	authz    AuthzService
	locks    *paymentLocks
}

// NewLedgerService wires the ledger with its collaborating registries.
func NewLedgerService(
	payments repository.PaymentRepository,
	proofs repository.ProofRepository,
	events repository.EventRepository,
	policies PolicyService,
	authz AuthzService,
) LedgerService {
	return &ledgerService{
		payments: payments,
		proofs:   proofs,
		events:   events,
		policies: policies,
		authz:    authz,
		locks:    newPaymentLocks(),
	}
}

func (s *ledgerService) CreatePayment(ctx context.Context, params domain.CreatePaymentParams) (string, error) {
	if err := validator.ValidateIdentity(params.Payer); err != nil {
		return "", fmt.Errorf("payer: %v: %w", err, domain.ErrInvalidInput)
	}
	if params.RecipientRef == "" {
		return "", fmt.Errorf("recipient reference is required: %w", domain.ErrInvalidInput)
	}
	if err := validator.ValidateAmount(params.Amount); err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	if len(params.EncryptedAmount) == 0 {
		return "", fmt.Errorf("encrypted amount is required: %w", domain.ErrInvalidInput)
	}

	seq, err := s.payments.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to allocate payment sequence: %w", err)
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:                domain.DerivePaymentID(params, seq, now),
		Payer:             params.Payer,
		RecipientRef:      params.RecipientRef,
		Token:             params.Token,
		Amount:            params.Amount,
		EncryptedAmount:   params.EncryptedAmount,
		EncryptedMetadata: params.EncryptedMetadata,
		Status:            domain.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("failed to create payment: %w", err)
	}

	s.record(ctx, payment.ID, domain.EventCreated, params.Payer, "token="+params.Token)
	return payment.ID, nil
}

func (s *ledgerService) ApplyRiskScore(ctx context.Context, paymentID string, score int32, assessor string) (domain.PaymentStatus, error) {
	if err := s.requireAgent(ctx, assessor); err != nil {
		return "", err
	}
	if !domain.ValidScore(score) {
		return "", fmt.Errorf("score %d: %w", score, domain.ErrInvalidScore)
	}

	unlock := s.locks.lock(paymentID)
	defer unlock()

	payment, err := s.mustGet(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if payment.Status.Terminal() {
		return "", fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status, domain.ErrAlreadyTerminal)
	}

	policy, err := s.policies.GetPolicy(ctx, payment.Payer)
	if err != nil {
		return "", err
	}

	// Scores at or above the payer's threshold flag the payment; below it
	// the payment verifies. The score is recorded either way.
	next := domain.StatusVerified
	if score >= policy.MinRiskThreshold {
		next = domain.StatusFlagged
	}

	applied, err := s.payments.SetRiskScore(ctx, paymentID, score, payment.Status, next)
	if err != nil {
		return "", err
	}
	if !applied {
		return "", fmt.Errorf("payment %s changed concurrently: %w", paymentID, domain.ErrInvalidState)
	}

	s.record(ctx, paymentID, domain.EventRiskUpdated, assessor, fmt.Sprintf("score=%d status=%s", score, next))
	return next, nil
}

func (s *ledgerService) VerifyProof(ctx context.Context, paymentID, fingerprint, agent string) error {
	if err := s.requireAgent(ctx, agent); err != nil {
		return err
	}

	attestation, err := s.proofs.Get(ctx, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to look up attestation: %w", err)
	}
	if attestation == nil {
		return fmt.Errorf("proof %s: %w", fingerprint, domain.ErrNotFound)
	}
	if !attestation.Verified {
		return fmt.Errorf("proof %s has not passed verification: %w", fingerprint, domain.ErrInvalidState)
	}
	if attestation.PaymentID != paymentID {
		return fmt.Errorf("proof %s attests to a different payment: %w", fingerprint, domain.ErrInvalidInput)
	}

	unlock := s.locks.lock(paymentID)
	defer unlock()

	payment, err := s.mustGet(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status.Terminal() {
		return fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status, domain.ErrAlreadyTerminal)
	}
	// Re-processing by a lagging scheduler is a safe no-op.
	if payment.ProofVerified && payment.ProofFingerprint != nil && *payment.ProofFingerprint == fingerprint {
		return nil
	}
	// Proof attachment requires a risk-verified payment; Pending and
	// Flagged payments are rejected.
	if payment.Status != domain.StatusVerified {
		return fmt.Errorf("payment %s is %s, expected %s: %w",
			paymentID, payment.Status, domain.StatusVerified, domain.ErrInvalidState)
	}

	policy, err := s.policies.GetPolicy(ctx, payment.Payer)
	if err != nil {
		return err
	}

	next := domain.StatusVerified
	if policy.AutoCompleteOnProof {
		next = domain.StatusCompleted
	}

	applied, err := s.payments.SetProofAttested(ctx, paymentID, fingerprint, payment.Status, next)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("payment %s changed concurrently: %w", paymentID, domain.ErrInvalidState)
	}

	s.record(ctx, paymentID, domain.EventProofVerified, agent, "fingerprint="+fingerprint)
	if next == domain.StatusCompleted {
		s.record(ctx, paymentID, domain.EventCompleted, agent, "auto_complete_on_proof")
	}
	return nil
}

func (s *ledgerService) CompletePayment(ctx context.Context, paymentID, caller string) error {
	unlock := s.locks.lock(paymentID)
	defer unlock()

	payment, err := s.mustGet(ctx, paymentID)
	if err != nil {
		return err
	}

	// Ownership is checked before status so an impostor learns nothing
	// about the payment's progress from the error kind.
	if caller != payment.Payer {
		return fmt.Errorf("only the original payer may complete payment %s: %w", paymentID, domain.ErrUnauthorized)
	}

	if payment.Status.Terminal() {
		return fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status, domain.ErrAlreadyTerminal)
	}
	if payment.Status != domain.StatusVerified {
		return fmt.Errorf("payment %s is %s, expected %s: %w",
			paymentID, payment.Status, domain.StatusVerified, domain.ErrInvalidState)
	}

	policy, err := s.policies.GetPolicy(ctx, payment.Payer)
	if err != nil {
		return err
	}
	if policy.ProofRequired && !payment.ProofVerified {
		return fmt.Errorf("payment %s requires a verified proof before completion: %w", paymentID, domain.ErrInvalidState)
	}

	applied, err := s.payments.SetCompleted(ctx, paymentID, payment.Status, time.Now().UTC())
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("payment %s changed concurrently: %w", paymentID, domain.ErrInvalidState)
	}

	s.record(ctx, paymentID, domain.EventCompleted, caller, "")
	return nil
}

func (s *ledgerService) RefundPayment(ctx context.Context, paymentID, agent, reason string) error {
	if err := s.requireAgent(ctx, agent); err != nil {
		return err
	}

	unlock := s.locks.lock(paymentID)
	defer unlock()

	return s.refundLocked(ctx, paymentID, agent, reason, domain.EventRefunded)
}

func (s *ledgerService) ExpirePayment(ctx context.Context, paymentID, agent string) error {
	if err := s.requireAgent(ctx, agent); err != nil {
		return err
	}

	unlock := s.locks.lock(paymentID)
	defer unlock()

	payment, err := s.mustGet(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != domain.StatusPending {
		// A racing transition moved the payment on; the sweep is best-effort.
		return nil
	}

	return s.refundLocked(ctx, paymentID, agent, "expired", domain.EventExpired)
}

func (s *ledgerService) refundLocked(ctx context.Context, paymentID, agent, reason string, event domain.EventType) error {
	payment, err := s.mustGet(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status.Terminal() {
		return fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status, domain.ErrAlreadyTerminal)
	}

	applied, err := s.payments.SetRefunded(ctx, paymentID, reason, payment.Status)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("payment %s changed concurrently: %w", paymentID, domain.ErrInvalidState)
	}

	s.record(ctx, paymentID, event, agent, "reason="+reason)
	return nil
}

func (s *ledgerService) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentView, error) {
	payment, err := s.mustGet(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return payment.View(), nil
}

func (s *ledgerService) GetHistory(ctx context.Context, paymentID string) ([]*domain.PaymentEvent, error) {
	if _, err := s.mustGet(ctx, paymentID); err != nil {
		return nil, err
	}
	return s.events.ListByPayment(ctx, paymentID)
}

func (s *ledgerService) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]*domain.PaymentView, error) {
	payments, err := s.payments.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	return views(payments), nil
}

func (s *ledgerService) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentView, error) {
	payments, err := s.payments.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return views(payments), nil
}

func (s *ledgerService) mustGet(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if err := validator.ValidatePaymentID(paymentID); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}
	return payment, nil
}

func (s *ledgerService) requireAgent(ctx context.Context, identity string) error {
	authorized, err := s.authz.IsAuthorized(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to check agent authorization: %w", err)
	}
	if !authorized {
		return fmt.Errorf("identity %s is not an authorized agent: %w", identity, domain.ErrUnauthorized)
	}
	return nil
}

// record appends an audit event. The transition has already committed, so a
// failing append is logged rather than surfaced to the caller.
func (s *ledgerService) record(ctx context.Context, paymentID string, t domain.EventType, actor, detail string) {
	err := s.events.Append(ctx, &domain.PaymentEvent{
		ID:         uuid.New().String(),
		PaymentID:  paymentID,
		Type:       t,
		Actor:      actor,
		Detail:     detail,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to record %s event for payment %s: %v", t, paymentID, err)
	}
}

func views(payments []*domain.Payment) []*domain.PaymentView {
	result := make([]*domain.PaymentView, 0, len(payments))
	for _, p := range payments {
		result = append(result, p.View())
	}
	return result
}
