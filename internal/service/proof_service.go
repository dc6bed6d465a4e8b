package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
	"github.com/mja2001/SolCipher-Cronos/internal/validator"
	"github.com/mja2001/SolCipher-Cronos/internal/verifier"
)

// ProofService records proof submissions and drives their cryptographic
// verification. Submissions are write-once; verification latches one way.
type ProofService interface {
	// Submit records a new attestation for the fingerprint, bound to the
	// payment it attests to. The fingerprint must be the hex SHA-256 of the
	// proof's canonical bytes.
	Submit(ctx context.Context, fingerprint, paymentID string, publicInput []byte, submitter string) error

	// Verify runs the cryptographic capability over the submitted proof
	// material and latches the attestation on success. A negative result is
	// recorded on the attestation and the proof stays resubmittable.
	Verify(ctx context.Context, fingerprint string, agent string, proof []byte) (bool, error)

	// BatchVerify is a best-effort administrative sweep: entries that are
	// unknown, already verified, or malformed are skipped, never failing
	// the rest of the batch.
	BatchVerify(ctx context.Context, agent string, fingerprints []string, proofs [][]byte) error

	// Get returns the attestation for a fingerprint.
	Get(ctx context.Context, fingerprint string) (*domain.ProofAttestation, error)

	// GetByPayment returns the newest attestation bound to a payment, or
	// (nil, nil) when none was submitted.
	GetByPayment(ctx context.Context, paymentID string) (*domain.ProofAttestation, error)
}

type proofService struct {
	repo     repository.ProofRepository
	payments repository.PaymentRepository
	authz    AuthzService
	verifier verifier.Verifier
}

// NewProofService creates the attestation registry with the injected
// verification capability.
func NewProofService(repo repository.ProofRepository, payments repository.PaymentRepository, authz AuthzService, v verifier.Verifier) ProofService {
	return &proofService{repo: repo, payments: payments, authz: authz, verifier: v}
}

func (s *proofService) Submit(ctx context.Context, fingerprint, paymentID string, publicInput []byte, submitter string) error {
	if !domain.ValidFingerprint(fingerprint) {
		return fmt.Errorf("fingerprint must be non-zero 64-char hex: %w", domain.ErrInvalidInput)
	}
	if err := validator.ValidatePaymentID(paymentID); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}

	attestation := &domain.ProofAttestation{
		Fingerprint: fingerprint,
		PaymentID:   paymentID,
		PublicInput: publicInput,
		Submitter:   submitter,
		SubmittedAt: time.Now().UTC(),
	}

	// The repository refuses overwrites, so a duplicate fingerprint keeps
	// the first submission's public input.
	if err := s.repo.Create(ctx, attestation); err != nil {
		return err
	}

	return nil
}

func (s *proofService) Verify(ctx context.Context, fingerprint string, agent string, proof []byte) (bool, error) {
	if err := s.requireAgent(ctx, agent); err != nil {
		return false, err
	}

	attestation, err := s.repo.Get(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("failed to get attestation: %w", err)
	}
	if attestation == nil {
		return false, fmt.Errorf("proof %s: %w", fingerprint, domain.ErrNotFound)
	}
	if attestation.Verified {
		return false, fmt.Errorf("proof %s already verified: %w", fingerprint, domain.ErrConflict)
	}

	// The submitted material must hash to the recorded fingerprint, so a
	// verification result can never be attached to someone else's
	// submission.
	digest := sha256.Sum256(proof)
	if hex.EncodeToString(digest[:]) != fingerprint {
		return false, fmt.Errorf("proof bytes do not match fingerprint %s: %w", fingerprint, domain.ErrInvalidInput)
	}

	valid, err := s.verifier.Verify(proof, attestation.PublicInput)
	if err != nil {
		if recErr := s.repo.RecordFailure(ctx, fingerprint, err.Error()); recErr != nil {
			log.Printf("failed to record verification error for proof %s: %v", fingerprint, recErr)
		}
		return false, fmt.Errorf("proof verification errored: %w", err)
	}
	if !valid {
		if recErr := s.repo.RecordFailure(ctx, fingerprint, "proof rejected by verifier"); recErr != nil {
			log.Printf("failed to record verification failure for proof %s: %v", fingerprint, recErr)
		}
		return false, nil
	}

	latched, err := s.repo.MarkVerified(ctx, fingerprint, agent, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to latch attestation: %w", err)
	}
	if !latched {
		return false, fmt.Errorf("proof %s already verified: %w", fingerprint, domain.ErrConflict)
	}

	return true, nil
}

func (s *proofService) BatchVerify(ctx context.Context, agent string, fingerprints []string, proofs [][]byte) error {
	if err := s.requireAgent(ctx, agent); err != nil {
		return err
	}
	if len(fingerprints) != len(proofs) {
		return fmt.Errorf("fingerprint and proof counts differ (%d vs %d): %w",
			len(fingerprints), len(proofs), domain.ErrInvalidInput)
	}

	for i, fp := range fingerprints {
		attestation, err := s.repo.Get(ctx, fp)
		if err != nil {
			log.Printf("batch verify: lookup failed for proof %s: %v", fp, err)
			continue
		}
		if attestation == nil || attestation.Verified {
			continue
		}

		if _, err := s.Verify(ctx, fp, agent, proofs[i]); err != nil {
			log.Printf("batch verify: proof %s skipped: %v", fp, err)
		}
	}

	return nil
}

func (s *proofService) Get(ctx context.Context, fingerprint string) (*domain.ProofAttestation, error) {
	attestation, err := s.repo.Get(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation: %w", err)
	}
	if attestation == nil {
		return nil, fmt.Errorf("proof %s: %w", fingerprint, domain.ErrNotFound)
	}
	return attestation, nil
}

func (s *proofService) GetByPayment(ctx context.Context, paymentID string) (*domain.ProofAttestation, error) {
	attestation, err := s.repo.GetByPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation by payment: %w", err)
	}
	return attestation, nil
}

func (s *proofService) requireAgent(ctx context.Context, identity string) error {
	authorized, err := s.authz.IsAuthorized(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to check agent authorization: %w", err)
	}
	if !authorized {
		return fmt.Errorf("identity %s is not an authorized agent: %w", identity, domain.ErrUnauthorized)
	}
	return nil
}
