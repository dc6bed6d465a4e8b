package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type proofRepository struct {
	mu     sync.RWMutex
	proofs map[string]*domain.ProofAttestation
}

// NewProofRepository creates an empty in-memory attestation store.
func NewProofRepository() repository.ProofRepository {
	return &proofRepository{proofs: make(map[string]*domain.ProofAttestation)}
}

func (r *proofRepository) Create(ctx context.Context, a *domain.ProofAttestation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.proofs[a.Fingerprint]; exists {
		return fmt.Errorf("proof %s: %w", a.Fingerprint, domain.ErrConflict)
	}

	cp := *a
	r.proofs[a.Fingerprint] = &cp
	return nil
}

func (r *proofRepository) Get(ctx context.Context, fingerprint string) (*domain.ProofAttestation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.proofs[fingerprint]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *proofRepository) GetByPayment(ctx context.Context, paymentID string) (*domain.ProofAttestation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *domain.ProofAttestation
	for _, a := range r.proofs {
		if a.PaymentID != paymentID {
			continue
		}
		if newest == nil || a.SubmittedAt.After(newest.SubmittedAt) {
			newest = a
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (r *proofRepository) MarkVerified(ctx context.Context, fingerprint, verifier string, verifiedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.proofs[fingerprint]
	if !ok || a.Verified {
		return false, nil
	}

	a.Verified = true
	a.Verifier = &verifier
	a.VerifiedAt = &verifiedAt
	a.LastError = nil
	return true, nil
}

func (r *proofRepository) RecordFailure(ctx context.Context, fingerprint, verifyErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.proofs[fingerprint]
	if !ok {
		return fmt.Errorf("proof %s: %w", fingerprint, domain.ErrNotFound)
	}

	a.FailureCount++
	a.LastError = &verifyErr
	return nil
}

func (r *proofRepository) ListUnverified(ctx context.Context, limit int) ([]*domain.ProofAttestation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.ProofAttestation
	for _, a := range r.proofs {
		if !a.Verified {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
