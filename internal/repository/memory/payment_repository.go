// Package memory provides in-memory repository implementations guarded by
// mutexes. Used by the test suite and the no-database dev mode.
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

type paymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	sequence uint64
}

// NewPaymentRepository creates an empty in-memory payment store.
func NewPaymentRepository() repository.PaymentRepository {
	return &paymentRepository{payments: make(map[string]*domain.Payment)}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; exists {
		return fmt.Errorf("payment %s: %w", p.ID, domain.ErrConflict)
	}

	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *paymentRepository) NextSequence(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	return r.sequence, nil
}

func (r *paymentRepository) SetRiskScore(ctx context.Context, id string, score int32, from, to domain.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}

	p.RiskScore = &score
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *paymentRepository) SetProofAttested(ctx context.Context, id, fingerprint string, from, to domain.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}

	now := time.Now().UTC()
	p.ProofFingerprint = &fingerprint
	p.ProofVerified = true
	p.Status = to
	p.UpdatedAt = now
	if to == domain.StatusCompleted {
		p.CompletedAt = &now
	}
	return true, nil
}

func (r *paymentRepository) SetCompleted(ctx context.Context, id string, from domain.PaymentStatus, completedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}

	p.Status = domain.StatusCompleted
	p.CompletedAt = &completedAt
	p.UpdatedAt = completedAt
	return true, nil
}

func (r *paymentRepository) SetRefunded(ctx context.Context, id, reason string, from domain.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}

	p.Status = domain.StatusRefunded
	p.RefundReason = &reason
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Payment
	for _, p := range r.payments {
		if p.Status == status {
			cp := *p
			result = append(result, &cp)
		}
	}
	sortByCreation(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *paymentRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Payment
	for _, p := range r.payments {
		if p.Status == domain.StatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			result = append(result, &cp)
		}
	}
	sortByCreation(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sortByCreation(ps []*domain.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}
