package memory

import (
	"context"
	"sync"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type policyRepository struct {
	mu       sync.RWMutex
	policies map[string]*domain.PrivacyPolicy
}

// NewPolicyRepository creates an empty in-memory policy store.
func NewPolicyRepository() repository.PolicyRepository {
	return &policyRepository{policies: make(map[string]*domain.PrivacyPolicy)}
}

func (r *policyRepository) Upsert(ctx context.Context, p *domain.PrivacyPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.policies[p.Payer] = &cp
	return nil
}

func (r *policyRepository) Get(ctx context.Context, payer string) (*domain.PrivacyPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[payer]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
