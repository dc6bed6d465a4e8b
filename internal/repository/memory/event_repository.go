package memory

import (
	"context"
	"sync"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type eventRepository struct {
	mu     sync.RWMutex
	events []*domain.PaymentEvent
}

// NewEventRepository creates an empty in-memory audit log.
func NewEventRepository() repository.EventRepository {
	return &eventRepository{}
}

func (r *eventRepository) Append(ctx context.Context, e *domain.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *eventRepository) ListByPayment(ctx context.Context, paymentID string) ([]*domain.PaymentEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.PaymentEvent
	for _, e := range r.events {
		if e.PaymentID == paymentID {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result, nil
}
