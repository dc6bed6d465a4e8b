package memory

import (
	"context"
	"sync"

	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type agentRepository struct {
	mu     sync.RWMutex
	agents map[string]bool
}

// NewAgentRepository creates an empty in-memory authorization list.
func NewAgentRepository() repository.AgentRepository {
	return &agentRepository{agents: make(map[string]bool)}
}

func (r *agentRepository) Set(ctx context.Context, identity string, authorized bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if authorized {
		r.agents[identity] = true
	} else {
		delete(r.agents, identity)
	}
	return nil
}

func (r *agentRepository) IsAuthorized(ctx context.Context, identity string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.agents[identity], nil
}
