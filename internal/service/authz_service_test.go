package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository/memory"
)

func TestAuthzService(t *testing.T) {
	ctx := context.Background()

	t.Run("Admin is always authorized", func(t *testing.T) {
		svc := NewAuthzService(memory.NewAgentRepository(), testAdmin)

		authorized, err := svc.IsAuthorized(ctx, testAdmin)
		if err != nil {
			t.Fatalf("IsAuthorized() error = %v", err)
		}
		if !authorized {
			t.Error("admin must be authorized without a grant")
		}
	})

	t.Run("Unknown identity is not authorized", func(t *testing.T) {
		svc := NewAuthzService(memory.NewAgentRepository(), testAdmin)

		authorized, err := svc.IsAuthorized(ctx, "stranger")
		if err != nil {
			t.Fatalf("IsAuthorized() error = %v", err)
		}
		if authorized {
			t.Error("unknown identity must not be authorized")
		}
	})

	t.Run("Grant and revoke", func(t *testing.T) {
		svc := NewAuthzService(memory.NewAgentRepository(), testAdmin)

		if err := svc.SetAuthorization(ctx, testAdmin, testAgent, true); err != nil {
			t.Fatalf("SetAuthorization(grant) error = %v", err)
		}
		authorized, err := svc.IsAuthorized(ctx, testAgent)
		if err != nil {
			t.Fatalf("IsAuthorized() error = %v", err)
		}
		if !authorized {
			t.Error("granted agent must be authorized")
		}

		if err := svc.SetAuthorization(ctx, testAdmin, testAgent, false); err != nil {
			t.Fatalf("SetAuthorization(revoke) error = %v", err)
		}
		authorized, err = svc.IsAuthorized(ctx, testAgent)
		if err != nil {
			t.Fatalf("IsAuthorized() error = %v", err)
		}
		if authorized {
			t.Error("revoked agent must not be authorized")
		}
	})

	t.Run("Only the admin may mutate", func(t *testing.T) {
		svc := NewAuthzService(memory.NewAgentRepository(), testAdmin)

		err := svc.SetAuthorization(ctx, testAgent, "accomplice", true)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("SetAuthorization() by non-admin error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("Invalid identity is rejected", func(t *testing.T) {
		svc := NewAuthzService(memory.NewAgentRepository(), testAdmin)

		err := svc.SetAuthorization(ctx, testAdmin, "not a valid identity!!", true)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("SetAuthorization() with bad identity error = %v, want ErrInvalidInput", err)
		}
	})
}
