package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		role     string
		wantErr  bool
	}{
		{"Payer token", "0x1111111111111111111111111111111111111111", RolePayer, false},
		{"Agent token", "settlement-agent", RoleAgent, false},
		{"Admin token", "admin-1", RoleAdmin, false},
		{"Unknown role", "someone", "superuser", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(testSecret, tt.identity, tt.role, DefaultTokenExpiry)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			claims, err := ParseToken(testSecret, token)
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			if claims.Identity != tt.identity {
				t.Errorf("Identity = %s, want %s", claims.Identity, tt.identity)
			}
			if claims.Role != tt.role {
				t.Errorf("Role = %s, want %s", claims.Role, tt.role)
			}
		})
	}
}

func TestParseTokenRejections(t *testing.T) {
	valid, err := GenerateToken(testSecret, "alice", RolePayer, DefaultTokenExpiry)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	expired, err := GenerateToken(testSecret, "alice", RolePayer, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"Wrong secret", "other-secret", valid},
		{"Expired", testSecret, expired},
		{"Garbage", testSecret, "not.a.token"},
		{"Empty", testSecret, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("ParseToken() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}
