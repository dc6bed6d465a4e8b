// Package validator holds input validation helpers shared by the service and
// handler layers.
package validator

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Regex patterns for validation
var (
	// Payment identifiers and proof fingerprints: 32-byte lowercase hex
	HexIDRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

	// Identities: 0x-prefixed 20-byte hex addresses or opaque handles of
	// reasonable length
	IdentityRegex = regexp.MustCompile(`^(0x[0-9a-fA-F]{40}|[A-Za-z0-9._\-]{1,128})$`)
)

// ValidatePaymentID validates a content-derived payment identifier.
func ValidatePaymentID(id string) error {
	if id == "" {
		return fmt.Errorf("payment id is required")
	}

	if !HexIDRegex.MatchString(id) {
		return fmt.Errorf("invalid payment id: must be 64 lowercase hex characters")
	}

	return nil
}

// ValidateIdentity validates a payer or agent identity.
func ValidateIdentity(identity string) error {
	if identity == "" {
		return fmt.Errorf("identity is required")
	}

	if !IdentityRegex.MatchString(identity) {
		return fmt.Errorf("invalid identity format")
	}

	return nil
}

// ValidateAmount validates a cleartext decimal amount. The ledger rejects
// zero and negative amounts at creation.
func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount is required")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %v", err)
	}

	if !d.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}

	return nil
}
