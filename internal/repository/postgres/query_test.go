package postgres

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

// The single-row SELECTs are assembled from a shared column list. A missing
// separator glues the last column onto the FROM keyword and postgres rejects
// the statement, so check every keyword is preceded by whitespace.
func TestSelectStatementsKeepKeywordsSeparated(t *testing.T) {
	glued := regexp.MustCompile(`\S(FROM|WHERE|ORDER|LIMIT)\b`)

	queries := map[string]string{
		"selectPaymentByID":        selectPaymentByID,
		"selectProofByFingerprint": selectProofByFingerprint,
	}

	for name, query := range queries {
		if m := glued.FindString(query); m != "" {
			t.Errorf("%s: keyword glued to preceding token: %q", name, m)
		}
	}
}

// Column types in the schema must line up with what the repositories bind:
// []byte columns need BYTEA, and amount is carried as an opaque string.
func TestSchemaColumnTypesMatchBindings(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "schema.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	schema := string(data)

	checks := []struct {
		name    string
		pattern string
	}{
		{"encrypted_amount is BYTEA", `(?m)^\s*encrypted_amount\s+BYTEA`},
		{"encrypted_metadata is BYTEA", `(?m)^\s*encrypted_metadata\s+BYTEA`},
		{"public_input is nullable BYTEA", `(?m)^\s*public_input\s+BYTEA,`},
		{"amount is TEXT", `(?m)^\s*amount\s+TEXT`},
	}

	for _, c := range checks {
		if !regexp.MustCompile(c.pattern).MatchString(schema) {
			t.Errorf("%s: pattern %q not found in schema.sql", c.name, c.pattern)
		}
	}
}
