package riskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientScore(t *testing.T) {
	t.Run("Successful assessment", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/score" {
				t.Errorf("path = %s, want /v1/score", r.URL.Path)
			}
			var req ScoreRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if req.Sender == "" {
				t.Error("request missing sender")
			}
			json.NewEncoder(w).Encode(ScoreResponse{Score: 42, Factors: []string{"velocity"}})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		resp, err := client.Score(context.Background(), ScoreRequest{
			Sender:          "0x1111111111111111111111111111111111111111",
			RecipientRef:    "recipient-hash",
			Token:           "USDC",
			EncryptedAmount: []byte("opaque"),
		})
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if resp.Score != 42 {
			t.Errorf("Score = %d, want 42", resp.Score)
		}
	})

	t.Run("Server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		if _, err := client.Score(context.Background(), ScoreRequest{Sender: "alice"}); err == nil {
			t.Error("Score() error = nil, want error for 500 response")
		}
	})

	t.Run("Out-of-range score", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ScoreResponse{Score: 250})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		if _, err := client.Score(context.Background(), ScoreRequest{Sender: "alice"}); err == nil {
			t.Error("Score() error = nil, want error for out-of-range score")
		}
	})

	t.Run("Unreachable service", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if _, err := client.Score(context.Background(), ScoreRequest{Sender: "alice"}); err == nil {
			t.Error("Score() error = nil, want connection error")
		}
	})
}
