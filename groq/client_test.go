package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", r.Header.Get("Authorization"))
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "llama3-8b-8192" {
			t.Errorf("unexpected model: %v", req["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Alice: starter=3"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "", nil).WithBaseURL(srv.URL)
	out, err := c.Complete(context.Background(), "score this", 500)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Alice: starter=3" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	c := NewClient("bad-key", "", nil).WithBaseURL(srv.URL)
	if _, err := c.Complete(context.Background(), "hi", 100); err == nil {
		t.Fatal("expected api error")
	}
}

func TestCompleteMissingKey(t *testing.T) {
	c := NewClient("", "", nil)
	if _, err := c.Complete(context.Background(), "hi", 100); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
