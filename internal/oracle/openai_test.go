package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"```json\n{\"plan\": \"x\"}\n```", `{"plan": "x"}`},
		{"```\nplain\n```", "plain"},
		{"  SELECT 2  ", "SELECT 2"},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "```sql\nSELECT 42;\n```"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Model: "test-model"})
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	got, err := client.Complete(context.Background(), "how many?")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "SELECT 42;" {
		t.Fatalf("completion = %q", got)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestOpenAIClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "key"})
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	if _, err := client.Complete(context.Background(), "q"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestNewOpenAIClientValidation(t *testing.T) {
	if _, err := NewOpenAIClient(OpenAIConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error without base URL")
	}
	if _, err := NewOpenAIClient(OpenAIConfig{BaseURL: "http://x"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
