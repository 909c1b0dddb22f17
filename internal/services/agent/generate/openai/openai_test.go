package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate"
)

type capturedRequest struct {
	Path     string
	Auth     string
	Model    string
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
}

func newCompletionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if captured != nil {
			captured.Path = r.URL.Path
			captured.Auth = r.Header.Get("Authorization")
			captured.Model = payload.Model
			captured.Messages = payload.Messages
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerateSendsConversation(t *testing.T) {
	var captured capturedRequest
	server := newCompletionServer(t, http.StatusOK, `{
		"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hi Alice!"}}]
	}`, &captured)

	g, err := New(Config{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-test", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := g.Generate(context.Background(), []generate.Turn{
		{Role: generate.RoleSystem, Text: "be kind"},
		{Role: generate.RoleUser, Text: "New message from Alice: hi"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Text != "Hi Alice!" {
		t.Fatalf("text = %q, want Hi Alice!", result.Text)
	}
	if captured.Path != "/chat/completions" {
		t.Fatalf("path = %q", captured.Path)
	}
	if captured.Auth != "Bearer sk-test" {
		t.Fatalf("auth = %q", captured.Auth)
	}
	if captured.Model != "gpt-test" {
		t.Fatalf("model = %q", captured.Model)
	}
	gotRoles := []string{}
	for _, m := range captured.Messages {
		gotRoles = append(gotRoles, m.Role+":"+m.Content)
	}
	want := []string{"system:be kind", "user:New message from Alice: hi"}
	if diff := cmp.Diff(want, gotRoles); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newCompletionServer(t, tt.status, tt.body, nil)
			g, err := New(Config{APIKey: "sk-test", BaseURL: server.URL, HTTPClient: server.Client()})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = g.Generate(context.Background(), []generate.Turn{{Role: generate.RoleUser, Text: "hi"}})
			if !apperrors.HasCode(err, apperrors.CodeGenerate) {
				t.Fatalf("err = %v, want generation code", err)
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
