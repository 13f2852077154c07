package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGeminiServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOracle(t *testing.T, srv *httptest.Server) *GeminiOracle {
	t.Helper()
	oracle, err := NewGeminiOracle(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		Model:      "gemini-test",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewGeminiOracle failed: %v", err)
	}
	return oracle
}

func TestNewGeminiOracle_RequiresKey(t *testing.T) {
	if _, err := NewGeminiOracle(context.Background(), GeminiConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestGeminiOracle_Text(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK, `{
		"candidates": [{
			"content": {"role": "model", "parts": [{"text": "Incident "}, {"text": "Summary"}]}
		}]
	}`, nil)

	got, err := newTestOracle(t, srv).Complete(context.Background(), Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Text != "Incident Summary" || got.Drafted {
		t.Errorf("Completion = %+v", got)
	}
}

func TestGeminiOracle_DraftToolCall(t *testing.T) {
	var seen map[string]any
	srv := newGeminiServer(t, http.StatusOK, `{
		"candidates": [{
			"content": {"role": "model", "parts": [{
				"functionCall": {"name": "generateFIRDraft", "args": {"incident": "Wallet stolen on bus 42"}}
			}]}
		}]
	}`, &seen)

	got, err := newTestOracle(t, srv).Complete(context.Background(), Request{Prompt: "draft", DraftTool: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !got.Drafted || got.Incident != "Wallet stolen on bus 42" {
		t.Errorf("Completion = %+v", got)
	}

	if _, ok := seen["tools"]; !ok {
		t.Errorf("request should declare tools, got %v", seen)
	}
}

func TestGeminiOracle_Faults(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no candidates", http.StatusOK, `{"candidates": []}`, ErrNoCandidates},
		{"empty text", http.StatusOK, `{"candidates": [{"content": {"parts": [{"text": "  "}]}}]}`, ErrEmptyReply},
		{"server error", http.StatusInternalServerError, `{"error": {"code": 500, "message": "boom"}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newGeminiServer(t, tt.status, tt.body, nil)

			_, err := newTestOracle(t, srv).Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
