package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGroqClient(t *testing.T) {
	var got groqRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write([]byte(`{"model":"llama-test","choices":[{"message":{"role":"assistant","content":"{\"title\":\"Soup\"}"}}],
			"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`))
	}))
	defer ts.Close()

	t.Run("GenerateContent", func(t *testing.T) {
		c, err := NewGroqClient("test-key", "", WithGroqURL(ts.URL))
		if err != nil {
			t.Fatalf("NewGroqClient failed: %v", err)
		}
		resp, err := c.GenerateContent(context.Background(), "extract")
		if err != nil {
			t.Fatalf("GenerateContent failed: %v", err)
		}
		if resp.Content != `{"title":"Soup"}` {
			t.Errorf("unexpected content %q", resp.Content)
		}
		if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 4 || resp.Usage.Model != "llama-test" {
			t.Errorf("unexpected usage %+v", resp.Usage)
		}
		if got.Model != DefaultGroqModel || got.ResponseFormat["type"] != "json_object" || got.Messages[0].Content != "extract" {
			t.Errorf("unexpected request %+v", got)
		}
	})

	t.Run("APIError", func(t *testing.T) {
		c, _ := NewGroqClient("wrong-key", "m", WithGroqURL(ts.URL))
		_, err := c.GenerateContent(context.Background(), "extract")
		if err == nil || !strings.Contains(err.Error(), "status=401") {
			t.Errorf("expected a status error, got %v", err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		if _, err := NewGroqClient("", "m"); err == nil {
			t.Error("expected an error without an api key")
		}
	})
}
