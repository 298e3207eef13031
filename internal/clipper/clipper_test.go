package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pantry-planner/internal/llm"
)

// --- Mocks ---
type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response, Usage: llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5}}, nil
}

type MockUsageRecorder struct {
	Metas []llm.CallMeta
}

func (m *MockUsageRecorder) RecordMeta(meta llm.CallMeta) error {
	m.Metas = append(m.Metas, meta)
	return nil
}

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Tests ---

func TestClipJSONLD(t *testing.T) {
	ts := serve(t, `
	<html><head><title>Site</title>
	<script type="application/ld+json">
	{"@context": "https://schema.org", "@graph": [
		{"@type": "WebPage", "name": "Page"},
		{"@type": ["Recipe"], "name": "Tomato Soup",
		 "recipeIngredient": ["1 kg tomatoes", "2 cloves garlic", "salt"]}
	]}
	</script></head>
	<body><h1>Tomato Soup Blog</h1></body></html>`)

	mockAI := &MockTextGenerator{}
	c := NewClipper(mockAI, nil, nil)

	rec, err := c.Clip(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}
	if rec.Title != "Tomato Soup" {
		t.Errorf("Expected title 'Tomato Soup', got '%s'", rec.Title)
	}
	if len(rec.Ingredients) != 3 {
		t.Fatalf("Expected 3 ingredients, got %d", len(rec.Ingredients))
	}
	if rec.Ingredients[0].Unit != "kg" || *rec.Ingredients[0].Quantity != 1 {
		t.Errorf("unexpected first ingredient %+v", rec.Ingredients[0])
	}
	if rec.SourceURL != ts.URL {
		t.Errorf("Expected source url %s, got %s", ts.URL, rec.SourceURL)
	}
	if mockAI.Prompt != "" {
		t.Error("AI should not be called when JSON-LD is present")
	}
}

func TestClipIngredientList(t *testing.T) {
	ts := serve(t, `
	<html><body>
		<h1>Pancakes</h1>
		<div class="wprm-recipe-ingredients">
			<ul>
				<li>200 g flour</li>
				<li>2   eggs</li>
				<li>200 g flour</li>
			</ul>
		</div>
		<ul class="related"><li>Other recipes</li></ul>
	</body></html>`)

	c := NewClipper(nil, nil, nil)
	rec, err := c.Clip(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}
	if rec.Title != "Pancakes" {
		t.Errorf("Expected h1 title, got %q", rec.Title)
	}
	if len(rec.Ingredients) != 2 {
		t.Fatalf("Expected 2 distinct ingredients, got %+v", rec.Ingredients)
	}
	if rec.Ingredients[1].Name != "eggs" {
		t.Errorf("Expected eggs, got %q", rec.Ingredients[1].Name)
	}
}

func TestClipFallsBackToAI(t *testing.T) {
	ts := serve(t, `
	<html>
		<head><script>alert('bad');</script></head>
		<body>
			<h1>Tasty Recipe</h1>
			<div class="ads">Buy stuff!</div>
			<p>You need 300 g rice and one onion.</p>
			<footer>Copyright 2024</footer>
		</body>
	</html>`)

	mockAI := &MockTextGenerator{Response: `{"title": "Rice", "ingredients": ["300 g rice", "1 onion"]}`}
	usage := &MockUsageRecorder{}
	c := NewClipper(mockAI, usage, nil)

	rec, err := c.Clip(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}
	if len(rec.Ingredients) != 2 {
		t.Fatalf("Expected 2 ingredients, got %d", len(rec.Ingredients))
	}

	if strings.Contains(mockAI.Prompt, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(mockAI.Prompt, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(mockAI.Prompt, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	if !strings.Contains(mockAI.Prompt, "You need 300 g rice") {
		t.Error("Expected body content in prompt")
	}
	if len(usage.Metas) != 1 || usage.Metas[0].Usage.PromptTokens != 10 {
		t.Errorf("Expected usage to be recorded, got %+v", usage.Metas)
	}
}

func TestClipErrors(t *testing.T) {
	t.Run("NoIngredientsWithoutAI", func(t *testing.T) {
		ts := serve(t, `<html><body><p>Nothing here</p></body></html>`)
		_, err := NewClipper(nil, nil, nil).Clip(context.Background(), ts.URL)
		if !errors.Is(err, ErrNoIngredients) {
			t.Errorf("Expected ErrNoIngredients, got %v", err)
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer ts.Close()
		_, err := NewClipper(nil, nil, nil).Clip(context.Background(), ts.URL)
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("Expected status error, got %v", err)
		}
	})

	t.Run("AIError", func(t *testing.T) {
		ts := serve(t, `<html><body><p>Some Content</p></body></html>`)
		_, err := NewClipper(&MockTextGenerator{ShouldError: true}, nil, nil).Clip(context.Background(), ts.URL)
		if err == nil {
			t.Error("Expected error from AI fallback")
		}
	})
}
