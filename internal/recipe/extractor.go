package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"pantry-planner/internal/llm"
)

//go:embed extractor_prompt.md
var extractorPrompt string

// maxPageText bounds the page text sent to the model.
const maxPageText = 20000

// PageData is the cleaned page handed to the extractor prompt.
type PageData struct {
	Title     string
	SourceURL string
	Text      string
}

type extractedRecipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
}

// ExtractIngredients asks the model for the ingredient lines on a recipe page
// and parses them. The returned meta is filled even when decoding fails so the
// caller can still record token usage.
func ExtractIngredients(ctx context.Context, textGen llm.TextGenerator, data PageData) (*Recipe, llm.CallMeta, error) {
	start := time.Now()
	meta := llm.CallMeta{Operation: "extract_ingredients"}

	if len(data.Text) > maxPageText {
		data.Text = data.Text[:maxPageText]
	}

	prompt, err := buildExtractorPrompt(data)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	resp, err := textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)

	var out extractedRecipe
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &out); err != nil {
		return nil, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	title := strings.TrimSpace(out.Title)
	if title == "" {
		title = data.Title
	}
	return &Recipe{
		Title:       title,
		SourceURL:   data.SourceURL,
		Ingredients: ParseIngredientLines(out.Ingredients),
	}, meta, nil
}

func buildExtractorPrompt(data PageData) (string, error) {
	tmpl, err := template.New("extractor").Parse(extractorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripCodeFence removes a ```json fence some models add despite the prompt.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
