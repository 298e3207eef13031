package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/logging"
	"pantry-planner/internal/recipe"
)

// ErrNoIngredients is returned when a page yields no ingredient lines.
var ErrNoIngredients = errors.New("no ingredients found on page")

// UsageRecorder records model usage. metrics.Store satisfies it.
type UsageRecorder interface {
	RecordMeta(meta llm.CallMeta) error
}

// Clipper fetches recipe pages and extracts their ingredients.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	usage      UsageRecorder
	logger     *slog.Logger
}

// NewClipper creates a new Clipper. textGen and usage may be nil; without a
// text generator only structured and list markup is used.
func NewClipper(textGen llm.TextGenerator, usage UsageRecorder, logger *slog.Logger) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
		usage:      usage,
		logger:     logging.NewComponentLogger(logger, "clipper"),
	}
}

// Clip fetches url and returns the recipe found there. Schema.org JSON-LD is
// preferred, then ingredient lists in the markup, then the text generator.
func (c *Clipper) Clip(ctx context.Context, url string) (*recipe.Recipe, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	title := pageTitle(doc)
	if rec := fromJSONLD(doc); rec != nil && len(rec.Ingredients) > 0 {
		rec.SourceURL = url
		if rec.Title == "" {
			rec.Title = title
		}
		c.logger.Debug("recipe found in json-ld", "url", url, "ingredients", len(rec.Ingredients))
		return rec, nil
	}

	if lines := ingredientListItems(doc); len(lines) > 0 {
		if ings := recipe.ParseIngredientLines(lines); len(ings) > 0 {
			c.logger.Debug("recipe found in markup", "url", url, "ingredients", len(ings))
			return &recipe.Recipe{Title: title, SourceURL: url, Ingredients: ings}, nil
		}
	}

	if c.textGen == nil {
		return nil, ErrNoIngredients
	}

	rec, meta, err := recipe.ExtractIngredients(ctx, c.textGen, recipe.PageData{
		Title:     title,
		SourceURL: url,
		Text:      cleanText(doc),
	})
	if c.usage != nil {
		if rerr := c.usage.RecordMeta(meta); rerr != nil {
			c.logger.Warn("failed to record usage", "error", rerr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	if len(rec.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	return rec, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "pantry-planner/1.0 (+recipe import)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func pageTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ingredientListItems collects list items inside elements whose class or id
// mentions "ingredient".
func ingredientListItems(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var lines []string
	doc.Find(`[class*="ingredient"] li, [id*="ingredient"] li, li[class*="ingredient"]`).Each(func(_ int, s *goquery.Selection) {
		line := strings.Join(strings.Fields(s.Text()), " ")
		if line == "" || seen[line] {
			return
		}
		seen[line] = true
		lines = append(lines, line)
	})
	return lines
}

// cleanText strips noise to save tokens and returns the body text.
func cleanText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, iframe, noscript, .ads, #ads, .comments").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

func fromJSONLD(doc *goquery.Document) *recipe.Recipe {
	var found *recipe.Recipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if node := findRecipeNode(data); node != nil {
			found = recipeFromNode(node)
			return false
		}
		return true
	})
	return found
}

func findRecipeNode(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if n := findRecipeNode(el); n != nil {
				return n
			}
		}
	case map[string]any:
		if isRecipeType(t["@type"]) {
			return t
		}
		if g, ok := t["@graph"]; ok {
			return findRecipeNode(g)
		}
	}
	return nil
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "Recipe")
	case []any:
		for _, el := range t {
			if s, ok := el.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

func recipeFromNode(node map[string]any) *recipe.Recipe {
	var lines []string
	switch t := node["recipeIngredient"].(type) {
	case []any:
		for _, el := range t {
			if s, ok := el.(string); ok {
				lines = append(lines, s)
			}
		}
	case string:
		lines = strings.Split(t, "\n")
	}
	title, _ := node["name"].(string)
	return &recipe.Recipe{
		Title:       strings.TrimSpace(title),
		Ingredients: recipe.ParseIngredientLines(lines),
	}
}
