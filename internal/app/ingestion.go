package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pantry-planner/internal/metrics"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"
)

// ErrNoClipper is returned when a URL import is requested without a clipper.
var ErrNoClipper = errors.New("recipe import is not configured")

// ImportResult is what a recipe import added to the list.
type ImportResult struct {
	Recipe *recipe.Recipe
	Cached bool
	Merge  shopping.MergeResult
}

// ImportRecipe clips url, remembers the recipe, and reconciles its
// ingredients into the user's list. A URL imported before is served from the
// recipe repository without fetching the page again.
func (a *App) ImportRecipe(ctx context.Context, userID, url string) (ImportResult, error) {
	var res ImportResult

	if a.Recipes != nil {
		cached, err := a.Recipes.GetBySourceURL(ctx, url)
		if err != nil {
			a.logger.Warn("recipe cache lookup failed", "url", url, "error", err)
		}
		if cached != nil {
			res.Recipe, res.Cached = cached, true
		}
	}

	if res.Recipe == nil {
		if a.Clipper == nil {
			return res, ErrNoClipper
		}
		rec, err := a.Clipper.Clip(ctx, url)
		if err != nil {
			return res, fmt.Errorf("failed to import %s: %w", url, err)
		}
		if a.Recipes != nil {
			if err := a.Recipes.Save(ctx, rec); err != nil {
				a.logger.Warn("failed to save recipe", "url", url, "error", err)
			}
		}
		res.Recipe = rec
	}

	merge, err := a.Shopping.AddRecipes(ctx, userID, *res.Recipe)
	res.Merge = merge
	if err != nil {
		return res, err
	}

	a.logger.Info("recipe imported",
		"user_id", userID,
		"title", res.Recipe.Title,
		"cached", res.Cached,
		"inserted", len(merge.Inserted),
		"updated", len(merge.Updated),
	)
	return res, nil
}

// AddRecipeLines parses free-text ingredient lines and reconciles them into
// the user's list under origin.
func (a *App) AddRecipeLines(ctx context.Context, userID, origin string, lines []string) (shopping.MergeResult, error) {
	ingredients := recipe.ParseIngredientLines(lines)
	if len(ingredients) == 0 {
		return shopping.MergeResult{}, fmt.Errorf("no ingredients found in %d lines: %w", len(lines), shopping.ErrEmptyName)
	}
	return a.Shopping.AddIngredients(ctx, userID, ingredients, strings.TrimSpace(origin))
}

// AddLine adds a single typed line such as "2 kg potatoes". The pantry is
// not consulted for manual entries.
func (a *App) AddLine(ctx context.Context, userID, line string) (shopping.MergeResult, error) {
	ing, ok := recipe.ParseIngredientLine(line)
	if !ok {
		return shopping.MergeResult{}, shopping.ErrEmptyName
	}
	l, err := a.Shopping.List(ctx, userID)
	if err != nil {
		return shopping.MergeResult{}, err
	}
	return l.Add(ctx, ing.Name, ing.Quantity, ing.Unit, "")
}

// UsageReport returns recent model usage and process health.
func (a *App) UsageReport(days int) ([]metrics.DailyUsage, metrics.Health, error) {
	health := metrics.CheckHealth(a.DataDir)
	if a.Metrics == nil {
		return nil, health, nil
	}
	usage, err := a.Metrics.GetDailyUsage(days)
	if err != nil {
		return nil, health, fmt.Errorf("failed to fetch usage: %w", err)
	}
	return usage, health, nil
}
