package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pantry-planner/internal/app"
	"pantry-planner/internal/clipper"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"
)

type handler struct {
	app    *app.App
	logger *slog.Logger
}

// fail maps domain errors to status codes.
func (h *handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shopping.ErrNotFound), errors.Is(err, pantry.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shopping.ErrEmptyName), errors.Is(err, pantry.ErrEmptyName):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrNoClipper):
		status = http.StatusNotImplemented
	case errors.Is(err, clipper.ErrNoIngredients):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "user_id", currentUser(c), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mergeResponse(res shopping.MergeResult) gin.H {
	return gin.H{
		"items":    res.Items,
		"inserted": len(res.Inserted),
		"updated":  len(res.Updated),
	}
}

func (h *handler) listItems(c *gin.Context) {
	l, err := h.app.Shopping.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": l.Items()})
}

func (h *handler) addItem(c *gin.Context) {
	var req struct {
		Line     string   `json:"line"`
		Name     string   `json:"name"`
		Quantity *float64 `json:"quantity"`
		Unit     string   `json:"unit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	userID := currentUser(c)

	var (
		res shopping.MergeResult
		err error
	)
	if req.Line != "" {
		res, err = h.app.AddLine(ctx, userID, req.Line)
	} else {
		var l *shopping.List
		if l, err = h.app.Shopping.List(ctx, userID); err == nil {
			res, err = l.Add(ctx, req.Name, req.Quantity, req.Unit, "")
		}
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, mergeResponse(res))
}

func (h *handler) addRecipe(c *gin.Context) {
	var req struct {
		Origin      string              `json:"origin"`
		Ingredients []recipe.Ingredient `json:"ingredients"`
		Lines       []string            `json:"lines"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ingredients := append(req.Ingredients, recipe.ParseIngredientLines(req.Lines)...)
	if len(ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no ingredients given"})
		return
	}

	res, err := h.app.Shopping.AddIngredients(c.Request.Context(), currentUser(c), ingredients, req.Origin)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, mergeResponse(res))
}

func (h *handler) importRecipe(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	res, err := h.app.ImportRecipe(c.Request.Context(), currentUser(c), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	body := mergeResponse(res.Merge)
	body["recipe"] = res.Recipe
	body["cached"] = res.Cached
	c.JSON(http.StatusCreated, body)
}

func (h *handler) updateItem(c *gin.Context) {
	var req struct {
		Checked  *bool    `json:"checked"`
		Quantity *float64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Checked == nil && req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	l, err := h.app.Shopping.List(ctx, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	id := c.Param("id")
	var item shopping.Item
	if req.Checked != nil {
		if item, err = l.SetChecked(ctx, id, *req.Checked); err != nil {
			h.fail(c, err)
			return
		}
	}
	if req.Quantity != nil {
		if item, err = l.SetQuantity(ctx, id, req.Quantity); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, item)
}

func (h *handler) deleteItem(c *gin.Context) {
	ctx := c.Request.Context()
	l, err := h.app.Shopping.List(ctx, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := l.Remove(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) clearItems(c *gin.Context) {
	ctx := c.Request.Context()
	l, err := h.app.Shopping.List(ctx, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	var n int
	if checked, _ := strconv.ParseBool(c.Query("checked")); checked {
		n, err = l.ClearChecked(ctx)
	} else {
		n, err = l.Clear(ctx)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *handler) listPantry(c *gin.Context) {
	items, err := h.app.Pantry.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handler) expiringPantry(c *gin.Context) {
	days := 3
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		days = n
	}

	soon, err := h.app.ExpiringPantry(c.Request.Context(), currentUser(c), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": soon})
}

func (h *handler) addPantry(c *gin.Context) {
	var item pantry.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	item.ID = ""
	item.UserID = currentUser(c)

	if err := h.app.Pantry.Add(c.Request.Context(), &item); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *handler) deletePantry(c *gin.Context) {
	if err := h.app.RemovePantryItem(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
