package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pantry-planner/internal/app"
	"pantry-planner/internal/config"
	"pantry-planner/internal/logging"
	"pantry-planner/internal/shopping"
)

type commandContext struct {
	configFlag *string
	userFlag   *string
	storeFlag  *string

	once   sync.Once
	config *config.Config
	app    *app.App
	err    error
}

func newCommandContext(configFlag, userFlag, storeFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
		storeFlag:  storeFlag,
	}
}

// ensureApp loads the configuration, applies the global flags and opens the
// stores once per invocation.
func (c *commandContext) ensureApp(ctx context.Context) (*app.App, error) {
	c.once.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		if user := strings.TrimSpace(*c.userFlag); user != "" {
			cfg.Store.UserID = user
		}
		if store := strings.TrimSpace(*c.storeFlag); store != "" {
			cfg.Store.Backend = strings.ToLower(store)
			if err := cfg.Validate(); err != nil {
				c.err = err
				return
			}
		}

		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.err = err
			return
		}

		a, err := app.Open(ctx, cfg, logger)
		if err != nil {
			c.err = fmt.Errorf("open stores: %w", err)
			return
		}
		c.config = cfg
		c.app = a
	})
	return c.app, c.err
}

func (c *commandContext) userID() string {
	if c.config == nil {
		return ""
	}
	return c.config.Store.UserID
}

func (c *commandContext) withApp(ctx context.Context, fn func(*app.App, string) error) error {
	a, err := c.ensureApp(ctx)
	if err != nil {
		return err
	}
	return fn(a, c.userID())
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// resolveItem accepts the 1-based position printed by list or an item id.
func resolveItem(l *shopping.List, ref string) (shopping.Item, error) {
	items := l.Items()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return shopping.Item{}, fmt.Errorf("no item %d on the list (%d items)", n, len(items))
		}
		return items[n-1], nil
	}
	return l.Get(ref)
}
