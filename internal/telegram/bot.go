package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pantry-planner/internal/app"
	"pantry-planner/internal/config"
	"pantry-planner/internal/logging"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/shopping"
)

const messageTimeout = time.Minute

const helpText = `🛒 *Pantry Planner*

/list shows your shopping list
/add 2 kg potatoes adds an item
/recipe Title, then one ingredient per line
/import <url> adds a recipe from the web
/check 2 ticks item 2
/clear removes ticked items, /clear all empties the list
/pantry lists your pantry, /pantry add 500 g rice stocks it

Any other text is read as ingredient lines; a link is imported.`

// sender is the subset of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers shopping list commands sent over a Telegram webhook.
type Bot struct {
	api    sender
	app    *app.App
	cfg    config.Telegram
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(cfg config.Telegram, a *app.App, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	b := newBot(api, cfg, a, logger)
	b.logger.Info("authorized", "account", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.WebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.WebhookURL, err)
	}
	b.logger.Info("webhook set", "description", resp.Description)

	return b, nil
}

func newBot(api sender, cfg config.Telegram, a *app.App, logger *slog.Logger) *Bot {
	return &Bot{
		api:    api,
		app:    a,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "telegram"),
	}
}

// Handler returns the webhook endpoint. Messages are processed in the
// background; Wait blocks until they are done.
func (b *Bot) Handler() http.Handler {
	return http.HandlerFunc(b.handleWebhook)
}

// Wait blocks until in-flight messages are processed.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.cfg.IsAllowed(msg.From.ID) {
		b.logger.Warn("unauthorized access attempt", "telegram_id", msg.From.ID, "username", msg.From.UserName)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
		defer cancel()
		b.processMessage(ctx, msg)
	}()
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		text := strings.TrimSpace(msg.Text)
		if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
			b.handleImport(ctx, chatID, userID, text)
			return
		}
		b.handleLines(ctx, chatID, userID, "", strings.Split(text, "\n"))
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText)
	case "list":
		b.handleList(ctx, chatID, userID)
	case "add":
		b.handleLines(ctx, chatID, userID, "", strings.Split(args, "\n"))
	case "recipe":
		b.handleRecipe(ctx, chatID, userID, args)
	case "import":
		b.handleImport(ctx, chatID, userID, args)
	case "check":
		b.handleCheck(ctx, chatID, userID, args)
	case "clear":
		b.handleClear(ctx, chatID, userID, args)
	case "pantry":
		b.handlePantry(ctx, chatID, userID, args)
	case "metrics":
		if msg.From.ID != b.cfg.AdminID {
			b.reply(chatID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(chatID)
	default:
		b.reply(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) handleList(ctx context.Context, chatID int64, userID string) {
	l, err := b.app.Shopping.List(ctx, userID)
	if err != nil {
		b.replyError(chatID, "loading your list", err)
		return
	}
	b.reply(chatID, formatListMarkdown(l.Items()))
}

func (b *Bot) handleLines(ctx context.Context, chatID int64, userID, origin string, lines []string) {
	var (
		res shopping.MergeResult
		err error
	)
	if origin == "" && len(lines) == 1 {
		res, err = b.app.AddLine(ctx, userID, lines[0])
	} else {
		res, err = b.app.AddRecipeLines(ctx, userID, origin, lines)
	}
	if errors.Is(err, shopping.ErrEmptyName) {
		b.reply(chatID, "Nothing to add. Try `/add 2 kg potatoes`.")
		return
	}
	if err != nil {
		b.replyError(chatID, "adding items", err)
		return
	}
	b.reply(chatID, formatMergeSummary(res)+"\n\n"+formatListMarkdown(res.Items))
}

func (b *Bot) handleRecipe(ctx context.Context, chatID int64, userID, args string) {
	title, body, _ := strings.Cut(args, "\n")
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		b.reply(chatID, "Send the recipe title on the first line and one ingredient per line below it.")
		return
	}
	b.handleLines(ctx, chatID, userID, strings.TrimSpace(title), strings.Split(body, "\n"))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, userID, url string) {
	if url == "" {
		b.reply(chatID, "Usage: `/import <url>`")
		return
	}
	b.reply(chatID, "✂️ *Clipping recipe...*")

	res, err := b.app.ImportRecipe(ctx, userID, url)
	if errors.Is(err, app.ErrNoClipper) {
		b.reply(chatID, "Recipe import is not configured.")
		return
	}
	if err != nil {
		b.replyError(chatID, "clipping recipe", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ *%s*", escape(res.Recipe.Title))
	if res.Cached {
		sb.WriteString(" (saved before)")
	}
	sb.WriteString("\n")
	sb.WriteString(formatMergeSummary(res.Merge))
	sb.WriteString("\n\n")
	sb.WriteString(formatListMarkdown(res.Merge.Items))
	b.reply(chatID, sb.String())
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, userID, args string) {
	n, err := strconv.Atoi(args)
	if err != nil || n < 1 {
		b.reply(chatID, "Usage: `/check <number>` as shown by /list")
		return
	}

	l, err := b.app.Shopping.List(ctx, userID)
	if err != nil {
		b.replyError(chatID, "loading your list", err)
		return
	}
	items := l.Items()
	if n > len(items) {
		b.reply(chatID, fmt.Sprintf("There is no item %d on your list.", n))
		return
	}
	if _, err := l.Toggle(ctx, items[n-1].ID); err != nil {
		b.replyError(chatID, "updating the item", err)
		return
	}
	b.reply(chatID, formatListMarkdown(l.Items()))
}

func (b *Bot) handleClear(ctx context.Context, chatID int64, userID, args string) {
	l, err := b.app.Shopping.List(ctx, userID)
	if err != nil {
		b.replyError(chatID, "loading your list", err)
		return
	}

	var n int
	if args == "all" {
		n, err = l.Clear(ctx)
	} else {
		n, err = l.ClearChecked(ctx)
	}
	if err != nil {
		b.replyError(chatID, "clearing the list", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🧹 Removed %d item(s).", n))
}

func (b *Bot) handlePantry(ctx context.Context, chatID int64, userID, args string) {
	if line, ok := strings.CutPrefix(args, "add"); ok {
		_, err := b.app.StockLine(ctx, userID, line, nil)
		if errors.Is(err, pantry.ErrEmptyName) {
			b.reply(chatID, "Usage: `/pantry add 500 g rice`")
			return
		}
		if err != nil {
			b.replyError(chatID, "stocking the pantry", err)
			return
		}
	}

	items, err := b.app.Pantry.List(ctx, userID)
	if err != nil {
		b.replyError(chatID, "loading your pantry", err)
		return
	}
	b.reply(chatID, formatPantryMarkdown(items))
}

func (b *Bot) handleMetrics(chatID int64) {
	usage, health, err := b.app.UsageReport(7)
	if err != nil {
		b.replyError(chatID, "fetching metrics", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Heap) / %dMB (Sys)\n", health.HeapMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.Storage)

	b.reply(chatID, sb.String())
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyError(chatID int64, action string, err error) {
	b.logger.Error("command failed", "chat_id", chatID, "action", action, "error", err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.reply(chatID, fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatListMarkdown(items []shopping.Item) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(items) == 0 {
		sb.WriteString("_Nothing to buy_")
		return sb.String()
	}
	for i, it := range items {
		box := "⬜"
		if it.Checked {
			box = "✅"
		}
		fmt.Fprintf(&sb, "%d. %s %s", i+1, box, escape(it.Name))
		if amount := it.Amount(); amount != "" {
			fmt.Fprintf(&sb, ": %s", escape(amount))
		}
		if it.Recipe != "" {
			fmt.Fprintf(&sb, " _(%s)_", escape(it.Recipe))
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatMergeSummary(res shopping.MergeResult) string {
	if len(res.Inserted) == 0 && len(res.Updated) == 0 {
		return "Your pantry already covers everything."
	}
	return fmt.Sprintf("Added %d, updated %d.", len(res.Inserted), len(res.Updated))
}

func formatPantryMarkdown(items []pantry.Item) string {
	var sb strings.Builder
	sb.WriteString("🥫 *Pantry*\n\n")
	if len(items) == 0 {
		sb.WriteString("_Empty_")
		return sb.String()
	}
	for _, it := range items {
		fmt.Fprintf(&sb, "• %s", escape(it.Name))
		if it.Quantity != "" {
			fmt.Fprintf(&sb, ": %s", escape(it.Quantity))
		}
		if it.ExpiresAt != nil {
			fmt.Fprintf(&sb, " _(until %s)_", it.ExpiresAt.Format("2006-01-02"))
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
