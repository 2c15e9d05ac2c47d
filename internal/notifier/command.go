package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"FlowSentinel/internal/logger"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// CommandBot answers chat commands over Telegram long polling.
type CommandBot struct {
	bot    *bot.Bot
	chatID string
}

// NewCommandBot creates a command bot. When chatID is set only that chat is
// answered.
func NewCommandBot(token, chatID, proxyURL string, handler CommandHandler) (*CommandBot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	cb := &CommandBot{chatID: chatID}
	client := newHTTPClient(proxyURL)
	b, err := bot.New(token,
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(client.Timeout, client),
		bot.WithDefaultHandler(cb.handle(handler)),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	cb.bot = b
	return cb, nil
}

// Start begins long polling. Blocks until ctx is cancelled.
func (c *CommandBot) Start(ctx context.Context) {
	logger.L().Info("telegram command polling started")
	c.bot.Start(ctx)
	logger.L().Info("telegram command polling stopped")
}

func (c *CommandBot) handle(handler CommandHandler) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.Text == "" {
			return
		}
		chatID := fmt.Sprint(update.Message.Chat.ID)
		if c.chatID != "" && c.chatID != chatID {
			logger.L().Warnf("ignoring command from chat %s", chatID)
			return
		}
		text := strings.TrimSpace(update.Message.Text)
		logger.L().Infof("received command: %s", text)
		reply := handler(text)
		if reply == "" {
			return
		}
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    update.Message.Chat.ID,
			Text:      reply,
			ParseMode: models.ParseModeHTML,
		}); err != nil {
			logger.L().Errorf("send reply: %v", err)
		}
	}
}
