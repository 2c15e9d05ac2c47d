package notifier

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"FlowSentinel/internal/model"
)

// TelegramChannel sends messages via the Telegram Bot API.
// Params: bot_token, chat_id, optional server_url.
type TelegramChannel struct {
	client *http.Client

	mu   sync.Mutex
	bots map[string]*bot.Bot
}

// NewTelegramChannel creates a channel; bots are created lazily per token.
func NewTelegramChannel(client *http.Client) *TelegramChannel {
	return &TelegramChannel{client: client, bots: map[string]*bot.Bot{}}
}

func (t *TelegramChannel) Name() string { return ChannelTelegram }

func (t *TelegramChannel) Send(ctx context.Context, msg model.Message, params map[string]string) error {
	token, err := requireParam(params, "bot_token")
	if err != nil {
		return err
	}
	chatID, err := requireParam(params, "chat_id")
	if err != nil {
		return err
	}
	b, err := t.botFor(token, params["server_url"])
	if err != nil {
		return err
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      FormatTelegram(msg),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("%w: telegram: %v", ErrSendFailed, err)
	}
	return nil
}

func (t *TelegramChannel) botFor(token, serverURL string) (*bot.Bot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := token + "|" + serverURL
	if b, ok := t.bots[key]; ok {
		return b, nil
	}
	opts := []bot.Option{bot.WithSkipGetMe()}
	if t.client != nil {
		opts = append(opts, bot.WithHTTPClient(t.client.Timeout, t.client))
	}
	if serverURL != "" {
		opts = append(opts, bot.WithServerURL(serverURL))
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.bots[key] = b
	return b, nil
}

// FormatTelegram joins the message parts into an HTML text with a bold title.
func FormatTelegram(msg model.Message) string {
	var parts []string
	if msg.Title != "" {
		parts = append(parts, "<b>"+html.EscapeString(msg.Title)+"</b>")
	}
	if msg.Subtitle != "" {
		parts = append(parts, html.EscapeString(msg.Subtitle))
	}
	if msg.Body != "" {
		parts = append(parts, "", html.EscapeString(msg.Body))
	}
	return strings.Join(parts, "\n")
}
