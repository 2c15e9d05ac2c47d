package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"FlowSentinel/internal/model"
)

// WebhookChannel posts messages to a chat-bot webhook.
// Params: url, optional format ("json" or "text"), optional secret sent as
// the X-Webhook-Secret header.
type WebhookChannel struct {
	client *http.Client
}

func NewWebhookChannel(client *http.Client) *WebhookChannel {
	return &WebhookChannel{client: client}
}

func (w *WebhookChannel) Name() string { return ChannelWebhook }

type webhookText struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

func (w *WebhookChannel) Send(ctx context.Context, msg model.Message, params map[string]string) error {
	endpoint, err := requireParam(params, "url")
	if err != nil {
		return err
	}

	var payload any = msg
	if strings.EqualFold(params["format"], "text") {
		t := webhookText{MsgType: "text"}
		t.Text.Content = PlainText(msg)
		payload = t
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := params["secret"]; secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	return doRequest(w.client, req, "webhook")
}

// PlainText joins the message parts with newlines, skipping empty ones.
func PlainText(msg model.Message) string {
	var parts []string
	for _, p := range []string{msg.Title, msg.Subtitle, msg.Body} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

func doRequest(client *http.Client, req *http.Request, name string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSendFailed, name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s: status %d, body: %s", ErrSendFailed, name, resp.StatusCode, string(respBody))
	}
	return nil
}
