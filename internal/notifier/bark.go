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

const defaultBarkServer = "https://api.day.app"

// BarkChannel sends push notifications through a Bark server.
// Params: device_key, optional server and group.
type BarkChannel struct {
	client *http.Client
}

func NewBarkChannel(client *http.Client) *BarkChannel {
	return &BarkChannel{client: client}
}

func (b *BarkChannel) Name() string { return ChannelBark }

type barkRequest struct {
	DeviceKey string `json:"device_key"`
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	Body      string `json:"body"`
	Group     string `json:"group,omitempty"`
}

type barkResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (b *BarkChannel) Send(ctx context.Context, msg model.Message, params map[string]string) error {
	key, err := requireParam(params, "device_key")
	if err != nil {
		return err
	}
	server := strings.TrimRight(params["server"], "/")
	if server == "" {
		server = defaultBarkServer
	}
	body, err := json.Marshal(barkRequest{
		DeviceKey: key,
		Title:     msg.Title,
		Subtitle:  msg.Subtitle,
		Body:      msg.Body,
		Group:     params["group"],
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: bark: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var br barkResponse
	if err := json.Unmarshal(raw, &br); err != nil || br.Code != http.StatusOK {
		return fmt.Errorf("%w: bark: status %d, body: %s", ErrSendFailed, resp.StatusCode, string(raw))
	}
	return nil
}
