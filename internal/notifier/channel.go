package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"FlowSentinel/internal/logger"
	"FlowSentinel/internal/model"
)

var (
	ErrUnknownChannel = errors.New("unknown notification channel")
	ErrMissingParam   = errors.New("missing channel parameter")
	ErrSendFailed     = errors.New("message send failed")
)

// Channel delivers a rendered message over one protocol. params are the
// per-subscriber channel settings (tokens, URLs, chat ids).
type Channel interface {
	Name() string
	Send(ctx context.Context, msg model.Message, params map[string]string) error
}

// Channel type names accepted in configuration.
const (
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
	ChannelBark     = "bark"
)

// Supported reports whether a channel type is built in.
func Supported(channelType string) bool {
	switch strings.ToLower(channelType) {
	case ChannelTelegram, ChannelWebhook, ChannelBark:
		return true
	}
	return false
}

// Delivery is the outcome of a dispatch attempt.
type Delivery struct {
	Delivered bool
	Detail    string
}

// Registry resolves channel types to channels.
type Registry struct {
	channels map[string]Channel
	Retries  int
	Backoff  time.Duration
}

// NewRegistry creates an empty registry with the default retry policy.
func NewRegistry() *Registry {
	return &Registry{
		channels: map[string]Channel{},
		Retries:  3,
		Backoff:  time.Second,
	}
}

// NewDefaultRegistry registers the built-in channels sharing one HTTP client.
func NewDefaultRegistry(proxyURL string) *Registry {
	client := newHTTPClient(proxyURL)
	r := NewRegistry()
	r.Register(NewTelegramChannel(client))
	r.Register(NewWebhookChannel(client))
	r.Register(NewBarkChannel(client))
	return r
}

// Register adds or replaces a channel under its name.
func (r *Registry) Register(ch Channel) {
	r.channels[strings.ToLower(ch.Name())] = ch
}

// Build returns the channel for a type, failing before any send is attempted
// when the type is unknown.
func (r *Registry) Build(channelType string) (Channel, error) {
	ch, ok := r.channels[strings.ToLower(channelType)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownChannel, channelType, strings.Join(r.Names(), ", "))
	}
	return ch, nil
}

// Names lists registered channel types.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.channels))
	for n := range r.channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch sends msg over the policy's channel with retries. The returned
// error is reserved for configuration problems; delivery failures are
// reported in Delivery.
func (r *Registry) Dispatch(ctx context.Context, policy model.NotifyPolicy, msg model.Message) (Delivery, error) {
	ch, err := r.Build(policy.ChannelType)
	if err != nil {
		return Delivery{}, err
	}
	if err := SendWithRetry(ctx, ch, msg, policy.ChannelParams, r.Retries, r.Backoff); err != nil {
		return Delivery{Detail: err.Error()}, nil
	}
	return Delivery{Delivered: true, Detail: "ok"}, nil
}

// SendWithRetry sends a message with exponential backoff retry. Missing
// parameters are not retried.
func SendWithRetry(ctx context.Context, ch Channel, msg model.Message, params map[string]string, maxRetries int, backoff time.Duration) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := ch.Send(ctx, msg, params)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrMissingParam) || i == maxRetries {
			break
		}
		wait := backoff * time.Duration(1<<uint(i))
		logger.L().Warnf("%s send failed (attempt %d/%d): %v, retrying in %v", ch.Name(), i+1, maxRetries+1, err, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: %w", ch.Name(), lastErr)
}

func requireParam(params map[string]string, key string) (string, error) {
	v := strings.TrimSpace(params[key])
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return v, nil
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
