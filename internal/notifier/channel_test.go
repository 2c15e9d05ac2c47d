package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowSentinel/internal/model"
)

type fakeChannel struct {
	name  string
	fails int
	calls int
	err   error
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(_ context.Context, _ model.Message, _ map[string]string) error {
	f.calls++
	if f.calls <= f.fails {
		if f.err != nil {
			return f.err
		}
		return errors.New("boom")
	}
	return nil
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("telegram"))
	assert.True(t, Supported("Webhook"))
	assert.True(t, Supported("bark"))
	assert.False(t, Supported("pigeon"))
	assert.False(t, Supported(""))
}

func TestRegistryBuildUnknownFailsFast(t *testing.T) {
	r := NewDefaultRegistry("")
	_, err := r.Build("pigeon")
	require.ErrorIs(t, err, ErrUnknownChannel)

	d, err := r.Dispatch(context.Background(), model.NotifyPolicy{ChannelType: "pigeon"}, model.Message{})
	require.ErrorIs(t, err, ErrUnknownChannel)
	assert.False(t, d.Delivered)

	assert.Equal(t, []string{"bark", "telegram", "webhook"}, r.Names())
}

func TestDispatchRetriesThenDelivers(t *testing.T) {
	ch := &fakeChannel{name: "fake", fails: 2}
	r := NewRegistry()
	r.Backoff = time.Millisecond
	r.Register(ch)

	d, err := r.Dispatch(context.Background(), model.NotifyPolicy{ChannelType: "FAKE"}, model.Message{Body: "x"})
	require.NoError(t, err)
	assert.True(t, d.Delivered)
	assert.Equal(t, 3, ch.calls)
}

func TestDispatchReportsFailure(t *testing.T) {
	ch := &fakeChannel{name: "fake", fails: 100}
	r := NewRegistry()
	r.Retries = 2
	r.Backoff = time.Millisecond
	r.Register(ch)

	d, err := r.Dispatch(context.Background(), model.NotifyPolicy{ChannelType: "fake"}, model.Message{})
	require.NoError(t, err)
	assert.False(t, d.Delivered)
	assert.Contains(t, d.Detail, "boom")
	assert.Equal(t, 3, ch.calls)
}

func TestSendWithRetryMissingParamNotRetried(t *testing.T) {
	ch := &fakeChannel{name: "fake", fails: 100, err: ErrMissingParam}
	err := SendWithRetry(context.Background(), ch, model.Message{}, nil, 5, time.Millisecond)
	require.ErrorIs(t, err, ErrMissingParam)
	assert.Equal(t, 1, ch.calls)
}

func TestSendWithRetryContextCancelled(t *testing.T) {
	ch := &fakeChannel{name: "fake", fails: 100}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SendWithRetry(ctx, ch, model.Message{}, nil, 5, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWebhookChannel(t *testing.T) {
	var got map[string]any
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Webhook-Secret")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.Client())
	msg := model.Message{Title: "T", Subtitle: "S", Body: "B"}

	require.NoError(t, ch.Send(context.Background(), msg, map[string]string{"url": srv.URL, "secret": "s3"}))
	assert.Equal(t, "T", got["title"])
	assert.Equal(t, "B", got["body"])
	assert.Equal(t, "s3", secret)

	require.NoError(t, ch.Send(context.Background(), msg, map[string]string{"url": srv.URL, "format": "text"}))
	assert.Equal(t, "text", got["msgtype"])
	assert.Equal(t, map[string]any{"content": "T\nS\nB"}, got["text"])
}

func TestWebhookChannelErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.Client())
	err := ch.Send(context.Background(), model.Message{}, map[string]string{"url": srv.URL})
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "502")

	err = ch.Send(context.Background(), model.Message{}, map[string]string{})
	require.ErrorIs(t, err, ErrMissingParam)
}

func TestBarkChannel(t *testing.T) {
	var calls int32
	var got barkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/push", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.DeviceKey == "bad" {
			_, _ = w.Write([]byte(`{"code":400,"message":"invalid key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"message":"success"}`))
	}))
	defer srv.Close()

	ch := NewBarkChannel(srv.Client())
	msg := model.Message{Title: "流量提醒", Subtitle: "新增 600M", Body: "已用 1.5G"}
	require.NoError(t, ch.Send(context.Background(), msg, map[string]string{"server": srv.URL + "/", "device_key": "k1", "group": "flow"}))
	assert.Equal(t, barkRequest{DeviceKey: "k1", Title: "流量提醒", Subtitle: "新增 600M", Body: "已用 1.5G", Group: "flow"}, got)

	err := ch.Send(context.Background(), msg, map[string]string{"server": srv.URL, "device_key": "bad"})
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "invalid key")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	require.ErrorIs(t, ch.Send(context.Background(), msg, nil), ErrMissingParam)
}

func TestTelegramChannel(t *testing.T) {
	var path, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			text = r.FormValue("text")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	ch := NewTelegramChannel(srv.Client())
	err := ch.Send(context.Background(), model.Message{Title: "A&B", Body: "x"}, map[string]string{
		"bot_token":  "123:abc",
		"chat_id":    "42",
		"server_url": srv.URL,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "/sendMessage"), path)
	assert.Equal(t, "<b>A&amp;B</b>\n\nx", text)

	err = ch.Send(context.Background(), model.Message{}, map[string]string{"bot_token": "123:abc"})
	require.ErrorIs(t, err, ErrMissingParam)
}
