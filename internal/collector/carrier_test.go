package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_FetchReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, queryPath, r.URL.Path)
		assert.Equal(t, "ecs_token=abc", r.Header.Get("Cookie"))
		_, _ = w.Write([]byte(`{
			"code": "0000",
			"packageName": "畅越冰激凌",
			"resources": [{"name": "套餐内", "details": [{"flowType": "1", "resourceType": "11", "total": "1024", "use": "12.5", "remain": "1011.5"}]}]
		}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", "", time.Second)
	report, err := f.FetchReport(context.Background(), Account{Phone: "18612345678", Cookie: "ecs_token=abc"})
	require.NoError(t, err)
	assert.Equal(t, "畅越冰激凌", report.PackageName)
	require.Len(t, report.Owned, 1)
	require.Len(t, report.Owned[0].Details, 1)
	assert.Equal(t, 12.5, report.Owned[0].Details[0].Used.Float())
	assert.Empty(t, report.Shared)
}

func TestHTTPFetcher_CarrierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": "999999", "desc": "登录已过期"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, "", 0).FetchReport(context.Background(), Account{})
	require.ErrorIs(t, err, ErrCarrier)
	assert.Contains(t, err.Error(), "登录已过期")
}

func TestHTTPFetcher_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(srv.URL, "", 0).FetchReport(context.Background(), Account{})
	require.ErrorIs(t, err, ErrCarrier)
}

func TestCollector_WrapsFetcherError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollector(&MockFetcher{Err: boom}, Account{})
	_, err := c.Collect(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "mock")
}
