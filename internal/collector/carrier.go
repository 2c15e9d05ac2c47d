package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FlowSentinel/internal/model"
)

// ErrCarrier is returned when the carrier answers with a non-success code.
var ErrCarrier = errors.New("carrier query failed")

const (
	queryPath   = "/servicequerybusiness/operationservice/queryOcsPackageFlowLeftContentRevisedInJune"
	successCode = "0000"
)

// HTTPFetcher implements Fetcher against the carrier's package-flow endpoint.
// The cookie of an already authenticated session is sent as-is.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a new fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, proxyURL string, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "carrier" }

// carrierResponse is the envelope returned by the query endpoint.
type carrierResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	model.RawReport
}

func (f *HTTPFetcher) FetchReport(ctx context.Context, acct Account) (*model.RawReport, error) {
	form := url.Values{"duanlianjieabc": {""}, "channelCode": {""}, "serviceType": {""}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+queryPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if acct.Cookie != "" {
		req.Header.Set("Cookie", acct.Cookie)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query package flow: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrCarrier, resp.StatusCode, truncate(body, 200))
	}

	var cr carrierResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if cr.Code != successCode {
		return nil, fmt.Errorf("%w: code %s: %s", ErrCarrier, cr.Code, cr.Desc)
	}
	report := cr.RawReport
	return &report, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
