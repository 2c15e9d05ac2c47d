package collector

import (
	"context"
	"fmt"

	"FlowSentinel/internal/model"
)

// MockFetcher returns a controllable fixed report for development and testing.
type MockFetcher struct {
	Report *model.RawReport
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchReport(_ context.Context, _ Account) (*model.RawReport, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Report == nil {
		return &model.RawReport{}, nil
	}
	return m.Report, nil
}

// Collector fetches reports for one account.
type Collector struct {
	Fetcher Fetcher
	Account Account
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, acct Account) *Collector {
	return &Collector{Fetcher: fetcher, Account: acct}
}

// Collect fetches the account's current raw report.
func (c *Collector) Collect(ctx context.Context) (*model.RawReport, error) {
	report, err := c.Fetcher.FetchReport(ctx, c.Account)
	if err != nil {
		return nil, fmt.Errorf("fetch report via %s: %w", c.Fetcher.Name(), err)
	}
	return report, nil
}
