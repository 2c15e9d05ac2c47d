package collector

import (
	"context"

	"FlowSentinel/internal/model"
)

// Account identifies the carrier account to query.
type Account struct {
	Phone  string
	Cookie string
}

// Fetcher retrieves the raw usage report for an account.
type Fetcher interface {
	FetchReport(ctx context.Context, acct Account) (*model.RawReport, error)
	Name() string
}
