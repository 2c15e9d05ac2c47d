package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"FlowSentinel/internal/model"
)

// ErrInvalidSubscriber is returned for an empty or unsafe subscriber id.
var ErrInvalidSubscriber = errors.New("invalid subscriber id")

// Store persists the baseline snapshot of each subscriber.
// Load returns (nil, nil) when no snapshot exists yet.
type Store interface {
	Load(ctx context.Context, subscriber string) (*model.Snapshot, error)
	Save(ctx context.Context, subscriber string, snap *model.Snapshot) error
	Close() error
}

func checkSubscriber(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSubscriber, id)
	}
	return nil
}

// normalize fills missing bucket keys of a decoded snapshot and drops keys
// it does not know.
func normalize(snap *model.Snapshot) *model.Snapshot {
	if snap == nil {
		return nil
	}
	snap.Buckets = snap.Buckets.Clone()
	snap.Diff = snap.Diff.Clone()
	for k := range snap.Buckets {
		if !k.Valid() {
			delete(snap.Buckets, k)
		}
	}
	for k := range snap.Diff {
		if !k.Valid() {
			delete(snap.Diff, k)
		}
	}
	snap.LastRun = normalize(snap.LastRun)
	if snap.LastRun != nil {
		snap.LastRun.LastRun = nil
	}
	return snap
}
