package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"

	"FlowSentinel/internal/calculator"
	"FlowSentinel/internal/collector"
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/logger"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/notifier"
	"FlowSentinel/internal/recorder"
	"FlowSentinel/internal/store"
	"FlowSentinel/internal/strategy"
)

// Outcome describes what one accounting run did.
type Outcome struct {
	Result   *strategy.Result
	Decision strategy.Decision
	Message  *model.Message
	Delivery *notifier.Delivery
	// BaselineSaved reports whether the run's snapshot became the new baseline.
	BaselineSaved bool
}

// Tracker runs accounting for subscribers and owns baseline persistence.
// Runs of the same subscriber are serialized; different subscribers run
// concurrently.
type Tracker struct {
	fetcher  collector.Fetcher
	store    store.Store
	recorder recorder.Recorder
	channels *notifier.Registry
	clock    quartz.Clock
	loc      *time.Location

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	latest map[string]*model.Snapshot
}

// New creates a Tracker. A nil clock uses the real clock, a nil location UTC.
func New(fetcher collector.Fetcher, st store.Store, rec recorder.Recorder, channels *notifier.Registry, clock quartz.Clock, loc *time.Location) *Tracker {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if loc == nil {
		loc = time.UTC
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Tracker{
		fetcher:  fetcher,
		store:    st,
		recorder: rec,
		channels: channels,
		clock:    clock,
		loc:      loc,
		locks:    map[string]*sync.Mutex{},
		latest:   map[string]*model.Snapshot{},
	}
}

func (t *Tracker) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// Latest returns a copy of the most recent snapshot computed for a
// subscriber, falling back to the persisted baseline.
func (t *Tracker) Latest(ctx context.Context, id string) (*model.Snapshot, error) {
	t.mu.Lock()
	snap := t.latest[id]
	t.mu.Unlock()
	if snap != nil {
		return snap.Clone(), nil
	}
	stored, err := t.store.Load(ctx, id)
	if err != nil || stored == nil {
		return nil, err
	}
	last := stored.Observed().Clone()
	last.LastRun = nil
	return last, nil
}

// Run performs one accounting run: fetch, evaluate against the baseline,
// decide, dispatch and persist.
//
// The baseline advances on the first run, on a month change, when the policy
// cannot fire, and after a confirmed delivery (with incremental counters
// zeroed). Below the threshold it is kept so incremental usage accumulates.
// A failed delivery keeps the old baseline, so the notification is retried
// on the next run. A held baseline is saved with the run as its LastRun.
func (t *Tracker) Run(ctx context.Context, sub config.Subscriber) (*Outcome, error) {
	l := t.lockFor(sub.ID)
	l.Lock()
	defer l.Unlock()

	log := logger.Subscriber(sub.ID)

	prev, err := t.store.Load(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	col := collector.NewCollector(t.fetcher, collector.Account{Phone: sub.Phone, Cookie: sub.Cookie})
	report, err := col.Collect(ctx)
	if err != nil {
		return nil, err
	}

	now := t.clock.Now().In(t.loc)
	res := strategy.Evaluate(report, sub.Phone, prev, now)
	dec := strategy.Decide(res.Snapshot.Diff, sub.Notify, prev)
	out := &Outcome{Result: res, Decision: dec}
	defer t.recordRun(sub, res, dec)

	t.mu.Lock()
	t.latest[sub.ID] = res.Snapshot.Clone()
	t.mu.Unlock()

	log.Debugf("regime=%s packages=%d all_common used=%.2f incremental=%.2f today=%.2f",
		res.Regime, len(res.Packages),
		res.Snapshot.Buckets[model.AllCommon].UsedMB,
		res.Snapshot.Diff[model.AllCommon].IncrementalMB,
		res.Snapshot.Diff[model.AllCommon].TodayMB)

	var baseline *model.Snapshot
	switch {
	case dec.Fire:
		msg := strategy.Render(sub.Notify, strategy.RenderContext{
			Snapshot: res.Snapshot,
			Baseline: prev,
			Regime:   res.Regime,
			Now:      now,
		})
		out.Message = &msg
		delivery, err := t.channels.Dispatch(ctx, sub.Notify, msg)
		if err != nil {
			return out, fmt.Errorf("dispatch: %w", err)
		}
		out.Delivery = &delivery
		t.recordNotify(sub, msg, delivery)
		if delivery.Delivered {
			log.Infof("notification sent via %s (%s)", sub.Notify.ChannelType, dec.Reason)
			baseline = strategy.ResetIncremental(res.Snapshot)
		} else {
			log.Warnf("notification via %s failed, keeping baseline: %s", sub.Notify.ChannelType, delivery.Detail)
		}
	case prev == nil,
		res.Regime == calculator.CrossMonth,
		dec.Reason == strategy.ReasonDisabled,
		dec.Reason == strategy.ReasonNoThreshold:
		baseline = res.Snapshot
	}

	switch {
	case baseline != nil:
		if err := t.store.Save(ctx, sub.ID, baseline); err != nil {
			return out, fmt.Errorf("save baseline: %w", err)
		}
		out.BaselineSaved = true
	case prev != nil:
		if err := t.store.Save(ctx, sub.ID, prev.WithLastRun(res.Snapshot)); err != nil {
			return out, fmt.Errorf("save last run: %w", err)
		}
	}

	return out, nil
}

func (t *Tracker) recordRun(sub config.Subscriber, res *strategy.Result, dec strategy.Decision) {
	if err := t.recorder.RecordRun(&recorder.RunEvent{
		Subscriber:           sub.ID,
		Regime:               res.Regime.String(),
		AllCommonUsed:        res.Snapshot.Buckets[model.AllCommon].UsedMB,
		AllCommonIncremental: res.Snapshot.Diff[model.AllCommon].IncrementalMB,
		AllCommonToday:       res.Snapshot.Diff[model.AllCommon].TodayMB,
		AllTrafficUsed:       res.Snapshot.Buckets[model.AllTraffic].UsedMB,
		Fired:                dec.Fire,
		Reason:               string(dec.Reason),
	}); err != nil {
		logger.Subscriber(sub.ID).Errorf("record run: %v", err)
	}
}

func (t *Tracker) recordNotify(sub config.Subscriber, msg model.Message, d notifier.Delivery) {
	if err := t.recorder.RecordNotify(&recorder.NotifyEvent{
		Subscriber: sub.ID,
		Channel:    sub.Notify.ChannelType,
		Title:      msg.Title,
		Delivered:  d.Delivered,
		Detail:     d.Detail,
	}); err != nil {
		logger.Subscriber(sub.ID).Errorf("record notify: %v", err)
	}
}
