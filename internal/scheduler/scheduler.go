package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"FlowSentinel/internal/config"
	"FlowSentinel/internal/logger"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/notifier"
	"FlowSentinel/internal/tracker"
)

// Runner performs one accounting run for a subscriber.
type Runner interface {
	Run(ctx context.Context, sub config.Subscriber) (*tracker.Outcome, error)
	Latest(ctx context.Context, id string) (*model.Snapshot, error)
}

// Scheduler manages the per-subscriber cron jobs.
type Scheduler struct {
	Cron        *cron.Cron
	Runner      Runner
	Subscribers []config.Subscriber
	Location    *time.Location
	Ctx         context.Context
}

// NewScheduler creates a new Scheduler evaluating cron specs in loc.
func NewScheduler(ctx context.Context, runner Runner, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Runner:   runner,
		Location: loc,
		Ctx:      ctx,
	}
}

// RegisterAll registers one job per subscriber. Overlapping runs of the same
// job are skipped rather than queued.
func (s *Scheduler) RegisterAll(subs []config.Subscriber) error {
	for _, sub := range subs {
		job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
			s.runOne(sub)
		}))
		if _, err := s.Cron.AddJob(sub.Cron, job); err != nil {
			return fmt.Errorf("register subscriber %s (%q): %w", sub.ID, sub.Cron, err)
		}
		s.Subscribers = append(s.Subscribers, sub)
		logger.Subscriber(sub.ID).Infof("scheduled with %q", sub.Cron)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.L().Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.L().Info("scheduler stopped")
}

// RunAllNow runs every subscriber immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunAllNow() {
	var wg sync.WaitGroup
	for _, sub := range s.Subscribers {
		wg.Add(1)
		go func(sub config.Subscriber) {
			defer wg.Done()
			s.runOne(sub)
		}(sub)
	}
	wg.Wait()
}

func (s *Scheduler) runOne(sub config.Subscriber) {
	log := logger.Subscriber(sub.ID)
	out, err := s.Runner.Run(s.Ctx, sub)
	if err != nil {
		log.Errorf("accounting run: %v", err)
		return
	}
	log.Infof("run done: regime=%s decision=%s baseline_saved=%v",
		out.Result.Regime, out.Decision.Reason, out.BaselineSaved)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText()
	}
	switch fields[0] {
	case "/flow", "查询流量":
		return s.status(fields[1:])
	case "/run", "立即查询":
		return s.runNow(fields[1:])
	default:
		return helpText()
	}
}

func helpText() string {
	return "可用命令:\n• /flow [id] 查看最近一次流量统计\n• /run [id] 立即执行一次查询"
}

func (s *Scheduler) selected(ids []string) []config.Subscriber {
	if len(ids) == 0 {
		return s.Subscribers
	}
	var out []config.Subscriber
	for _, sub := range s.Subscribers {
		for _, id := range ids {
			if sub.ID == id {
				out = append(out, sub)
			}
		}
	}
	return out
}

func (s *Scheduler) status(ids []string) string {
	subs := s.selected(ids)
	if len(subs) == 0 {
		return "未找到该用户"
	}
	parts := make([]string, 0, len(subs))
	for _, sub := range subs {
		snap, err := s.Runner.Latest(s.Ctx, sub.ID)
		if err != nil {
			logger.Subscriber(sub.ID).Errorf("load latest snapshot: %v", err)
			parts = append(parts, fmt.Sprintf("❌ %s: 读取失败", sub.ID))
			continue
		}
		parts = append(parts, notifier.FormatStatus(sub.ID, snap, s.Location))
	}
	return strings.Join(parts, "\n\n")
}

func (s *Scheduler) runNow(ids []string) string {
	subs := s.selected(ids)
	if len(subs) == 0 {
		return "未找到该用户"
	}
	parts := make([]string, 0, len(subs))
	for _, sub := range subs {
		if _, err := s.Runner.Run(s.Ctx, sub); err != nil {
			parts = append(parts, fmt.Sprintf("❌ %s: %s", sub.ID, html.EscapeString(err.Error())))
			continue
		}
		snap, err := s.Runner.Latest(s.Ctx, sub.ID)
		if err != nil {
			logger.Subscriber(sub.ID).Errorf("load latest snapshot: %v", err)
			parts = append(parts, fmt.Sprintf("❌ %s: 读取失败", sub.ID))
			continue
		}
		parts = append(parts, notifier.FormatStatus(sub.ID, snap, s.Location))
	}
	return strings.Join(parts, "\n\n")
}
