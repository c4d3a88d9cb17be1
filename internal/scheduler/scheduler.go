package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"CoinSentinel/internal/model"
	"CoinSentinel/internal/notifier"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Ticker produces one snapshot per call.
type Ticker interface {
	Tick(ctx context.Context) model.Snapshot
	Snapshot() model.Snapshot
}

// Summarizer values the ledger for the daily report.
type Summarizer interface {
	Summary(ctx context.Context, price decimal.Decimal) (model.Summary, error)
}

// Publisher receives every snapshot after a tick.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s model.Snapshot) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Monitor    Ticker
	Ledger     Summarizer
	Notifier   *notifier.TelegramNotifier
	Publishers []Publisher
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler. tn may be nil when the bot is off.
func NewScheduler(ctx context.Context, mon Ticker, led Summarizer, tn *notifier.TelegramNotifier, pubs ...Publisher) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Monitor:    mon,
		Ledger:     led,
		Notifier:   tn,
		Publishers: pubs,
		Ctx:        ctx,
	}
}

// RegisterAll registers the tick and daily summary tasks.
func (s *Scheduler) RegisterAll(tickCron, dailyCron string) error {
	if _, err := s.Cron.AddFunc(tickCron, func() { s.tickTask() }); err != nil {
		return fmt.Errorf("register tick task: %w", err)
	}
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

// RunTickNow executes one tick immediately (start-up priming).
func (s *Scheduler) RunTickNow() model.Snapshot {
	return s.tickTask()
}

// RunDailyNow sends the daily summary immediately.
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) tickTask() model.Snapshot {
	snap := s.Monitor.Tick(s.Ctx)
	for _, p := range s.Publishers {
		if err := p.Publish(s.Ctx, snap); err != nil {
			log.Printf("[WARN] publish to %s: %v", p.Name(), err)
		}
	}
	return snap
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily summary")
	snap := s.Monitor.Snapshot()
	sum, err := s.Ledger.Summary(s.Ctx, snap.Price)
	if err != nil {
		log.Printf("[ERROR] daily summary: %v", err)
		return
	}
	s.trySend(notifier.FormatDaily(snap, sum, time.Now()))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] notifier disabled, daily summary:\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
