package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gatewarden/internal/domain"
	"gatewarden/internal/metrics"
)

const (
	dateLayout = "2006-01-02"

	// defaultEvalInterval is how often the dedicated timer re-evaluates the
	// schedule. The threshold rule makes the exact cadence irrelevant: the
	// digest fires at the first evaluation at or after the configured time.
	defaultEvalInterval = 30 * time.Second
)

// DigestScheduler posts the daily digest at most once per calendar date.
// It fires when now is at or after the configured time and the digest has not
// fired for today's date yet; the midnight rollover re-enables firing without
// an explicit reset. State lives in process memory only and resets on
// restart.
type DigestScheduler struct {
	transport domain.Transport
	generator domain.Generator
	recorder  Recorder
	logger    *slog.Logger

	chatID     int64
	fireHour   int
	fireMinute int
	interval   time.Duration

	// mu serializes evaluate-and-fire. It is held across the Generator call
	// so two concurrent evaluations can never both observe an unfired date.
	mu        sync.Mutex
	lastFired string // calendar date of the last successful fire, "" if none
}

// SchedulerConfig holds the digest scheduler's dependencies and fire time.
type SchedulerConfig struct {
	Transport  domain.Transport
	Generator  domain.Generator
	Recorder   Recorder // optional
	Logger     *slog.Logger
	ChatID     int64
	FireHour   int
	FireMinute int
	Interval   time.Duration // evaluation cadence for Run, default 30s
}

func NewDigestScheduler(cfg SchedulerConfig) *DigestScheduler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultEvalInterval
	}
	return &DigestScheduler{
		transport:  cfg.Transport,
		generator:  cfg.Generator,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		chatID:     cfg.ChatID,
		fireHour:   cfg.FireHour,
		fireMinute: cfg.FireMinute,
		interval:   cfg.Interval,
	}
}

// Run evaluates the schedule on a fixed cadence until ctx is cancelled.
func (s *DigestScheduler) Run(ctx context.Context) {
	s.logger.Info("digest scheduler started",
		"fire_hour", s.fireHour,
		"fire_minute", s.fireMinute,
		"chat", s.chatID,
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("digest scheduler stopping")
			return
		case now := <-ticker.C:
			s.Evaluate(ctx, now)
		}
	}
}

// Evaluate fires the digest if now is at or after today's fire time and the
// digest has not yet fired for now's date. Returns whether it fired. Safe for
// concurrent use; callers may invoke it from a timer and opportunistically
// per message.
func (s *DigestScheduler) Evaluate(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format(dateLayout)
	if today == s.lastFired {
		return false
	}
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), s.fireHour, s.fireMinute, 0, 0, now.Location())
	if now.Before(fireAt) {
		return false
	}

	gctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.generator.GenerateDigest(gctx)
	metrics.GenerationLatency.Observe(time.Since(start).Seconds())

	if err != nil || strings.TrimSpace(text) == "" {
		// lastFired stays untouched so the next evaluation retries.
		metrics.GenerationFailures.Inc()
		s.logger.Warn("digest generation failed, will retry", "date", today, "err", err)
		return false
	}

	if err := s.transport.SendMessage(ctx, s.chatID, text); err != nil {
		// Delivery failures are logged and dropped; the date is still marked
		// fired so a flaky send cannot produce a second digest today.
		metrics.DeliveryFailures.Inc()
		s.logger.Error("digest delivery failed", "date", today, "err", err)
	}

	s.lastFired = today
	metrics.DigestsTotal.Inc()
	s.logger.Info("daily digest fired", "date", today, "digest_len", len(text))

	if s.recorder != nil {
		if err := s.recorder.RecordDigest(ctx, today); err != nil {
			s.logger.Warn("digest audit write failed", "err", err)
		}
	}
	return true
}

// LastFired returns the calendar date of the last successful fire, or "".
func (s *DigestScheduler) LastFired() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFired
}
