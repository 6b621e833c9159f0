// Package reminder schedules and fires user reminders. Every reminder is
// persisted before it is armed, so a restart can never lose one; the price
// is at-least-once delivery, a reminder armed when the process dies fires
// again after restart. One-time reminders are removed after firing,
// constant reminders re-arm for the same time next day.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gkorolev/telemate/internal/logger"
	"github.com/gkorolev/telemate/internal/storage"
)

const (
	KindOneTime  = "one-time"
	KindConstant = "constant"
)

const firedTemplate = "Напоминание: %s"

// Notifier delivers a fired reminder to the user
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Scheduler persistent reminder scheduler
type Scheduler struct {
	store    storage.Store
	notifier Notifier
	sweep    time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	claimed map[int64]bool
	wg      sync.WaitGroup
}

// NewScheduler creates a reminder scheduler. sweepSeconds is the period of
// the recovery sweep that arms reminders loaded from the store.
func NewScheduler(store storage.Store, notifier Notifier, sweepSeconds int, log *logger.Logger) *Scheduler {
	if sweepSeconds <= 0 {
		sweepSeconds = 60
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		sweep:    time.Duration(sweepSeconds) * time.Second,
		log:      log,
		claimed:  make(map[int64]bool),
	}
}

// Start arms persisted reminders and runs the recovery sweep until the
// context is cancelled. Blocks; run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// Add persists a new reminder and arms it. The storage write happens before
// arming; if it fails the reminder does not exist.
func (s *Scheduler) Add(ctx context.Context, chatID int64, text string, fireAt time.Time, kind string) (*storage.Reminder, error) {
	if kind != KindOneTime && kind != KindConstant {
		return nil, fmt.Errorf("unknown reminder kind %q", kind)
	}

	rem := &storage.Reminder{
		ChatID: chatID,
		Text:   text,
		FireAt: fireAt,
		Kind:   kind,
	}
	if err := s.store.AddReminder(rem); err != nil {
		return nil, fmt.Errorf("failed to persist reminder: %w", err)
	}
	s.arm(ctx, rem)
	s.log.Info("Scheduled %s reminder %d for chat %d at %s", kind, rem.ID, chatID, fireAt.Format(time.RFC3339))
	return rem, nil
}

// sweepOnce arms every stored reminder that is not yet claimed by a waiting
// goroutine. Covers reminders created before the last restart.
func (s *Scheduler) sweepOnce(ctx context.Context) {
	reminders, err := s.store.Reminders()
	if err != nil {
		s.log.Error("Reminder sweep failed: %v", err)
		return
	}
	for _, rem := range reminders {
		s.arm(ctx, rem)
	}
}

// arm claims the reminder and spawns its wait-and-fire goroutine. A second
// arm of the same reminder id is a no-op while the first is still waiting.
func (s *Scheduler) arm(ctx context.Context, rem *storage.Reminder) {
	s.mu.Lock()
	if s.claimed[rem.ID] {
		s.mu.Unlock()
		return
	}
	s.claimed[rem.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.waitAndFire(ctx, rem)
}

func (s *Scheduler) waitAndFire(ctx context.Context, rem *storage.Reminder) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.claimed, rem.ID)
		s.mu.Unlock()
	}()

	if wait := time.Until(rem.FireAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			// Still persisted, the next start re-arms it
			return
		case <-timer.C:
		}
	}

	if err := s.notifier.Notify(rem.ChatID, fmt.Sprintf(firedTemplate, rem.Text)); err != nil {
		s.log.Error("Failed to deliver reminder %d to chat %d: %v", rem.ID, rem.ChatID, err)
		// Keep the reminder stored, the next sweep retries it
		return
	}

	// Constant reminders re-arm for the next day before the fired row goes.
	// Ordered this way a crash in between duplicates tomorrow's reminder
	// instead of losing it.
	if rem.Kind == KindConstant {
		next := rem.FireAt.Add(24 * time.Hour)
		for next.Before(time.Now()) {
			next = next.Add(24 * time.Hour)
		}
		if _, err := s.Add(ctx, rem.ChatID, rem.Text, next, KindConstant); err != nil {
			s.log.Error("Failed to re-arm constant reminder %d: %v", rem.ID, err)
		}
	}

	if err := s.store.DeleteReminder(rem.ID); err != nil {
		s.log.Error("Failed to remove fired reminder %d: %v", rem.ID, err)
	}
	s.log.Info("Fired reminder %d for chat %d", rem.ID, rem.ChatID)
}
