package reminders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"henbot/clients"
	"henbot/core"
	"henbot/models"
)

// ErrReminderAlreadyActive is returned when a user with a running reminder
// tries to start another one. At most one reminder per user at a time.
var ErrReminderAlreadyActive = errors.New("reminder already active")

// ErrNoActiveReminder is returned when cancelling without a running reminder.
// Wraps core.ErrNotFound so generic callers can match either way.
var ErrNoActiveReminder = fmt.Errorf("no active reminder: %w", core.ErrNotFound)

const (
	minIntervalMinutes = 1
	maxIntervalMinutes = 24 * 60
	minDurationHours   = 1
	maxDurationHours   = 24
)

type activeReminder struct {
	id     string
	cancel context.CancelFunc
}

// ReminderService runs per-user reminder loops. Each user's state is an
// explicit Idle/Running record keyed in a concurrency-safe map; cancellation
// is a context token checked every iteration, not a bare flag.
type ReminderService struct {
	chatClient clients.ChatClient

	mu     sync.Mutex
	active map[string]*activeReminder

	// intervalUnit scales reminder intervals; production uses a minute.
	intervalUnit time.Duration
}

func NewReminderService(chatClient clients.ChatClient) *ReminderService {
	return newReminderService(chatClient, time.Minute)
}

func newReminderService(chatClient clients.ChatClient, intervalUnit time.Duration) *ReminderService {
	return &ReminderService{
		chatClient:   chatClient,
		active:       make(map[string]*activeReminder),
		intervalUnit: intervalUnit,
	}
}

// ClampReminder forces LLM-parsed values into sane bounds, substituting
// defaults for anything unusable.
func ClampReminder(reminder models.Reminder) models.Reminder {
	if reminder.Message == "" {
		reminder.Message = "Reminder"
	}
	if reminder.IntervalMinutes < minIntervalMinutes || reminder.IntervalMinutes > maxIntervalMinutes {
		reminder.IntervalMinutes = 30
	}
	if reminder.DurationHours < minDurationHours || reminder.DurationHours > maxDurationHours {
		reminder.DurationHours = 2
	}
	return reminder
}

// Start launches a reminder loop for the user, DMing the message every
// interval until the duration elapses or the user cancels.
func (s *ReminderService) Start(execCtx models.ExecutionContext, reminder models.Reminder) error {
	s.mu.Lock()
	if _, exists := s.active[execCtx.UserID]; exists {
		s.mu.Unlock()
		return ErrReminderAlreadyActive
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	record := &activeReminder{id: core.NewID("rem"), cancel: cancel}
	s.active[execCtx.UserID] = record
	s.mu.Unlock()

	log.Printf("📋 Starting reminder %s for user %s: every %d minutes for %d hours",
		record.id, execCtx.UserID, reminder.IntervalMinutes, reminder.DurationHours)

	go s.runLoop(loopCtx, record, execCtx, reminder)
	return nil
}

// Stop cancels the user's running reminder. The loop exits on its next wake.
func (s *ReminderService) Stop(userID string) error {
	s.mu.Lock()
	record, exists := s.active[userID]
	if exists {
		delete(s.active, userID)
	}
	s.mu.Unlock()

	if !exists {
		return ErrNoActiveReminder
	}

	record.cancel()
	log.Printf("✅ Reminder %s stopped for user %s", record.id, userID)
	return nil
}

// Phase reports the user's current reminder state.
func (s *ReminderService) Phase(userID string) models.ReminderPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.active[userID]; exists {
		return models.ReminderPhaseRunning
	}
	return models.ReminderPhaseIdle
}

// StopAll cancels every running reminder. Used during shutdown.
func (s *ReminderService) StopAll() {
	s.mu.Lock()
	for userID, record := range s.active {
		record.cancel()
		delete(s.active, userID)
	}
	s.mu.Unlock()
}

func (s *ReminderService) runLoop(
	ctx context.Context,
	record *activeReminder,
	execCtx models.ExecutionContext,
	reminder models.Reminder,
) {
	defer s.clear(execCtx.UserID, record)

	interval := time.Duration(reminder.IntervalMinutes) * s.intervalUnit
	totalSends := (reminder.DurationHours * 60) / reminder.IntervalMinutes

	for i := 0; i < totalSends; i++ {
		if err := s.chatClient.SendDirectMessage(execCtx.UserID, "⏰ Reminder: "+reminder.Message); err != nil {
			if errors.Is(err, clients.ErrForbidden) {
				// DMs are closed; tell the user once where they asked.
				s.notifyChannel(execCtx.ChannelID,
					"⚠️ I can't send you DMs. Please check your privacy settings.")
			} else {
				log.Printf("❌ Reminder %s failed to DM user %s: %v", record.id, execCtx.UserID, err)
				s.notifyChannel(execCtx.ChannelID, "⚠️ An error occurred while sending your reminder.")
			}
			return
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	log.Printf("✅ Reminder %s for user %s completed", record.id, execCtx.UserID)
}

// clear removes the user's record only if it is still ours; Stop may have
// already replaced the state.
func (s *ReminderService) clear(userID string, record *activeReminder) {
	s.mu.Lock()
	if current, exists := s.active[userID]; exists && current.id == record.id {
		delete(s.active, userID)
	}
	s.mu.Unlock()
}

func (s *ReminderService) notifyChannel(channelID, message string) {
	if _, err := s.chatClient.SendMessage(channelID, message); err != nil {
		log.Printf("❌ Failed to notify channel %s: %v", channelID, err)
	}
}
