package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"henbot/clients"
	"henbot/models"
	remindersvc "henbot/services/reminders"
	usecasecore "henbot/usecases/core"
)

// The model must answer with a bare JSON object so the reply can be parsed
// strictly. Freeform or code-like output is rejected, never interpreted.
const parseSystemPrompt = `You extract reminder details from freeform requests.
Respond with ONLY a JSON object, no prose, in this exact shape:
{"message": "<reminder message>", "interval_minutes": <number>, "duration_hours": <number>}

Example 1:
Input: tell me to do the dishes every 20 minutes for 3 hours
Output: {"message": "do the dishes", "interval_minutes": 20, "duration_hours": 3}

Example 2:
Input: remind me that I am awesome
Output: {"message": "I am awesome", "interval_minutes": 30, "duration_hours": 2}`

// CompletionCreator is the slice of the llm service this usecase needs.
type CompletionCreator interface {
	CreateCompletion(ctx context.Context, req clients.CompletionRequest) (*clients.CompletionResult, error)
}

// ReminderRunner is the slice of the reminder service this usecase needs.
type ReminderRunner interface {
	Start(execCtx models.ExecutionContext, reminder models.Reminder) error
	Stop(userID string) error
}

// RemindersUseCase handles the bugme/bugoff command pair.
type RemindersUseCase struct {
	completions CompletionCreator
	reminders   ReminderRunner
	responder   *usecasecore.Responder
}

func NewRemindersUseCase(
	completions CompletionCreator,
	reminders ReminderRunner,
	responder *usecasecore.Responder,
) *RemindersUseCase {
	return &RemindersUseCase{
		completions: completions,
		reminders:   reminders,
		responder:   responder,
	}
}

// Bugme parses a freeform reminder request and starts the DM reminder loop.
func (u *RemindersUseCase) Bugme(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	input := strings.TrimSpace(args)
	if input == "" {
		return u.responder.Reply(execCtx, "⚠️ Please provide a reminder message.")
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    parseSystemPrompt,
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: "Input: " + input}},
		MaxTokens: 256,
	})
	if err != nil {
		return fmt.Errorf("failed to parse reminder request: %w", err)
	}

	reminder, ok := parseReminderJSON(result.Text)
	if !ok {
		log.Printf("⚠️ Unparseable reminder reply for user %s: %q", execCtx.UserID, result.Text)
		return u.responder.Reply(execCtx, "⚠️ I couldn't understand your reminder. Please try again.")
	}
	reminder = remindersvc.ClampReminder(reminder)

	if err := u.reminders.Start(execCtx, reminder); err != nil {
		if errors.Is(err, remindersvc.ErrReminderAlreadyActive) {
			return u.responder.Reply(execCtx,
				"⚠️ You already have an active reminder. Use `!bugoff` in your DMs to stop it first.")
		}
		return fmt.Errorf("failed to start reminder: %w", err)
	}

	return u.responder.Reply(execCtx, fmt.Sprintf(
		"✅ I'll remind you every %d minutes: %q for up to %d hours. Use `!bugoff` in your DMs to stop early.",
		reminder.IntervalMinutes, reminder.Message, reminder.DurationHours))
}

// Bugoff stops the caller's active reminder. The command policy restricts it
// to DMs.
func (u *RemindersUseCase) Bugoff(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	if err := u.reminders.Stop(execCtx.UserID); err != nil {
		if errors.Is(err, remindersvc.ErrNoActiveReminder) {
			return u.responder.Reply(execCtx, "⚠️ You don't have any active reminders.")
		}
		return fmt.Errorf("failed to stop reminder: %w", err)
	}
	return u.responder.Reply(execCtx, "✅ Your reminder has been stopped.")
}

// parseReminderJSON extracts the JSON object from the model reply and
// unmarshals it. Anything that is not valid JSON with a non-empty message is
// rejected.
func parseReminderJSON(reply string) (models.Reminder, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end < start {
		return models.Reminder{}, false
	}

	var reminder models.Reminder
	if err := json.Unmarshal([]byte(reply[start:end+1]), &reminder); err != nil {
		return models.Reminder{}, false
	}
	if strings.TrimSpace(reminder.Message) == "" {
		return models.Reminder{}, false
	}
	return reminder, true
}
