package messages

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"henbot/clients"
	"henbot/models"
	usecasecore "henbot/usecases/core"
)

const (
	historyScanLimit = 100
	maxClearCount    = 100
)

// HelpProvider renders the registered command summary.
type HelpProvider interface {
	HelpText() string
}

// MessagesUseCase handles channel housekeeping: searching history, bulk
// deletion, and the command listing.
type MessagesUseCase struct {
	chatClient clients.ChatClient
	help       HelpProvider
	responder  *usecasecore.Responder
}

func NewMessagesUseCase(
	chatClient clients.ChatClient,
	help HelpProvider,
	responder *usecasecore.Responder,
) *MessagesUseCase {
	return &MessagesUseCase{
		chatClient: chatClient,
		help:       help,
		responder:  responder,
	}
}

// Match finds the most recent message containing the text and reports how
// many messages back it is, not counting the command invocation itself.
func (u *MessagesUseCase) Match(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	text := strings.TrimSpace(args)
	if text == "" {
		return u.responder.Reply(execCtx, "⚠️ Usage: `!match <text>`")
	}

	history, err := u.chatClient.GetChannelMessages(execCtx.ChannelID, historyScanLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}

	position := 0
	for _, msg := range history {
		if msg.ID == execCtx.MessageID {
			continue
		}
		position++
		if strings.Contains(msg.Content, text) {
			return u.responder.Reply(execCtx, fmt.Sprintf(
				"🔎 Found message %d messages ago: `%s` (by %s)", position, msg.Content, msg.AuthorName))
		}
	}
	return u.responder.Reply(execCtx, "❌ No messages found containing the specified text.")
}

// Clear bulk-deletes recent messages, including the command invocation.
// The platform's bulk endpoint takes at most 100 IDs per call, invocation
// included, so the effective content maximum is 99.
func (u *MessagesUseCase) Clear(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	count := 1
	if trimmed := strings.TrimSpace(args); trimmed != "" {
		parsed, err := strconv.Atoi(trimmed)
		if err != nil || parsed < 1 {
			return u.responder.Reply(execCtx, "⚠️ Usage: `!clear [count]`")
		}
		count = min(parsed, maxClearCount-1)
	}

	history, err := u.chatClient.GetChannelMessages(execCtx.ChannelID, count+1, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}

	messageIDs := make([]string, 0, len(history))
	for _, msg := range history {
		messageIDs = append(messageIDs, msg.ID)
	}
	if len(messageIDs) == 0 {
		return u.responder.Reply(execCtx, "❌ Nothing to clear.")
	}

	if err := u.chatClient.BulkDeleteMessages(execCtx.ChannelID, messageIDs); err != nil {
		return fmt.Errorf("failed to bulk delete messages: %w", err)
	}
	cleared := len(messageIDs) - 1
	log.Printf("✅ Cleared %d messages in channel %s for user %s", cleared, execCtx.ChannelID, execCtx.UserID)
	return u.responder.Reply(execCtx, fmt.Sprintf("✅ Cleared %d messages.", cleared))
}

// ClearAfter deletes everything sent after the most recent message containing
// the text, plus the command invocation.
func (u *MessagesUseCase) ClearAfter(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	text := strings.TrimSpace(args)
	if text == "" {
		return u.responder.Reply(execCtx, "⚠️ Usage: `!clearafter <text>`")
	}

	history, err := u.chatClient.GetChannelMessages(execCtx.ChannelID, historyScanLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}

	var toDelete []string
	found := false
	for _, msg := range history {
		if msg.ID != execCtx.MessageID && strings.Contains(msg.Content, text) {
			found = true
			break
		}
		toDelete = append(toDelete, msg.ID)
	}
	if !found {
		return u.responder.Reply(execCtx, "❌ No messages found containing the specified text.")
	}

	if err := u.chatClient.BulkDeleteMessages(execCtx.ChannelID, toDelete); err != nil {
		return fmt.Errorf("failed to bulk delete messages: %w", err)
	}
	return u.responder.Reply(execCtx, fmt.Sprintf("✅ Cleared %d messages after `%s`.", len(toDelete), text))
}

// Commands replies with the registered command listing.
func (u *MessagesUseCase) Commands(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	return u.responder.Reply(execCtx, u.help.HelpText())
}
