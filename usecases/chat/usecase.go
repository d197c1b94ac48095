package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"slices"
	"strings"

	"henbot/clients"
	"henbot/models"
	usecasecore "henbot/usecases/core"
)

const eggPersona = "You are an AI who is absolutely obsessed with eggs. " +
	"Every response must contain at least one egg-related metaphor or pun. " +
	"Interpret the user's message through the lens of eggs, yolks, shells, nests and omelets. " +
	"You get especially excited if the user talks about eggs directly. " +
	"Be whimsical, playful, and charming, and always try to bring the conversation back to eggs."

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// CompletionCreator is the slice of the llm service this usecase needs.
type CompletionCreator interface {
	CreateCompletion(ctx context.Context, req clients.CompletionRequest) (*clients.CompletionResult, error)
}

// ChatUseCase handles the conversational surface: free-form chat, the egg
// persona, dream interpretation, user-style simulation, and non-command DMs.
type ChatUseCase struct {
	chatClient  clients.ChatClient
	completions CompletionCreator
	responder   *usecasecore.Responder
}

func NewChatUseCase(
	chatClient clients.ChatClient,
	completions CompletionCreator,
	responder *usecasecore.Responder,
) *ChatUseCase {
	return &ChatUseCase{
		chatClient:  chatClient,
		completions: completions,
		responder:   responder,
	}
}

// Chat relays the user's message to the model and replies with the raw
// completion.
func (u *ChatUseCase) Chat(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	if strings.TrimSpace(args) == "" {
		return u.responder.Reply(execCtx, "⚠️ Please provide a message to chat about.")
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: args}},
		MaxTokens: 1024,
	})
	if err != nil {
		return fmt.Errorf("failed to generate chat response: %w", err)
	}
	log.Printf("✅ Chat response generated for user %s", execCtx.UserID)
	return u.responder.Reply(execCtx, strings.TrimSpace(result.Text))
}

// Egg answers in the egg persona. Without an argument it egg-splains the
// previous message in the channel.
func (u *ChatUseCase) Egg(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	message := strings.TrimSpace(args)
	if message == "" {
		previous, err := u.previousMessage(execCtx)
		if err != nil {
			return fmt.Errorf("failed to look up previous message: %w", err)
		}
		if previous == "" {
			return u.responder.Reply(execCtx, "🥚 Couldn't find a previous message to egg-splain.")
		}
		message = previous
	}

	waitingID, err := u.responder.SendWaiting(execCtx.ChannelID, "🥚 Warming up the nest...")
	if err != nil {
		return err
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    eggPersona,
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: message}},
		MaxTokens: 1024,
	})
	u.responder.DeleteQuietly(execCtx.ChannelID, waitingID)
	if err != nil {
		return fmt.Errorf("failed to generate egg response: %w", err)
	}
	return u.responder.Reply(execCtx, strings.TrimSpace(result.Text))
}

// Dream interprets the described dream.
func (u *ChatUseCase) Dream(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	if strings.TrimSpace(args) == "" {
		return u.responder.Reply(execCtx, "⚠️ Please describe the dream you'd like interpreted.")
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System: "You are an AI that analyzes and interprets dreams.",
		Messages: []clients.PromptMessage{{
			Role:    clients.PromptRoleUser,
			Content: fmt.Sprintf("Please analyze this dream and provide an interpretation:\n\n%s", args),
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze dream: %w", err)
	}
	return u.responder.Reply(execCtx, fmt.Sprintf("💭 **Dream Interpretation:** %s", strings.TrimSpace(result.Text)))
}

// DirectMessage answers a freeform DM that did not parse as a command. The
// reply is gated on sharing a guild with the bot and holding the Vetted role
// there, since DMs bypass the per-command permission gate.
func (u *ChatUseCase) DirectMessage(ctx context.Context, execCtx models.ExecutionContext, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	mutual, vetted, err := u.vettedInMutualGuild(execCtx.UserID)
	if err != nil {
		return fmt.Errorf("failed to check guild membership for %s: %w", execCtx.UserID, err)
	}
	if !mutual {
		return u.responder.Reply(execCtx, "⚠️ I can only chat with users who share a server with me.")
	}
	if !vetted {
		return u.responder.Reply(execCtx, "⚠️ You must have the 'Vetted' role in a mutual server to chat with me.")
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: content}},
		MaxTokens: 1024,
	})
	if err != nil {
		_ = u.responder.Reply(execCtx, "⚠️ Sorry, something went wrong while processing your message.")
		return fmt.Errorf("failed to generate DM response: %w", err)
	}
	log.Printf("✅ DM chat response generated for user %s", execCtx.UserID)
	return u.responder.Reply(execCtx, strings.TrimSpace(result.Text))
}

// vettedInMutualGuild reports whether the user shares any guild with the bot
// and whether one of those guilds grants them the Vetted role. Guilds where
// the member lookup fails count as not shared.
func (u *ChatUseCase) vettedInMutualGuild(userID string) (mutual, vetted bool, err error) {
	guilds, err := u.chatClient.GetGuilds()
	if err != nil {
		return false, false, err
	}
	for _, guild := range guilds {
		roles, err := u.chatClient.GetUserRoleNames(guild.ID, userID)
		if err != nil {
			continue
		}
		mutual = true
		if slices.Contains(roles, "Vetted") {
			return true, true, nil
		}
	}
	return mutual, false, nil
}

// Talkto simulates how the named user might reply to the prompt, based on
// their recent messages across the guild's readable channels.
func (u *ChatUseCase) Talkto(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	userRef, prompt, ok := splitUserAndPrompt(args)
	if !ok {
		return u.responder.Reply(execCtx, "⚠️ Usage: `!talkto @User <message>`")
	}

	waitingID, err := u.responder.SendWaiting(execCtx.ChannelID,
		fmt.Sprintf("⏳ Please wait, generating a response for %s...", displayRef(userRef)))
	if err != nil {
		return err
	}

	pastMessages, displayName, err := u.fetchUserMessages(execCtx.GuildID, userRef, 10)
	if err != nil {
		u.responder.DeleteQuietly(execCtx.ChannelID, waitingID)
		return fmt.Errorf("failed to fetch messages for %s: %w", userRef, err)
	}
	if len(pastMessages) == 0 {
		return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
			fmt.Sprintf("⚠️ No messages found for %s.", displayRef(userRef)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "The following are recent messages from %s:\n", displayName)
	for _, msg := range pastMessages {
		fmt.Fprintf(&sb, "- %s\n", msg)
	}
	fmt.Fprintf(&sb, "\nStay close to the topics and vocabulary these messages use, "+
		"but you may use other words if needed for fluency.\n")
	fmt.Fprintf(&sb, "Now, generate a response in their style to this comment: %q", prompt)

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    "Mimic the style of the provided user messages.",
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: sb.String()}},
		MaxTokens: 1024,
	})
	if err != nil {
		_ = u.responder.EditOrSend(execCtx.ChannelID, waitingID, "⚠️ An error occurred while generating a response.")
		return fmt.Errorf("failed to generate talkto response: %w", err)
	}
	return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
		fmt.Sprintf("**%s might say:** %s", displayName, strings.TrimSpace(result.Text)))
}

// previousMessage finds the newest channel message that is not the command
// invocation itself.
func (u *ChatUseCase) previousMessage(execCtx models.ExecutionContext) (string, error) {
	messages, err := u.chatClient.GetChannelMessages(execCtx.ChannelID, 5, 0)
	if err != nil {
		return "", err
	}
	for _, msg := range messages {
		if msg.ID == execCtx.MessageID || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		return msg.Content, nil
	}
	return "", nil
}

// fetchUserMessages walks the guild's text channels collecting the target
// user's most recent messages, up to limit. Channels the bot cannot read are
// skipped.
func (u *ChatUseCase) fetchUserMessages(guildID, userRef string, limit int) ([]string, string, error) {
	targetID := ""
	if m := mentionPattern.FindStringSubmatch(userRef); m != nil {
		targetID = m[1]
	}
	targetName := strings.ToLower(strings.TrimPrefix(userRef, "@"))

	channels, err := u.chatClient.GetGuildTextChannels(guildID)
	if err != nil {
		return nil, "", err
	}

	var collected []string
	displayName := displayRef(userRef)
	for _, channel := range channels {
		messages, err := u.chatClient.GetChannelMessages(channel.ID, 100, 0)
		if err != nil {
			if errors.Is(err, clients.ErrForbidden) {
				continue
			}
			return nil, "", err
		}
		for _, msg := range messages {
			if msg.IsBot || strings.TrimSpace(msg.Content) == "" {
				continue
			}
			if targetID != "" && msg.AuthorID != targetID {
				continue
			}
			if targetID == "" && strings.ToLower(msg.AuthorName) != targetName {
				continue
			}
			collected = append(collected, msg.Content)
			displayName = msg.AuthorName
			if len(collected) >= limit {
				return collected, displayName, nil
			}
		}
	}
	return collected, displayName, nil
}

func splitUserAndPrompt(args string) (userRef, prompt string, ok bool) {
	fields := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return "", "", false
	}
	return fields[0], strings.TrimSpace(fields[1]), true
}

func displayRef(userRef string) string {
	return strings.TrimPrefix(userRef, "@")
}
