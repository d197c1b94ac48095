package insights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"henbot/clients"
	"henbot/core"
	"henbot/models"
	usecasecore "henbot/usecases/core"
)

const (
	recentWindow        = 24 * time.Hour
	transcriptTokenCap  = 12000
	defaultCatchupUsers = 10

	catchupChannelPrompt = "Summarize the following chat messages from a single channel, " +
		"grouping discussions by topic. Return a simple bulleted list of key topics discussed."
	moodPrompt = "You are an AI that analyzes emotions in conversations."

	planhourPrompt = "You are a witty AI that humorously extends a user's recent activities " +
		"into exaggerated but plausible plans."
	planlifePrompt = "You are a witty AI that humorously extends a user's recent activities " +
		"into an exaggerated but semi-realistic lifelong mission."
	snapshotPrompt = "Create a vivid, creative, and visually interesting image prompt " +
		"based on the following Discord messages. The prompt should describe an artistic scene " +
		"that represents the conversation topics and themes in a unique and engaging way."
)

var userMentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// CompletionCreator is the slice of the llm service this usecase needs.
type CompletionCreator interface {
	CreateCompletion(ctx context.Context, req clients.CompletionRequest) (*clients.CompletionResult, error)
}

// WhitelistProvider exposes the per-command channel whitelist.
type WhitelistProvider interface {
	GetCommandWhitelist(command string) []string
}

// InsightsUseCase handles the channel-analysis commands: mood, catchup,
// guide, planhour, planlife, and snapshot.
type InsightsUseCase struct {
	chatClient  clients.ChatClient
	completions CompletionCreator
	whitelist   WhitelistProvider
	responder   *usecasecore.Responder
}

func NewInsightsUseCase(
	chatClient clients.ChatClient,
	completions CompletionCreator,
	whitelist WhitelistProvider,
	responder *usecasecore.Responder,
) *InsightsUseCase {
	return &InsightsUseCase{
		chatClient:  chatClient,
		completions: completions,
		whitelist:   whitelist,
		responder:   responder,
	}
}

// Mood analyzes the emotions in a channel's recent messages, optionally
// narrowed to a single user or redirected to another channel.
func (u *InsightsUseCase) Mood(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	targetChannelID := execCtx.ChannelID
	targetChannelName := execCtx.ChannelName
	userFilter := ""

	for _, arg := range strings.Fields(args) {
		if strings.HasPrefix(arg, "#") {
			channel, err := u.resolveChannel(execCtx.GuildID, strings.TrimPrefix(arg, "#"))
			if err != nil {
				return fmt.Errorf("failed to resolve channel %s: %w", arg, err)
			}
			if channel == nil {
				return u.responder.Reply(execCtx,
					fmt.Sprintf("⚠️ Could not recognize `%s` as a valid user or channel.", arg))
			}
			targetChannelID = channel.ID
			targetChannelName = channel.Name
			continue
		}
		userFilter = arg
	}

	lines, err := u.collectMoodLines(targetChannelID, execCtx.MessageID, userFilter)
	if err != nil {
		return fmt.Errorf("failed to fetch messages from %s: %w", targetChannelName, err)
	}
	if len(lines) == 0 {
		return u.responder.Reply(execCtx, "⚠️ No messages found for the specified user or channel.")
	}

	prompt := "Analyze the emotions in this conversation and suggest how the participants might be feeling:\n\n" +
		strings.Join(lines, "\n") +
		"\n\nGive a concise emotional summary."

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    moodPrompt,
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: prompt}},
		MaxTokens: 1024,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze mood: %w", err)
	}
	log.Printf("✅ Mood analysis generated for channel %s", targetChannelName)
	return u.responder.Reply(execCtx, fmt.Sprintf("💡 Mood Analysis: %s", strings.TrimSpace(result.Text)))
}

// Catchup summarizes the last day of activity. With a #channel argument it
// produces a topic summary of that channel; otherwise a per-user summary
// across the whitelisted channels, trimmed to a token budget.
func (u *InsightsUseCase) Catchup(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	var channelArg string
	maxUsers := defaultCatchupUsers
	for _, arg := range strings.Fields(args) {
		if strings.HasPrefix(arg, "#") {
			channelArg = strings.TrimPrefix(arg, "#")
			continue
		}
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			maxUsers = n
		}
	}

	waitingID, err := u.responder.SendWaiting(execCtx.ChannelID, "Fetching messages... Please wait.")
	if err != nil {
		return err
	}

	if channelArg != "" {
		return u.catchupSingleChannel(ctx, execCtx, waitingID, channelArg)
	}
	return u.catchupAllChannels(ctx, execCtx, waitingID, maxUsers)
}

func (u *InsightsUseCase) catchupSingleChannel(
	ctx context.Context,
	execCtx models.ExecutionContext,
	waitingID, channelName string,
) error {
	channel, err := u.resolveChannel(execCtx.GuildID, channelName)
	if err != nil {
		return fmt.Errorf("failed to resolve channel %s: %w", channelName, err)
	}
	if channel == nil {
		return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
			fmt.Sprintf("⚠️ Could not find a channel named #%s.", channelName))
	}

	cutoff := time.Now().Add(-recentWindow).Unix()
	messages, err := u.chatClient.GetChannelMessages(channel.ID, 200, cutoff)
	if err != nil {
		if errors.Is(err, clients.ErrForbidden) {
			return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
				fmt.Sprintf("⚠️ I don't have permission to read #%s.", channel.Name))
		}
		return fmt.Errorf("failed to fetch messages from #%s: %w", channel.Name, err)
	}

	var contents []string
	for _, msg := range messages {
		if msg.IsBot || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		contents = append(contents, msg.Content)
	}
	if len(contents) == 0 {
		return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
			fmt.Sprintf("No recent discussions found in #%s.", channel.Name))
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    catchupChannelPrompt,
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: strings.Join(contents, "\n")}},
		MaxTokens: 1024,
	})
	if err != nil {
		_ = u.responder.EditOrSend(execCtx.ChannelID, waitingID, "⚠️ Error generating summary.")
		return fmt.Errorf("failed to summarize #%s: %w", channel.Name, err)
	}
	return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
		fmt.Sprintf("Here's what's been happening in #%s:\n%s", channel.Name, result.Text))
}

func (u *InsightsUseCase) catchupAllChannels(
	ctx context.Context,
	execCtx models.ExecutionContext,
	waitingID string,
	maxUsers int,
) error {
	channels, err := u.chatClient.GetGuildTextChannels(execCtx.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list guild channels: %w", err)
	}
	whitelist := u.whitelist.GetCommandWhitelist("catchup")

	cutoff := time.Now().Add(-recentWindow).Unix()
	userMessages := make(map[string][]string)
	var userOrder []string
	for _, channel := range channels {
		if len(whitelist) > 0 && !slices.Contains(whitelist, channel.Name) {
			continue
		}
		messages, err := u.chatClient.GetChannelMessages(channel.ID, 100, cutoff)
		if err != nil {
			if errors.Is(err, clients.ErrForbidden) {
				continue
			}
			return fmt.Errorf("failed to fetch messages from #%s: %w", channel.Name, err)
		}
		for _, msg := range messages {
			if msg.IsBot || strings.TrimSpace(msg.Content) == "" {
				continue
			}
			if _, seen := userMessages[msg.AuthorName]; !seen {
				userOrder = append(userOrder, msg.AuthorName)
			}
			userMessages[msg.AuthorName] = append(userMessages[msg.AuthorName], msg.Content)
		}
	}
	if len(userMessages) == 0 {
		return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
			"No significant messages in the past 24 hours.")
	}

	formatted := make([]string, 0, len(userOrder))
	for _, user := range userOrder {
		formatted = append(formatted, fmt.Sprintf("%s: %s", user, strings.Join(userMessages[user], " || ")))
	}
	formatted = trimToTokenBudget(formatted, transcriptTokenCap)

	system := fmt.Sprintf(
		"Summarize the following chat messages from the past 24 hours in a bullet point format, "+
			"grouping by user. Prioritize users experiencing the most severe life stresses: "+
			"medical emergencies and major loss first, deep emotional distress next, "+
			"general stressors like work frustration or sleep issues last. "+
			"Summarize each user's contributions in up to 5 sentences, and limit the report to the "+
			"top %d most affected users.", maxUsers)

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    system,
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: strings.Join(formatted, "\n")}},
		MaxTokens: 2048,
	})
	if err != nil {
		_ = u.responder.EditOrSend(execCtx.ChannelID, waitingID, "⚠️ Error generating summary.")
		return fmt.Errorf("failed to summarize recent activity: %w", err)
	}
	return u.responder.EditOrSend(execCtx.ChannelID, waitingID, result.Text)
}

// Guide DMs the user an overview of each channel whitelisted for it. The
// invoking command message is removed to keep the channel tidy.
func (u *InsightsUseCase) Guide(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	u.responder.DeleteQuietly(execCtx.ChannelID, execCtx.MessageID)

	whitelisted := u.whitelist.GetCommandWhitelist("guide")
	if len(whitelisted) == 0 {
		return u.responder.Reply(execCtx, "⚠️ No channels are currently whitelisted for summaries.")
	}

	channels, err := u.chatClient.GetGuildTextChannels(execCtx.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list guild channels: %w", err)
	}
	byName := make(map[string]clients.ChatChannel, len(channels))
	for _, channel := range channels {
		byName[channel.Name] = channel
	}

	var summaries []string
	for _, name := range whitelisted {
		channel, ok := byName[name]
		if !ok {
			continue
		}
		messages, err := u.chatClient.GetChannelMessages(channel.ID, 20, 0)
		if err != nil {
			log.Printf("⚠️ Failed to read #%s for guide: %v", channel.Name, err)
			continue
		}
		var lines []string
		for _, msg := range messages {
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", msg.AuthorName, msg.Content))
		}
		if len(lines) == 0 {
			continue
		}

		result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
			Messages: []clients.PromptMessage{{
				Role:    clients.PromptRoleUser,
				Content: fmt.Sprintf("Summarize the following discussion in %s:\n%s", channel.Name, strings.Join(lines, "\n")),
			}},
			MaxTokens: 1024,
		})
		if err != nil {
			summaries = append(summaries, fmt.Sprintf("⚠️ Error summarizing #%s.", channel.Name))
			continue
		}
		summaries = append(summaries, fmt.Sprintf("📢 **Summary for #%s:**\n%s", channel.Name, result.Text))
	}

	if len(summaries) == 0 {
		return u.responder.Reply(execCtx, "⚠️ No significant discussions found in the whitelisted channels.")
	}
	return u.responder.Reply(execCtx, strings.Join(summaries, "\n\n"))
}

// Planhour invents a humorous next-hour plan from a user's recent messages.
// Arguments may name a user (mention or name) and/or a #channel; both default
// to the invoker and the current channel.
func (u *InsightsUseCase) Planhour(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	targetChannelID := execCtx.ChannelID
	targetChannelName := execCtx.ChannelName
	userFilter := ""
	displayName := execCtx.Username

	for _, arg := range strings.Fields(args) {
		if strings.HasPrefix(arg, "#") {
			channel, err := u.resolveChannel(execCtx.GuildID, strings.TrimPrefix(arg, "#"))
			if err != nil {
				return fmt.Errorf("failed to resolve channel %s: %w", arg, err)
			}
			if channel == nil {
				return u.responder.Reply(execCtx,
					fmt.Sprintf("⚠️ Could not recognize `%s` as a valid user or channel.", arg))
			}
			targetChannelID = channel.ID
			targetChannelName = channel.Name
			continue
		}
		userFilter = arg
		displayName = strings.TrimPrefix(arg, "@")
	}

	messages, err := u.collectUserMessages(targetChannelID, execCtx, userFilter)
	if err != nil {
		return fmt.Errorf("failed to fetch messages from %s: %w", targetChannelName, err)
	}
	if len(messages) == 0 {
		return u.responder.Reply(execCtx,
			fmt.Sprintf("No recent messages found for %s in #%s.", displayName, targetChannelName))
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System: planhourPrompt,
		Messages: []clients.PromptMessage{{
			Role: clients.PromptRoleUser,
			Content: fmt.Sprintf("Based on these recent activities: %s, "+
				"create a humorous but plausible plan for the next hour.", strings.Join(messages, "; ")),
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return fmt.Errorf("failed to generate next-hour plan: %w", err)
	}
	return u.responder.Reply(execCtx,
		fmt.Sprintf("🕒 **Your Next Hour Plan:**\n%s", strings.TrimSpace(result.Text)))
}

// Planlife invents an exaggerated lifelong mission from the invoker's recent
// messages in the current channel.
func (u *InsightsUseCase) Planlife(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	messages, err := u.collectUserMessages(execCtx.ChannelID, execCtx, "")
	if err != nil {
		return fmt.Errorf("failed to fetch messages from %s: %w", execCtx.ChannelName, err)
	}
	if len(messages) == 0 {
		return u.responder.Reply(execCtx,
			"I couldn't find enough recent messages to craft your lifelong mission!")
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System: planlifePrompt,
		Messages: []clients.PromptMessage{{
			Role: clients.PromptRoleUser,
			Content: fmt.Sprintf("Based on these recent activities: %s, "+
				"generate an amusing but somewhat realistic lifelong mission.", strings.Join(messages, "; ")),
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return fmt.Errorf("failed to generate lifelong mission: %w", err)
	}
	return u.responder.Reply(execCtx,
		fmt.Sprintf("🌟 **Your Lifelong Mission:**\n%s", strings.TrimSpace(result.Text)))
}

// Snapshot turns a channel's recent conversation into an AI image prompt.
// An optional #channel argument redirects it away from the current channel.
func (u *InsightsUseCase) Snapshot(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	targetChannelID := execCtx.ChannelID
	targetChannelName := execCtx.ChannelName

	if arg := strings.TrimSpace(args); arg != "" {
		channel, err := u.resolveChannel(execCtx.GuildID, strings.TrimPrefix(arg, "#"))
		if err != nil {
			return fmt.Errorf("failed to resolve channel %s: %w", arg, err)
		}
		if channel == nil {
			return u.responder.Reply(execCtx,
				fmt.Sprintf("⚠️ Could not find a channel named #%s.", strings.TrimPrefix(arg, "#")))
		}
		targetChannelID = channel.ID
		targetChannelName = channel.Name
	}

	waitingID, err := u.responder.SendWaiting(execCtx.ChannelID,
		fmt.Sprintf("Analyzing recent messages in #%s... Please wait.", targetChannelName))
	if err != nil {
		return err
	}

	messages, err := u.chatClient.GetChannelMessages(targetChannelID, 10, 0)
	if err != nil {
		if errors.Is(err, clients.ErrForbidden) {
			return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
				fmt.Sprintf("I don't have permission to read #%s.", targetChannelName))
		}
		return fmt.Errorf("failed to fetch messages from #%s: %w", targetChannelName, err)
	}

	var lines []string
	for _, msg := range messages {
		if msg.IsBot || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.AuthorName, msg.Content))
	}
	if len(lines) == 0 {
		return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
			fmt.Sprintf("No recent messages found in #%s.", targetChannelName))
	}

	result, err := u.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System:    snapshotPrompt,
		Messages:  []clients.PromptMessage{{Role: clients.PromptRoleUser, Content: strings.Join(lines, "\n")}},
		MaxTokens: 1024,
	})
	if err != nil {
		_ = u.responder.EditOrSend(execCtx.ChannelID, waitingID, "⚠️ Error generating image prompt.")
		return fmt.Errorf("failed to generate image prompt for #%s: %w", targetChannelName, err)
	}
	log.Printf("✅ Image prompt generated from #%s", targetChannelName)
	return u.responder.EditOrSend(execCtx.ChannelID, waitingID,
		fmt.Sprintf("🎨 **Here's your AI-generated image prompt:**\n*%s*", strings.TrimSpace(result.Text)))
}

func (u *InsightsUseCase) resolveChannel(guildID, name string) (*clients.ChatChannel, error) {
	channels, err := u.chatClient.GetGuildTextChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, channel := range channels {
		if channel.Name == name {
			return &channel, nil
		}
	}
	return nil, nil
}

func (u *InsightsUseCase) collectMoodLines(channelID, commandMessageID, userFilter string) ([]string, error) {
	messages, err := u.chatClient.GetChannelMessages(channelID, 50, 0)
	if err != nil {
		return nil, err
	}

	targetID := ""
	if m := userMentionPattern.FindStringSubmatch(userFilter); m != nil {
		targetID = m[1]
	}
	targetName := strings.ToLower(strings.TrimPrefix(userFilter, "@"))

	var lines []string
	for _, msg := range messages {
		if msg.ID == commandMessageID || msg.IsBot || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		if userFilter != "" {
			if targetID != "" && msg.AuthorID != targetID {
				continue
			}
			if targetID == "" && strings.ToLower(msg.AuthorName) != targetName {
				continue
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.AuthorName, msg.Content))
		if len(lines) >= 10 {
			break
		}
	}
	return lines, nil
}

// collectUserMessages returns up to 10 recent message bodies from one user
// in a channel, newest first. An empty filter means the invoking user;
// otherwise the filter is a mention or a name, matched like in Mood.
// Command invocations are skipped so plans build on real activity.
func (u *InsightsUseCase) collectUserMessages(
	channelID string,
	execCtx models.ExecutionContext,
	userFilter string,
) ([]string, error) {
	messages, err := u.chatClient.GetChannelMessages(channelID, 50, 0)
	if err != nil {
		return nil, err
	}

	targetID := execCtx.UserID
	targetName := ""
	if userFilter != "" {
		targetID = ""
		if m := userMentionPattern.FindStringSubmatch(userFilter); m != nil {
			targetID = m[1]
		}
		targetName = strings.ToLower(strings.TrimPrefix(userFilter, "@"))
	}

	var collected []string
	for _, msg := range messages {
		if msg.ID == execCtx.MessageID || msg.IsBot ||
			strings.TrimSpace(msg.Content) == "" || strings.HasPrefix(msg.Content, "!") {
			continue
		}
		if targetID != "" && msg.AuthorID != targetID {
			continue
		}
		if targetID == "" && strings.ToLower(msg.AuthorName) != targetName {
			continue
		}
		collected = append(collected, msg.Content)
		if len(collected) >= 10 {
			break
		}
	}
	return collected, nil
}

// trimToTokenBudget drops transcript entries from the front until the
// estimated token count fits the budget, always keeping at least one entry.
func trimToTokenBudget(entries []string, budget int) []string {
	total := 0
	for _, entry := range entries {
		total += core.EstimateTokens(entry)
	}
	for total > budget && len(entries) > 1 {
		total -= core.EstimateTokens(entries[0])
		entries = entries[1:]
	}
	return entries
}
