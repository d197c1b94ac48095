package digest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"henbot/clients"
	"henbot/core"
	"henbot/utils"
)

const (
	historyLimit      = 200
	lookbackWindow    = 24 * time.Hour
	promptTokenBudget = 12000
)

// WhitelistProvider exposes the per-command channel whitelist.
type WhitelistProvider interface {
	GetCommandWhitelist(commandName string) []string
}

// CompletionCreator is the completion gateway the digest talks to.
type CompletionCreator interface {
	CreateCompletion(ctx context.Context, req clients.CompletionRequest) (*clients.CompletionResult, error)
}

// DigestService posts a scheduled recap into every channel whitelisted for
// the catchup command. Channels the bot cannot read are skipped, not fatal.
type DigestService struct {
	chatClient  clients.ChatClient
	completions CompletionCreator
	whitelists  WhitelistProvider
}

func NewDigestService(
	chatClient clients.ChatClient,
	completions CompletionCreator,
	whitelists WhitelistProvider,
) *DigestService {
	return &DigestService{
		chatClient:  chatClient,
		completions: completions,
		whitelists:  whitelists,
	}
}

// Run produces and posts one digest cycle. Invoked by the cron scheduler.
func (s *DigestService) Run(ctx context.Context) error {
	log.Printf("📋 Starting scheduled digest run")

	whitelist := s.whitelists.GetCommandWhitelist("catchup")
	if len(whitelist) == 0 {
		log.Printf("⚠️ No channels whitelisted for digest - nothing to do")
		return nil
	}

	guilds, err := s.chatClient.GetGuilds()
	if err != nil {
		return fmt.Errorf("failed to list guilds for digest: %w", err)
	}

	var digested int
	for _, guild := range guilds {
		channels, err := s.chatClient.GetGuildTextChannels(guild.ID)
		if err != nil {
			log.Printf("⚠️ Skipping guild %s in digest: %v", guild.ID, err)
			continue
		}

		for _, channel := range channels {
			if !slices.Contains(whitelist, channel.Name) {
				continue
			}
			if err := s.digestChannel(ctx, channel); err != nil {
				if errors.Is(err, clients.ErrForbidden) {
					log.Printf("⚠️ No read access to channel %s, skipping", channel.Name)
					continue
				}
				log.Printf("❌ Digest failed for channel %s: %v", channel.Name, err)
				continue
			}
			digested++
		}
	}

	log.Printf("✅ Digest run completed for %d channels", digested)
	return nil
}

func (s *DigestService) digestChannel(ctx context.Context, channel clients.ChatChannel) error {
	afterTime := time.Now().Add(-lookbackWindow).Unix()
	messages, err := s.chatClient.GetChannelMessages(channel.ID, historyLimit, afterTime)
	if err != nil {
		return err
	}

	var lines []string
	for _, msg := range messages {
		if msg.IsBot {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.AuthorName, msg.Content))
	}
	if len(lines) == 0 {
		log.Printf("⚠️ No recent discussion in %s, skipping digest", channel.Name)
		return nil
	}

	// Drop oldest lines until the transcript fits the prompt budget.
	transcript := strings.Join(lines, "\n")
	for core.EstimateTokens(transcript) > promptTokenBudget && len(lines) > 1 {
		lines = lines[:len(lines)-1]
		transcript = strings.Join(lines, "\n")
	}

	result, err := s.completions.CreateCompletion(ctx, clients.CompletionRequest{
		System: "Summarize the following chat messages from the past 24 hours, " +
			"grouping discussions by topic. Return a short bulleted list of key topics.",
		Messages: []clients.PromptMessage{
			{Role: clients.PromptRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to summarize channel %s: %w", channel.Name, err)
	}

	for _, part := range utils.SplitMessage("📰 Daily digest:\n" + result.Text) {
		if _, err := s.chatClient.SendMessage(channel.ID, part); err != nil {
			return err
		}
	}
	return nil
}
