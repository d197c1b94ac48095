package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"henbot/commands"
	"henbot/config"
	"henbot/models"
	"henbot/services/botconfig"
)

// DirectChatter answers DMs that did not parse as a command.
type DirectChatter interface {
	DirectMessage(ctx context.Context, execCtx models.ExecutionContext, content string) error
}

// DiscordEventsHandler owns the Discord gateway session: it parses prefixed
// commands out of incoming messages, hands non-command DMs to the direct
// chatter, and routes config-channel activity to the botconfig store.
type DiscordEventsHandler struct {
	session   *discordgo.Session
	registry  *commands.Registry
	botConfig *botconfig.BotConfigService
	dmChat    DirectChatter
	cfg       config.DiscordConfig

	mu              sync.RWMutex
	botUserID       string
	configChannelID string
}

func NewDiscordEventsHandler(
	session *discordgo.Session,
	cfg config.DiscordConfig,
	registry *commands.Registry,
	botConfig *botconfig.BotConfigService,
	dmChat DirectChatter,
) *DiscordEventsHandler {
	handler := &DiscordEventsHandler{
		session:   session,
		registry:  registry,
		botConfig: botConfig,
		dmChat:    dmChat,
		cfg:       cfg,
	}

	session.AddHandler(handler.handleReadyEvent)
	session.AddHandler(handler.handleMessageCreatedEvent)
	session.AddHandler(handler.handleMessageUpdatedEvent)
	session.AddHandler(handler.handleMessageDeletedEvent)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return handler
}

// StartBot opens the Discord connection and starts listening for events
func (h *DiscordEventsHandler) StartBot() error {
	if err := h.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	log.Printf("🤖 Discord bot is now running and listening for events")
	return nil
}

// StopBot gracefully closes the Discord connection
func (h *DiscordEventsHandler) StopBot() {
	h.session.Close()
}

// handleReadyEvent records the bot identity and loads the whitelist config
// from the reserved config channel. When the channel cannot be found the
// store is rehydrated from the latest persisted snapshot instead.
func (h *DiscordEventsHandler) handleReadyEvent(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("📋 Discord session ready as %s", r.User.Username)

	h.mu.Lock()
	h.botUserID = r.User.ID
	h.mu.Unlock()

	ctx := context.Background()
	channelID := h.locateConfigChannel(r)
	if channelID == "" {
		log.Printf("⚠️ Could not find #%s channel - restoring whitelist config from snapshot", h.cfg.ConfigChannelName)
		if err := h.botConfig.RestoreFromSnapshot(ctx); err != nil {
			log.Printf("⚠️ Failed to restore whitelist config from snapshot: %v", err)
		}
		return
	}

	h.mu.Lock()
	h.configChannelID = channelID
	h.mu.Unlock()

	latest, err := h.session.ChannelMessages(channelID, 1, "", "", "")
	if err != nil {
		log.Printf("❌ Failed to read #%s channel: %v", h.cfg.ConfigChannelName, err)
		return
	}
	if len(latest) == 0 {
		log.Printf("📋 #%s is empty - starting with an empty whitelist config", h.cfg.ConfigChannelName)
		return
	}
	if err := h.botConfig.ProcessUpdate(ctx, latest[0].Content); err != nil {
		log.Printf("⚠️ Failed to load whitelist config from #%s: %v", h.cfg.ConfigChannelName, err)
	}
}

func (h *DiscordEventsHandler) locateConfigChannel(r *discordgo.Ready) string {
	for _, guild := range r.Guilds {
		guildChannels, err := h.session.GuildChannels(guild.ID)
		if err != nil {
			log.Printf("⚠️ Failed to list channels for guild %s: %v", guild.ID, err)
			continue
		}
		for _, channel := range guildChannels {
			if channel.Type == discordgo.ChannelTypeGuildText && channel.Name == h.cfg.ConfigChannelName {
				return channel.ID
			}
		}
	}
	return ""
}

func (h *DiscordEventsHandler) handleMessageCreatedEvent(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.mu.RLock()
	botUserID := h.botUserID
	configChannelID := h.configChannelID
	h.mu.RUnlock()

	if m.Author == nil || m.Author.ID == botUserID || m.Author.Bot {
		return
	}

	ctx := context.Background()
	if configChannelID != "" && m.ChannelID == configChannelID {
		log.Printf("📋 Whitelist config message received in #%s", h.cfg.ConfigChannelName)
		if err := h.botConfig.ProcessUpdate(ctx, m.Content); err != nil {
			log.Printf("⚠️ Failed to apply whitelist config update: %v", err)
		}
		return
	}

	name, args, ok := h.parseCommand(m.Content)
	if !ok {
		if m.GuildID == "" && h.dmChat != nil {
			execCtx := h.buildExecutionContext(s, m.Message)
			if err := h.dmChat.DirectMessage(ctx, execCtx, m.Content); err != nil {
				log.Printf("⚠️ Failed to answer DM from %s: %v", execCtx.Username, err)
			}
		}
		return
	}

	execCtx := h.buildExecutionContext(s, m.Message)
	log.Printf("📨 Command %s invoked by %s in channel %s", name, execCtx.Username, execCtx.ChannelID)
	h.registry.Dispatch(ctx, execCtx, name, args)
}

func (h *DiscordEventsHandler) handleMessageUpdatedEvent(s *discordgo.Session, m *discordgo.MessageUpdate) {
	h.mu.RLock()
	configChannelID := h.configChannelID
	h.mu.RUnlock()

	if configChannelID == "" || m.ChannelID != configChannelID {
		return
	}
	log.Printf("📋 Whitelist config message edited in #%s", h.cfg.ConfigChannelName)
	if err := h.botConfig.ProcessUpdate(context.Background(), m.Content); err != nil {
		log.Printf("⚠️ Failed to apply edited whitelist config: %v", err)
	}
}

func (h *DiscordEventsHandler) handleMessageDeletedEvent(s *discordgo.Session, m *discordgo.MessageDelete) {
	h.mu.RLock()
	configChannelID := h.configChannelID
	h.mu.RUnlock()

	if configChannelID == "" || m.ChannelID != configChannelID {
		return
	}
	log.Printf("📋 Whitelist config message deleted - using empty config")
	h.botConfig.Reset()
}

// parseCommand splits "<prefix><name> <args>" into its parts. Anything not
// starting with the prefix is ordinary chatter.
func (h *DiscordEventsHandler) parseCommand(content string) (name, args string, ok bool) {
	if !strings.HasPrefix(content, h.cfg.CommandPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(content, h.cfg.CommandPrefix)
	if rest == "" || strings.HasPrefix(rest, " ") {
		return "", "", false
	}
	parts := strings.SplitN(rest, " ", 2)
	name = parts[0]
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return name, args, true
}

func (h *DiscordEventsHandler) buildExecutionContext(
	s *discordgo.Session,
	m *discordgo.Message,
) models.ExecutionContext {
	execCtx := models.ExecutionContext{
		MessageID: m.ID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		IsDM:      m.GuildID == "",
	}
	if channel, err := s.State.Channel(m.ChannelID); err == nil {
		execCtx.ChannelName = channel.Name
	} else if channel, err := s.Channel(m.ChannelID); err == nil {
		execCtx.ChannelName = channel.Name
	}
	return execCtx
}
