package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"henbot/clients"
)

// DiscordClient implements the clients.ChatClient interface on top of a
// connected discordgo session.
type DiscordClient struct {
	session *discordgo.Session
}

func NewDiscordClient(session *discordgo.Session) clients.ChatClient {
	return &DiscordClient{session: session}
}

// wrapError maps Discord permission refusals to the ErrForbidden sentinel so
// callers can skip the target instead of failing the whole operation.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil &&
		restErr.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", op, clients.ErrForbidden)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *DiscordClient) GetBotUser() (*clients.ChatUser, error) {
	user, err := c.session.User("@me")
	if err != nil {
		return nil, wrapError("failed to fetch bot user", err)
	}
	return &clients.ChatUser{ID: user.ID, Username: user.Username}, nil
}

func (c *DiscordClient) SendMessage(channelID, content string) (string, error) {
	msg, err := c.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", wrapError("failed to send message", err)
	}
	return msg.ID, nil
}

func (c *DiscordClient) SendDirectMessage(userID, content string) error {
	dmChannel, err := c.session.UserChannelCreate(userID)
	if err != nil {
		return wrapError("failed to create DM channel", err)
	}
	if _, err := c.session.ChannelMessageSend(dmChannel.ID, content); err != nil {
		return wrapError("failed to send DM", err)
	}
	return nil
}

func (c *DiscordClient) EditMessage(channelID, messageID, content string) error {
	if _, err := c.session.ChannelMessageEdit(channelID, messageID, content); err != nil {
		return wrapError("failed to edit message", err)
	}
	return nil
}

func (c *DiscordClient) DeleteMessage(channelID, messageID string) error {
	if err := c.session.ChannelMessageDelete(channelID, messageID); err != nil {
		return wrapError("failed to delete message", err)
	}
	return nil
}

func (c *DiscordClient) BulkDeleteMessages(channelID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.session.ChannelMessagesBulkDelete(channelID, messageIDs); err != nil {
		return wrapError("failed to bulk delete messages", err)
	}
	return nil
}

func (c *DiscordClient) GetChannelMessages(
	channelID string,
	limit int,
	afterTime int64,
) ([]clients.ChatMessage, error) {
	var collected []clients.ChatMessage
	beforeID := ""
	cutoff := time.Unix(afterTime, 0)

	for len(collected) < limit {
		batchSize := min(limit-len(collected), 100)
		batch, err := c.session.ChannelMessages(channelID, batchSize, beforeID, "", "")
		if err != nil {
			return nil, wrapError("failed to fetch channel messages", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, msg := range batch {
			if afterTime > 0 && msg.Timestamp.Before(cutoff) {
				return collected, nil
			}
			collected = append(collected, mapMessage(msg))
		}
		beforeID = batch[len(batch)-1].ID
	}
	return collected, nil
}

func (c *DiscordClient) GetGuilds() ([]clients.ChatGuild, error) {
	userGuilds, err := c.session.UserGuilds(100, "", "", false)
	if err != nil {
		return nil, wrapError("failed to fetch guilds", err)
	}

	guilds := make([]clients.ChatGuild, 0, len(userGuilds))
	for _, guild := range userGuilds {
		guilds = append(guilds, clients.ChatGuild{ID: guild.ID, Name: guild.Name})
	}
	return guilds, nil
}

func (c *DiscordClient) GetGuildTextChannels(guildID string) ([]clients.ChatChannel, error) {
	guildChannels, err := c.session.GuildChannels(guildID)
	if err != nil {
		return nil, wrapError("failed to fetch guild channels", err)
	}

	var textChannels []clients.ChatChannel
	for _, channel := range guildChannels {
		if channel.Type == discordgo.ChannelTypeGuildText {
			textChannels = append(textChannels, clients.ChatChannel{
				ID:   channel.ID,
				Name: channel.Name,
			})
		}
	}
	return textChannels, nil
}

func (c *DiscordClient) GetUserRoleNames(guildID, userID string) ([]string, error) {
	member, err := c.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, wrapError("failed to fetch guild member", err)
	}

	guildRoles, err := c.session.GuildRoles(guildID)
	if err != nil {
		return nil, wrapError("failed to fetch guild roles", err)
	}

	roleNamesByID := make(map[string]string, len(guildRoles))
	for _, role := range guildRoles {
		roleNamesByID[role.ID] = role.Name
	}

	var roleNames []string
	for _, roleID := range member.Roles {
		if name, ok := roleNamesByID[roleID]; ok {
			roleNames = append(roleNames, name)
		}
	}
	return roleNames, nil
}

func mapMessage(msg *discordgo.Message) clients.ChatMessage {
	return clients.ChatMessage{
		ID:         msg.ID,
		AuthorID:   msg.Author.ID,
		AuthorName: msg.Author.Username,
		Content:    msg.Content,
		IsBot:      msg.Author.Bot,
		Timestamp:  msg.Timestamp,
	}
}
