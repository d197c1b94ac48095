package clients

import "context"

// ChatClient is the thin wrapper around the chat platform SDK. All operations
// are fallible I/O; a "forbidden" condition surfaces as ErrForbidden.
type ChatClient interface {
	GetBotUser() (*ChatUser, error)
	SendMessage(channelID, content string) (messageID string, err error)
	SendDirectMessage(userID, content string) error
	EditMessage(channelID, messageID, content string) error
	DeleteMessage(channelID, messageID string) error
	BulkDeleteMessages(channelID string, messageIDs []string) error
	// GetChannelMessages returns up to limit messages from the channel,
	// newest first. A zero afterTime means no time bound.
	GetChannelMessages(channelID string, limit int, afterTime int64) ([]ChatMessage, error)
	GetGuilds() ([]ChatGuild, error)
	GetGuildTextChannels(guildID string) ([]ChatChannel, error)
	// GetUserRoleNames returns the names of the roles the user holds in the
	// guild. Meaningless outside a guild context.
	GetUserRoleNames(guildID, userID string) ([]string, error)
}

// LLMClient is the thin wrapper around the LLM SDK. Rate-limit responses
// surface as errors wrapping ErrRateLimited.
type LLMClient interface {
	CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// ImageClient wraps the image-generation collaborator.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (imageURL string, err error)
}
