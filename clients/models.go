package clients

import (
	"errors"
	"time"
)

// ErrForbidden signals that the chat platform refused an operation (missing
// read permission, closed DMs). Handlers recover from it locally by skipping
// the target or notifying the user, never by crashing.
var ErrForbidden = errors.New("forbidden by chat platform")

// ErrRateLimited signals a rate-limit response from the LLM collaborator.
// The llm service retries these with backoff.
var ErrRateLimited = errors.New("rate limited")

// ChatMessage is a single message read from a channel's history.
type ChatMessage struct {
	ID         string
	AuthorID   string
	AuthorName string
	Content    string
	IsBot      bool
	Timestamp  time.Time
}

// ChatChannel is a guild text channel.
type ChatChannel struct {
	ID   string
	Name string
}

// ChatGuild is a community space the bot is a member of.
type ChatGuild struct {
	ID   string
	Name string
}

// ChatUser identifies a platform user.
type ChatUser struct {
	ID       string
	Username string
}

// PromptRole tags a prompt message for the LLM collaborator.
type PromptRole string

const (
	PromptRoleUser      PromptRole = "user"
	PromptRoleAssistant PromptRole = "assistant"
)

// PromptMessage is one role-tagged message in a completion request.
type PromptMessage struct {
	Role    PromptRole
	Content string
}

// CompletionRequest is a chat-completion call to the LLM collaborator.
type CompletionRequest struct {
	System    string
	Messages  []PromptMessage
	Model     string
	MaxTokens int64
}

// CompletionResult carries the generated text plus token usage for cost
// tracking.
type CompletionResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Model        string
}
