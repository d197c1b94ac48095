package testutils

import (
	"fmt"

	"github.com/google/uuid"

	"henbot/models"
)

// NewExecutionContext builds a guild execution context with unique IDs so
// tests never collide on user or message identity.
func NewExecutionContext() models.ExecutionContext {
	return models.ExecutionContext{
		MessageID:   "msg_" + uuid.New().String(),
		UserID:      "user_" + uuid.New().String(),
		Username:    fmt.Sprintf("user-%s", uuid.New().String()[:8]),
		ChannelID:   "chan_" + uuid.New().String(),
		ChannelName: "random",
		GuildID:     "guild_" + uuid.New().String(),
		Output:      models.OutputSurfaceChannel,
	}
}

// NewDMExecutionContext builds an execution context for a direct-message
// invocation.
func NewDMExecutionContext() models.ExecutionContext {
	execCtx := NewExecutionContext()
	execCtx.GuildID = ""
	execCtx.ChannelName = ""
	execCtx.IsDM = true
	return execCtx
}
