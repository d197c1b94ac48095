package permissions

import (
	"context"
	"fmt"
	"log"
	"slices"

	"henbot/clients"
	"henbot/models"
)

// Decision is the outcome of the permission gate for one invocation.
// A denial is terminal and user-visible, never an error.
type Decision struct {
	Allowed bool
	// DenialMessage is the user-visible refusal. Empty when allowed.
	DenialMessage string
	// NotifyViaDM asks the dispatcher to deliver the denial privately first,
	// falling back to the channel, so shared channels stay uncluttered.
	NotifyViaDM bool
	// Output is the resolved reply surface for the handler, taken from the
	// command policy so handlers never re-decide routing ad hoc.
	Output models.OutputSurface
}

// PermissionsService evaluates every command policy through one gate, in a
// fixed order: forbidden channel, execution mode, then roles.
type PermissionsService struct {
	chatClient        clients.ChatClient
	forbiddenChannels []string
}

func NewPermissionsService(chatClient clients.ChatClient, forbiddenChannels []string) *PermissionsService {
	return &PermissionsService{
		chatClient:        chatClient,
		forbiddenChannels: forbiddenChannels,
	}
}

func (s *PermissionsService) Authorize(
	ctx context.Context,
	policy models.CommandPolicy,
	execCtx models.ExecutionContext,
) (Decision, error) {
	output := policy.Output
	if output == "" {
		output = models.OutputSurfaceChannel
	}

	// DMs are never forbidden channels.
	if !execCtx.IsDM && slices.Contains(s.forbiddenChannels, execCtx.ChannelName) {
		log.Printf("🔒 Command refused in forbidden channel %s for user %s", execCtx.ChannelName, execCtx.UserID)
		return Decision{
			DenialMessage: "⚠️ This bot cannot respond in this channel.",
			NotifyViaDM:   true,
			Output:        output,
		}, nil
	}

	switch policy.Mode {
	case models.ExecutionModeServer:
		if execCtx.IsDM {
			return Decision{
				DenialMessage: "⚠️ This command can only be used in a server channel.",
				Output:        output,
			}, nil
		}
	case models.ExecutionModeDM:
		if !execCtx.IsDM {
			return Decision{
				DenialMessage: "⚠️ This command can only be used in DMs with the bot.",
				Output:        output,
			}, nil
		}
	}

	// Role requirements only make sense inside a guild. A DM invocation that
	// got this far has a mode permitting DMs, where there is no guild to
	// check against, so the role gate is bypassed.
	if len(policy.RequiredRoles) > 0 && !execCtx.IsDM {
		userRoles, err := s.chatClient.GetUserRoleNames(execCtx.GuildID, execCtx.UserID)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to resolve user roles: %w", err)
		}

		for _, required := range policy.RequiredRoles {
			if !slices.Contains(userRoles, required) {
				log.Printf("🔒 User %s missing role %q for command", execCtx.UserID, required)
				return Decision{
					DenialMessage: fmt.Sprintf("⚠️ You need the %q role to use this command.", required),
					Output:        output,
				}, nil
			}
		}
	}

	return Decision{Allowed: true, Output: output}, nil
}
