package commands

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"henbot/clients"
	"henbot/models"
	"henbot/services/permissions"
)

const genericErrorReply = "❌ Something went wrong while running that command. Please try again later."

// PermissionGate authorizes a command invocation against its declared policy.
type PermissionGate interface {
	Authorize(ctx context.Context, policy models.CommandPolicy, execCtx models.ExecutionContext) (permissions.Decision, error)
}

// HandlerWrapper decorates command handlers, e.g. with panic recovery and
// error alerting.
type HandlerWrapper interface {
	WrapCommandHandler(commandName string, handler models.HandlerFunc) models.HandlerFunc
}

// Registry holds every registered command and dispatches invocations through
// the permission gate. Registration happens once at startup; the map is
// read-only afterwards, so Dispatch needs no locking.
type Registry struct {
	chatClient clients.ChatClient
	gate       PermissionGate
	wrapper    HandlerWrapper
	commands   map[string]models.Command
}

func NewRegistry(chatClient clients.ChatClient, gate PermissionGate, wrapper HandlerWrapper) *Registry {
	return &Registry{
		chatClient: chatClient,
		gate:       gate,
		wrapper:    wrapper,
		commands:   make(map[string]models.Command),
	}
}

// Register adds a command to the registry. A duplicate name is a programming
// error, so it panics rather than returning an error.
func (r *Registry) Register(cmd models.Command) {
	if cmd.Name == "" {
		panic("commands: cannot register command with empty name")
	}
	if cmd.Handler == nil {
		panic(fmt.Sprintf("commands: command %q has no handler", cmd.Name))
	}
	if _, exists := r.commands[cmd.Name]; exists {
		panic(fmt.Sprintf("commands: duplicate command name %q", cmd.Name))
	}
	if r.wrapper != nil {
		cmd.Handler = r.wrapper.WrapCommandHandler(cmd.Name, cmd.Handler)
	}
	r.commands[cmd.Name] = cmd
}

// All returns the registered commands sorted by name.
func (r *Registry) All() []models.Command {
	cmds := make([]models.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// HelpText renders a one-line-per-command summary of everything registered.
func (r *Registry) HelpText() string {
	var sb strings.Builder
	sb.WriteString("📖 Available commands:\n")
	for _, cmd := range r.All() {
		sb.WriteString(fmt.Sprintf("`%s` — %s\n", cmd.Name, cmd.Help))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Dispatch routes a parsed invocation to its command. Unknown names are
// ignored silently so the bot does not react to prefixed chatter that is not
// meant for it. The permission gate runs before the handler; a denied
// invocation never reaches the handler.
func (r *Registry) Dispatch(ctx context.Context, execCtx models.ExecutionContext, name, args string) {
	cmd, ok := r.commands[name]
	if !ok {
		return
	}

	decision, err := r.gate.Authorize(ctx, cmd.Policy, execCtx)
	if err != nil {
		log.Printf("❌ Failed to authorize command %s for user %s: %v", name, execCtx.UserID, err)
		if _, sendErr := r.chatClient.SendMessage(execCtx.ChannelID, genericErrorReply); sendErr != nil {
			log.Printf("❌ Failed to send authorization error reply: %v", sendErr)
		}
		return
	}
	if !decision.Allowed {
		r.deliverDenial(execCtx, decision)
		return
	}

	execCtx.Output = decision.Output
	if err := cmd.Handler(ctx, execCtx, args); err != nil {
		log.Printf("❌ Command %s failed for user %s: %v", name, execCtx.UserID, err)
		r.sendReply(execCtx, genericErrorReply)
	}
}

// deliverDenial explains a refused invocation. When the decision asks for a
// DM notice the channel is only used as a fallback if the DM cannot be
// delivered.
func (r *Registry) deliverDenial(execCtx models.ExecutionContext, decision permissions.Decision) {
	if decision.DenialMessage == "" {
		return
	}
	if decision.NotifyViaDM {
		err := r.chatClient.SendDirectMessage(execCtx.UserID, decision.DenialMessage)
		if err == nil {
			return
		}
		log.Printf("⚠️ Failed to DM denial notice to user %s: %v", execCtx.UserID, err)
	}
	if _, err := r.chatClient.SendMessage(execCtx.ChannelID, decision.DenialMessage); err != nil {
		log.Printf("❌ Failed to send denial notice in channel %s: %v", execCtx.ChannelID, err)
	}
}

func (r *Registry) sendReply(execCtx models.ExecutionContext, content string) {
	if execCtx.Output == models.OutputSurfaceDM && !execCtx.IsDM {
		if err := r.chatClient.SendDirectMessage(execCtx.UserID, content); err == nil {
			return
		}
	}
	if _, err := r.chatClient.SendMessage(execCtx.ChannelID, content); err != nil {
		log.Printf("❌ Failed to send reply in channel %s: %v", execCtx.ChannelID, err)
	}
}
