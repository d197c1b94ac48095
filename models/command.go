package models

import "context"

// ExecutionMode declares where a command may be invoked from.
type ExecutionMode string

const (
	ExecutionModeServer ExecutionMode = "server"
	ExecutionModeDM     ExecutionMode = "dm"
	ExecutionModeBoth   ExecutionMode = "both"
)

// OutputSurface declares where a command's reply is routed.
type OutputSurface string

const (
	OutputSurfaceChannel OutputSurface = "channel"
	OutputSurfaceDM      OutputSurface = "dm"
)

// CommandPolicy is the declarative permission policy attached to a command
// at registration time. It is evaluated by a single gate before the handler
// body runs, so check ordering can never vary between commands.
type CommandPolicy struct {
	RequiredRoles []string
	Mode          ExecutionMode
	Output        OutputSurface
}

// HandlerFunc is the body of a command. It runs only after the permission
// gate allowed the invocation.
type HandlerFunc func(ctx context.Context, execCtx ExecutionContext, args string) error

// Command is a named, invocable unit. Commands are registered once at startup
// and are immutable for the process lifetime.
type Command struct {
	Name    string
	Help    string
	Policy  CommandPolicy
	Handler HandlerFunc
}
