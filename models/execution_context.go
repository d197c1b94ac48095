package models

// ExecutionContext identifies a single command invocation: who issued it,
// where, and whether that place is a private DM or a shared guild channel.
// It is created per message and discarded after the handler returns.
type ExecutionContext struct {
	MessageID   string
	UserID      string
	Username    string
	ChannelID   string
	ChannelName string
	GuildID     string
	IsDM        bool

	// Output is the reply surface resolved by the permission gate from the
	// command's declared policy. Handlers route replies through it instead
	// of re-deciding per call site.
	Output OutputSurface
}
