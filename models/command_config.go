package models

import "time"

// CommandChannelConfig holds the per-command channel policy loaded from the
// configuration blob.
type CommandChannelConfig struct {
	ProcessingWhitelist []string `json:"processing_whitelist"`
}

// CommandConfig maps a command name to its channel configuration. The whole
// map is replaced on every configuration update, never merged.
type CommandConfig map[string]CommandChannelConfig

// WhitelistSnapshot is a persisted, versioned copy of an accepted
// configuration blob. Snapshots allow the bot to rehydrate its whitelists
// without depending on the chat platform's message history.
type WhitelistSnapshot struct {
	ID        string    `db:"id"`
	Version   int64     `db:"version"`
	RawJSON   string    `db:"raw_json"`
	CreatedAt time.Time `db:"created_at"`
}
