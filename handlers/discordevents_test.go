package handlers

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"henbot/config"
	"henbot/services/botconfig"
)

func TestDiscordEventsHandler_ParseCommand(t *testing.T) {
	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)

	handler := NewDiscordEventsHandler(session, config.DiscordConfig{
		CommandPrefix: "!",
	}, nil, botconfig.NewBotConfigService(nil), nil)

	tests := []struct {
		name     string
		content  string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{name: "command with args", content: "!chat how are you?", wantName: "chat", wantArgs: "how are you?", wantOK: true},
		{name: "command without args", content: "!bugoff", wantName: "bugoff", wantOK: true},
		{name: "trailing whitespace trimmed", content: "!match deploy  ", wantName: "match", wantArgs: "deploy", wantOK: true},
		{name: "plain chatter ignored", content: "hello there", wantOK: false},
		{name: "bare prefix ignored", content: "!", wantOK: false},
		{name: "prefix followed by space ignored", content: "! chat hi", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, ok := handler.parseCommand(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, name)
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}
