package messages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"henbot/clients"
	"henbot/models"
	usecasecore "henbot/usecases/core"
)

type staticHelp string

func (h staticHelp) HelpText() string { return string(h) }

func channelExecCtx() models.ExecutionContext {
	return models.ExecutionContext{
		MessageID: "msg_cmd",
		UserID:    "user_1",
		ChannelID: "chan_1",
		GuildID:   "guild_1",
		Output:    models.OutputSurfaceChannel,
	}
}

func newMessagesFixture() (*MessagesUseCase, *clients.MockChatClient) {
	chatClient := new(clients.MockChatClient)
	usecase := NewMessagesUseCase(chatClient, staticHelp("📖 Available commands:"), usecasecore.NewResponder(chatClient))
	return usecase, chatClient
}

func TestMessagesUseCase_Match(t *testing.T) {
	t.Run("reports the distance of the matched message", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd", Content: "!match deploy"},
			{ID: "m1", AuthorName: "bob", Content: "lunch?"},
			{ID: "m2", AuthorName: "carol", Content: "deploy is done"},
		}, nil)
		chatClient.On("SendMessage", "chan_1", "🔎 Found message 2 messages ago: `deploy is done` (by carol)").
			Return("msg_2", nil)

		err := usecase.Match(context.Background(), channelExecCtx(), "deploy")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("no match yields a notice", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd", Content: "!match deploy"},
			{ID: "m1", AuthorName: "bob", Content: "lunch?"},
		}, nil)
		chatClient.On("SendMessage", "chan_1", "❌ No messages found containing the specified text.").
			Return("msg_2", nil)

		err := usecase.Match(context.Background(), channelExecCtx(), "deploy")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})
}

func TestMessagesUseCase_Clear(t *testing.T) {
	t.Run("deletes the requested count plus the command message", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("GetChannelMessages", "chan_1", 3, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd"}, {ID: "m1"}, {ID: "m2"},
		}, nil)
		chatClient.On("BulkDeleteMessages", "chan_1", []string{"msg_cmd", "m1", "m2"}).Return(nil)
		chatClient.On("SendMessage", "chan_1", "✅ Cleared 2 messages.").Return("msg_2", nil)

		err := usecase.Clear(context.Background(), channelExecCtx(), "2")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("never requests more than 100 deletions including the invocation", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd"},
		}, nil)
		chatClient.On("BulkDeleteMessages", "chan_1", []string{"msg_cmd"}).Return(nil)
		chatClient.On("SendMessage", "chan_1", "✅ Cleared 0 messages.").Return("msg_2", nil)

		err := usecase.Clear(context.Background(), channelExecCtx(), "5000")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("clearing 100 stays within the bulk endpoint's ID limit", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		history := make([]clients.ChatMessage, 100)
		ids := make([]string, 100)
		for i := range history {
			history[i] = clients.ChatMessage{ID: fmt.Sprintf("m%d", i)}
			ids[i] = history[i].ID
		}
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return(history, nil)
		chatClient.On("BulkDeleteMessages", "chan_1", ids).Return(nil)
		chatClient.On("SendMessage", "chan_1", "✅ Cleared 99 messages.").Return("msg_2", nil)

		err := usecase.Clear(context.Background(), channelExecCtx(), "100")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("non-numeric count gets a usage hint", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("SendMessage", "chan_1", "⚠️ Usage: `!clear [count]`").Return("msg_2", nil)

		err := usecase.Clear(context.Background(), channelExecCtx(), "lots")

		require.NoError(t, err)
		chatClient.AssertNotCalled(t, "BulkDeleteMessages", mock.Anything, mock.Anything)
	})
}

func TestMessagesUseCase_ClearAfter(t *testing.T) {
	t.Run("deletes everything newer than the match", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd", Content: "!clearafter checkpoint"},
			{ID: "m1", Content: "noise"},
			{ID: "m2", Content: "more noise"},
			{ID: "m3", Content: "checkpoint reached"},
			{ID: "m4", Content: "older"},
		}, nil)
		chatClient.On("BulkDeleteMessages", "chan_1", []string{"msg_cmd", "m1", "m2"}).Return(nil)
		chatClient.On("SendMessage", "chan_1", "✅ Cleared 3 messages after `checkpoint`.").Return("msg_2", nil)

		err := usecase.ClearAfter(context.Background(), channelExecCtx(), "checkpoint")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("no match deletes nothing", func(t *testing.T) {
		usecase, chatClient := newMessagesFixture()
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd", Content: "!clearafter checkpoint"},
			{ID: "m1", Content: "noise"},
		}, nil)
		chatClient.On("SendMessage", "chan_1", "❌ No messages found containing the specified text.").
			Return("msg_2", nil)

		err := usecase.ClearAfter(context.Background(), channelExecCtx(), "checkpoint")

		require.NoError(t, err)
		chatClient.AssertNotCalled(t, "BulkDeleteMessages", mock.Anything, mock.Anything)
	})
}

func TestMessagesUseCase_Commands(t *testing.T) {
	usecase, chatClient := newMessagesFixture()
	chatClient.On("SendMessage", "chan_1", "📖 Available commands:").Return("msg_2", nil)

	err := usecase.Commands(context.Background(), channelExecCtx(), "")

	require.NoError(t, err)
	chatClient.AssertExpectations(t)
}
