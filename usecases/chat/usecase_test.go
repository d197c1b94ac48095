package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"henbot/clients"
	"henbot/models"
	"henbot/services/llm"
	usecasecore "henbot/usecases/core"
)

func channelExecCtx() models.ExecutionContext {
	return models.ExecutionContext{
		MessageID:   "msg_cmd",
		UserID:      "user_1",
		Username:    "alice",
		ChannelID:   "chan_1",
		ChannelName: "random",
		GuildID:     "guild_1",
		Output:      models.OutputSurfaceChannel,
	}
}

func newChatFixture() (*ChatUseCase, *clients.MockChatClient, *llm.MockCompletionService) {
	chatClient := new(clients.MockChatClient)
	completions := new(llm.MockCompletionService)
	usecase := NewChatUseCase(chatClient, completions, usecasecore.NewResponder(chatClient))
	return usecase, chatClient, completions
}

func TestChatUseCase_Chat(t *testing.T) {
	t.Run("replies with the completion text", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		completions.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(req clients.CompletionRequest) bool {
			return len(req.Messages) == 1 && req.Messages[0].Content == "how are you?"
		})).Return(&clients.CompletionResult{Text: "doing great"}, nil)
		chatClient.On("SendMessage", "chan_1", "doing great").Return("msg_2", nil)

		err := usecase.Chat(context.Background(), channelExecCtx(), "how are you?")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("empty message gets a usage hint without an LLM call", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("SendMessage", "chan_1", mock.Anything).Return("msg_2", nil)

		err := usecase.Chat(context.Background(), channelExecCtx(), "   ")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
	})
}

func TestChatUseCase_Egg(t *testing.T) {
	t.Run("without argument eggs-plains the previous message", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("GetChannelMessages", "chan_1", 5, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd", Content: "!egg"},
			{ID: "msg_prev", Content: "I love breakfast"},
		}, nil)
		chatClient.On("SendMessage", "chan_1", "🥚 Warming up the nest...").Return("msg_wait", nil)
		completions.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(req clients.CompletionRequest) bool {
			return req.System != "" && req.Messages[0].Content == "I love breakfast"
		})).Return(&clients.CompletionResult{Text: "egg-cellent choice"}, nil)
		chatClient.On("DeleteMessage", "chan_1", "msg_wait").Return(nil)
		chatClient.On("SendMessage", "chan_1", "egg-cellent choice").Return("msg_2", nil)

		err := usecase.Egg(context.Background(), channelExecCtx(), "")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("no previous message yields a notice", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("GetChannelMessages", "chan_1", 5, int64(0)).Return([]clients.ChatMessage{
			{ID: "msg_cmd", Content: "!egg"},
		}, nil)
		chatClient.On("SendMessage", "chan_1", "🥚 Couldn't find a previous message to egg-splain.").
			Return("msg_2", nil)

		err := usecase.Egg(context.Background(), channelExecCtx(), "")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
	})
}

func TestChatUseCase_Talkto(t *testing.T) {
	t.Run("simulates user from their recent messages", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("SendMessage", "chan_1", mock.MatchedBy(func(content string) bool {
			return content == "⏳ Please wait, generating a response for bob..."
		})).Return("msg_wait", nil)
		chatClient.On("GetGuildTextChannels", "guild_1").Return([]clients.ChatChannel{
			{ID: "chan_1", Name: "random"},
			{ID: "chan_2", Name: "ops"},
		}, nil)
		chatClient.On("GetChannelMessages", "chan_1", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "m1", AuthorID: "user_2", AuthorName: "bob", Content: "I like trains"},
			{ID: "m2", AuthorID: "user_1", AuthorName: "alice", Content: "same"},
		}, nil)
		chatClient.On("GetChannelMessages", "chan_2", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "m3", AuthorID: "user_2", AuthorName: "bob", Content: "deploy on fridays"},
		}, nil)
		completions.On("CreateCompletion", mock.Anything, mock.Anything).
			Return(&clients.CompletionResult{Text: "trains are great"}, nil)
		chatClient.On("EditMessage", "chan_1", "msg_wait", "**bob might say:** trains are great").Return(nil)

		err := usecase.Talkto(context.Background(), channelExecCtx(), "@bob what do you think about AI?")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("unreadable channels are skipped", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("SendMessage", "chan_1", mock.Anything).Return("msg_wait", nil)
		chatClient.On("GetGuildTextChannels", "guild_1").Return([]clients.ChatChannel{
			{ID: "chan_secret", Name: "secret"},
			{ID: "chan_2", Name: "ops"},
		}, nil)
		chatClient.On("GetChannelMessages", "chan_secret", 100, int64(0)).
			Return(nil, clients.ErrForbidden)
		chatClient.On("GetChannelMessages", "chan_2", 100, int64(0)).Return([]clients.ChatMessage{
			{ID: "m3", AuthorID: "user_2", AuthorName: "bob", Content: "deploy on fridays"},
		}, nil)
		completions.On("CreateCompletion", mock.Anything, mock.Anything).
			Return(&clients.CompletionResult{Text: "ship it"}, nil)
		chatClient.On("EditMessage", "chan_1", "msg_wait", "**bob might say:** ship it").Return(nil)

		err := usecase.Talkto(context.Background(), channelExecCtx(), "@bob thoughts?")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("missing prompt yields usage hint", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("SendMessage", "chan_1", "⚠️ Usage: `!talkto @User <message>`").Return("msg_2", nil)

		err := usecase.Talkto(context.Background(), channelExecCtx(), "@bob")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
	})

	t.Run("no messages found edits the waiting message", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("SendMessage", "chan_1", mock.Anything).Return("msg_wait", nil)
		chatClient.On("GetGuildTextChannels", "guild_1").Return([]clients.ChatChannel{}, nil)
		chatClient.On("EditMessage", "chan_1", "msg_wait", "⚠️ No messages found for ghost.").Return(nil)

		err := usecase.Talkto(context.Background(), channelExecCtx(), "@ghost hello?")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
		chatClient.AssertExpectations(t)
	})
}

func TestChatUseCase_Dream(t *testing.T) {
	usecase, chatClient, completions := newChatFixture()
	completions.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(req clients.CompletionRequest) bool {
		return req.System == "You are an AI that analyzes and interprets dreams."
	})).Return(&clients.CompletionResult{Text: "flying means freedom"}, nil)
	chatClient.On("SendMessage", "chan_1", "💭 **Dream Interpretation:** flying means freedom").
		Return("msg_2", nil)

	err := usecase.Dream(context.Background(), channelExecCtx(), "I was flying over the sea")

	require.NoError(t, err)
	chatClient.AssertExpectations(t)
}

func dmExecCtx() models.ExecutionContext {
	return models.ExecutionContext{
		MessageID: "msg_dm",
		UserID:    "user_1",
		Username:  "alice",
		ChannelID: "dm_chan",
		IsDM:      true,
	}
}

func TestChatUseCase_DirectMessage(t *testing.T) {
	t.Run("vetted user in a mutual guild gets a completion reply", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("GetGuilds").Return([]clients.ChatGuild{{ID: "guild_1", Name: "henhouse"}}, nil)
		chatClient.On("GetUserRoleNames", "guild_1", "user_1").Return([]string{"Vetted"}, nil)
		completions.On("CreateCompletion", mock.Anything, mock.MatchedBy(func(req clients.CompletionRequest) bool {
			return len(req.Messages) == 1 && req.Messages[0].Content == "good morning"
		})).Return(&clients.CompletionResult{Text: "good morning to you"}, nil)
		chatClient.On("SendMessage", "dm_chan", "good morning to you").Return("msg_2", nil)

		err := usecase.DirectMessage(context.Background(), dmExecCtx(), "good morning")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("no mutual guild gets a warning without an LLM call", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("GetGuilds").Return([]clients.ChatGuild{{ID: "guild_1", Name: "henhouse"}}, nil)
		chatClient.On("GetUserRoleNames", "guild_1", "user_1").
			Return(nil, errors.New("unknown member"))
		chatClient.On("SendMessage", "dm_chan", "⚠️ I can only chat with users who share a server with me.").
			Return("msg_2", nil)

		err := usecase.DirectMessage(context.Background(), dmExecCtx(), "hello?")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
		chatClient.AssertExpectations(t)
	})

	t.Run("mutual guild without the vetted role gets a warning", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("GetGuilds").Return([]clients.ChatGuild{{ID: "guild_1", Name: "henhouse"}}, nil)
		chatClient.On("GetUserRoleNames", "guild_1", "user_1").Return([]string{"Peoples"}, nil)
		chatClient.On("SendMessage", "dm_chan", "⚠️ You must have the 'Vetted' role in a mutual server to chat with me.").
			Return("msg_2", nil)

		err := usecase.DirectMessage(context.Background(), dmExecCtx(), "hello?")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
		chatClient.AssertExpectations(t)
	})

	t.Run("completion failure apologizes and surfaces the error", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()
		chatClient.On("GetGuilds").Return([]clients.ChatGuild{{ID: "guild_1", Name: "henhouse"}}, nil)
		chatClient.On("GetUserRoleNames", "guild_1", "user_1").Return([]string{"Vetted"}, nil)
		completions.On("CreateCompletion", mock.Anything, mock.Anything).
			Return(nil, errors.New("boom"))
		chatClient.On("SendMessage", "dm_chan", "⚠️ Sorry, something went wrong while processing your message.").
			Return("msg_2", nil)

		err := usecase.DirectMessage(context.Background(), dmExecCtx(), "hello?")

		require.Error(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("blank content is ignored", func(t *testing.T) {
		usecase, chatClient, completions := newChatFixture()

		err := usecase.DirectMessage(context.Background(), dmExecCtx(), "   ")

		require.NoError(t, err)
		completions.AssertNotCalled(t, "CreateCompletion", mock.Anything, mock.Anything)
		chatClient.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
	})
}
