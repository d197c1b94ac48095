package clients

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockChatClient is a mock implementation of ChatClient for testing
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) GetBotUser() (*ChatUser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChatUser), args.Error(1)
}

func (m *MockChatClient) SendMessage(channelID, content string) (string, error) {
	args := m.Called(channelID, content)
	return args.String(0), args.Error(1)
}

func (m *MockChatClient) SendDirectMessage(userID, content string) error {
	args := m.Called(userID, content)
	return args.Error(0)
}

func (m *MockChatClient) EditMessage(channelID, messageID, content string) error {
	args := m.Called(channelID, messageID, content)
	return args.Error(0)
}

func (m *MockChatClient) DeleteMessage(channelID, messageID string) error {
	args := m.Called(channelID, messageID)
	return args.Error(0)
}

func (m *MockChatClient) BulkDeleteMessages(channelID string, messageIDs []string) error {
	args := m.Called(channelID, messageIDs)
	return args.Error(0)
}

func (m *MockChatClient) GetChannelMessages(
	channelID string,
	limit int,
	afterTime int64,
) ([]ChatMessage, error) {
	args := m.Called(channelID, limit, afterTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChatMessage), args.Error(1)
}

func (m *MockChatClient) GetGuilds() ([]ChatGuild, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChatGuild), args.Error(1)
}

func (m *MockChatClient) GetGuildTextChannels(guildID string) ([]ChatChannel, error) {
	args := m.Called(guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChatChannel), args.Error(1)
}

func (m *MockChatClient) GetUserRoleNames(guildID, userID string) ([]string, error) {
	args := m.Called(guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockLLMClient is a mock implementation of LLMClient for testing
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) CreateCompletion(
	ctx context.Context,
	req CompletionRequest,
) (*CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CompletionResult), args.Error(1)
}

// MockImageClient is a mock implementation of ImageClient for testing
type MockImageClient struct {
	mock.Mock
}

func (m *MockImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
