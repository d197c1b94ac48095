package botconfig

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockBotConfigService struct {
	mock.Mock
}

func (m *MockBotConfigService) ProcessUpdate(ctx context.Context, content string) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

func (m *MockBotConfigService) Reset() {
	m.Called()
}

func (m *MockBotConfigService) GetCommandWhitelist(commandName string) []string {
	args := m.Called(commandName)
	if args.Get(0) == nil {
		return []string{}
	}
	return args.Get(0).([]string)
}

func (m *MockBotConfigService) Version() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockBotConfigService) RestoreFromSnapshot(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
