package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"henbot/clients"
)

type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) CreateCompletion(
	ctx context.Context,
	req clients.CompletionRequest,
) (*clients.CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.CompletionResult), args.Error(1)
}
