package permissions

import (
	"context"

	"github.com/stretchr/testify/mock"

	"henbot/models"
)

type MockPermissionsService struct {
	mock.Mock
}

func (m *MockPermissionsService) Authorize(
	ctx context.Context,
	policy models.CommandPolicy,
	execCtx models.ExecutionContext,
) (Decision, error) {
	args := m.Called(ctx, policy, execCtx)
	return args.Get(0).(Decision), args.Error(1)
}
