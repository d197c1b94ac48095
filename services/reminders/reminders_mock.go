package reminders

import (
	"github.com/stretchr/testify/mock"

	"henbot/models"
)

type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) Start(execCtx models.ExecutionContext, reminder models.Reminder) error {
	args := m.Called(execCtx, reminder)
	return args.Error(0)
}

func (m *MockReminderService) Stop(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockReminderService) Phase(userID string) models.ReminderPhase {
	args := m.Called(userID)
	return args.Get(0).(models.ReminderPhase)
}

func (m *MockReminderService) StopAll() {
	m.Called()
}
