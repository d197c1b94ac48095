package tz

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"henbot/clients"
	"henbot/models"
	usecasecore "henbot/usecases/core"
)

type fakeZoneStore struct {
	zones  map[string]string
	setErr error
}

func (s *fakeZoneStore) Set(userID, zoneName string) error {
	if s.setErr != nil {
		return s.setErr
	}
	if s.zones == nil {
		s.zones = make(map[string]string)
	}
	s.zones[userID] = zoneName
	return nil
}

func (s *fakeZoneStore) All() map[string]string { return s.zones }

func dmOutputExecCtx() models.ExecutionContext {
	return models.ExecutionContext{
		MessageID: "msg_cmd",
		UserID:    "user_1",
		Username:  "alice",
		ChannelID: "chan_1",
		GuildID:   "guild_1",
		Output:    models.OutputSurfaceDM,
	}
}

func TestTimezoneUseCase_SetTimezone(t *testing.T) {
	t.Run("valid zone confirms via DM", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		store := &fakeZoneStore{}
		usecase := NewTimezoneUseCase(store, usecasecore.NewResponder(chatClient))
		chatClient.On("SendDirectMessage", "user_1", "✅ Your time zone has been set to **America/New_York**.").
			Return(nil)

		err := usecase.SetTimezone(context.Background(), dmOutputExecCtx(), "America/New_York")

		require.NoError(t, err)
		assert.Equal(t, "America/New_York", store.zones["user_1"])
		chatClient.AssertExpectations(t)
	})

	t.Run("invalid zone yields an error notice", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		store := &fakeZoneStore{setErr: fmt.Errorf("unknown zone")}
		usecase := NewTimezoneUseCase(store, usecasecore.NewResponder(chatClient))
		chatClient.On("SendDirectMessage", "user_1", mock.MatchedBy(func(content string) bool {
			return strings.Contains(content, "Invalid time zone")
		})).Return(nil)

		err := usecase.SetTimezone(context.Background(), dmOutputExecCtx(), "Mars/Olympus")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("closed DMs fall back to the channel", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		store := &fakeZoneStore{}
		usecase := NewTimezoneUseCase(store, usecasecore.NewResponder(chatClient))
		chatClient.On("SendDirectMessage", "user_1", mock.Anything).Return(clients.ErrForbidden)
		chatClient.On("SendMessage", "chan_1", mock.MatchedBy(func(content string) bool {
			return strings.Contains(content, "couldn't send you a DM")
		})).Return("msg_2", nil)

		err := usecase.SetTimezone(context.Background(), dmOutputExecCtx(), "Europe/Sofia")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})
}

func TestTimezoneUseCase_Timezones(t *testing.T) {
	t.Run("lists unique zones with local times via DM", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		store := &fakeZoneStore{zones: map[string]string{
			"user_1": "UTC",
			"user_2": "UTC",
		}}
		usecase := NewTimezoneUseCase(store, usecasecore.NewResponder(chatClient))
		usecase.now = func() time.Time {
			return time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
		}
		chatClient.On("DeleteMessage", "chan_1", "msg_cmd").Return(nil)
		chatClient.On("SendDirectMessage", "user_1", mock.MatchedBy(func(content string) bool {
			return strings.Count(content, "🕒") == 1 &&
				strings.Contains(content, "**UTC** → 2025-06-15 02:30 PM")
		})).Return(nil)

		err := usecase.Timezones(context.Background(), dmOutputExecCtx(), "")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("no registered zones yields a hint", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		usecase := NewTimezoneUseCase(&fakeZoneStore{}, usecasecore.NewResponder(chatClient))
		chatClient.On("DeleteMessage", "chan_1", "msg_cmd").Return(nil)
		chatClient.On("SendDirectMessage", "user_1", mock.MatchedBy(func(content string) bool {
			return strings.Contains(content, "No users have registered a time zone yet")
		})).Return(nil)

		err := usecase.Timezones(context.Background(), dmOutputExecCtx(), "")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})
}

func TestTimezoneUseCase_RightNow(t *testing.T) {
	chatClient := new(clients.MockChatClient)
	usecase := NewTimezoneUseCase(&fakeZoneStore{}, usecasecore.NewResponder(chatClient))
	fixed := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	usecase.now = func() time.Time { return fixed }

	execCtx := dmOutputExecCtx()
	execCtx.Output = models.OutputSurfaceChannel
	expectedTag := fmt.Sprintf("`<t:%d:F>`", fixed.Unix())
	chatClient.On("SendMessage", "chan_1", mock.MatchedBy(func(content string) bool {
		return strings.Contains(content, expectedTag)
	})).Return("msg_2", nil)

	err := usecase.RightNow(context.Background(), execCtx, "")

	require.NoError(t, err)
	chatClient.AssertExpectations(t)
}
