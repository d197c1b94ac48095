package botconfig

import (
	"context"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"henbot/models"
)

type mockSnapshotsRepo struct {
	mock.Mock
}

func (m *mockSnapshotsRepo) InsertSnapshot(ctx context.Context, rawJSON string) (*models.WhitelistSnapshot, error) {
	args := m.Called(ctx, rawJSON)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WhitelistSnapshot), args.Error(1)
}

func (m *mockSnapshotsRepo) GetLatestSnapshot(ctx context.Context) (mo.Option[models.WhitelistSnapshot], error) {
	args := m.Called(ctx)
	return args.Get(0).(mo.Option[models.WhitelistSnapshot]), args.Error(1)
}

func TestBotConfigService_ProcessUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid JSON replaces the configuration wholesale", func(t *testing.T) {
		service := NewBotConfigService(nil)

		err := service.ProcessUpdate(ctx, `{"catchup": {"processing_whitelist": ["general"]}}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"general"}, service.GetCommandWhitelist("catchup"))

		err = service.ProcessUpdate(ctx, `{"catchup": {"processing_whitelist": ["ops"]}}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"ops"}, service.GetCommandWhitelist("catchup"))
	})

	t.Run("replacement drops keys absent from the new blob", func(t *testing.T) {
		service := NewBotConfigService(nil)

		require.NoError(t, service.ProcessUpdate(ctx, `{"guide": {"processing_whitelist": ["intro"]}}`))
		require.NoError(t, service.ProcessUpdate(ctx, `{"catchup": {"processing_whitelist": ["ops"]}}`))

		assert.Empty(t, service.GetCommandWhitelist("guide"))
	})

	t.Run("smart quotes are repaired before the second parse", func(t *testing.T) {
		service := NewBotConfigService(nil)
		content := "{“catchup”: {“processing_whitelist”: [“general”]}}"

		err := service.ProcessUpdate(ctx, content)
		require.NoError(t, err)
		assert.Equal(t, []string{"general"}, service.GetCommandWhitelist("catchup"))
	})

	t.Run("unparseable update keeps the prior snapshot", func(t *testing.T) {
		service := NewBotConfigService(nil)
		require.NoError(t, service.ProcessUpdate(ctx, `{"catchup": {"processing_whitelist": ["general"]}}`))

		err := service.ProcessUpdate(ctx, "this is not json")
		assert.Error(t, err)
		assert.Equal(t, []string{"general"}, service.GetCommandWhitelist("catchup"))
	})

	t.Run("accepted updates are persisted as snapshots", func(t *testing.T) {
		repo := new(mockSnapshotsRepo)
		content := `{"catchup": {"processing_whitelist": ["ops"]}}`
		repo.On("InsertSnapshot", ctx, content).
			Return(&models.WhitelistSnapshot{ID: "wls_1", Version: 1, RawJSON: content}, nil)
		service := NewBotConfigService(repo)

		require.NoError(t, service.ProcessUpdate(ctx, content))
		repo.AssertExpectations(t)
	})

	t.Run("snapshot persistence failure does not undo the update", func(t *testing.T) {
		repo := new(mockSnapshotsRepo)
		content := `{"catchup": {"processing_whitelist": ["ops"]}}`
		repo.On("InsertSnapshot", ctx, content).Return(nil, assert.AnError)
		service := NewBotConfigService(repo)

		require.NoError(t, service.ProcessUpdate(ctx, content))
		assert.Equal(t, []string{"ops"}, service.GetCommandWhitelist("catchup"))
	})
}

func TestBotConfigService_GetCommandWhitelist(t *testing.T) {
	t.Run("absent command yields an empty list, never an error", func(t *testing.T) {
		service := NewBotConfigService(nil)
		assert.Empty(t, service.GetCommandWhitelist("nonexistent"))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		service := NewBotConfigService(nil)
		require.NoError(t, service.ProcessUpdate(context.Background(),
			`{"catchup": {"processing_whitelist": ["general", "ops"]}}`))

		whitelist := service.GetCommandWhitelist("catchup")
		whitelist[0] = "mutated"
		assert.Equal(t, []string{"general", "ops"}, service.GetCommandWhitelist("catchup"))
	})
}

func TestBotConfigService_Reset(t *testing.T) {
	t.Run("deletion empties all whitelists", func(t *testing.T) {
		service := NewBotConfigService(nil)
		require.NoError(t, service.ProcessUpdate(context.Background(),
			`{"catchup": {"processing_whitelist": ["general"]}}`))

		service.Reset()
		assert.Empty(t, service.GetCommandWhitelist("catchup"))
	})
}

func TestBotConfigService_RestoreFromSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("rehydrates from the latest snapshot", func(t *testing.T) {
		repo := new(mockSnapshotsRepo)
		repo.On("GetLatestSnapshot", ctx).Return(mo.Some(models.WhitelistSnapshot{
			ID:      "wls_1",
			Version: 3,
			RawJSON: `{"catchup": {"processing_whitelist": ["ops"]}}`,
		}), nil)
		service := NewBotConfigService(repo)

		require.NoError(t, service.RestoreFromSnapshot(ctx))
		assert.Equal(t, []string{"ops"}, service.GetCommandWhitelist("catchup"))
	})

	t.Run("absence of snapshots is not an error", func(t *testing.T) {
		repo := new(mockSnapshotsRepo)
		repo.On("GetLatestSnapshot", ctx).Return(mo.None[models.WhitelistSnapshot](), nil)
		service := NewBotConfigService(repo)

		require.NoError(t, service.RestoreFromSnapshot(ctx))
		assert.Empty(t, service.GetCommandWhitelist("catchup"))
	})

	t.Run("no repository is a no-op", func(t *testing.T) {
		service := NewBotConfigService(nil)
		require.NoError(t, service.RestoreFromSnapshot(ctx))
	})
}
