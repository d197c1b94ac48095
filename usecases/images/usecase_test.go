package images

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"henbot/clients"
	"henbot/testutils"
	usecasecore "henbot/usecases/core"
)

func TestImagesUseCase_Image(t *testing.T) {
	execCtx := testutils.NewExecutionContext()

	t.Run("replies with the generated image URL", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		imageClient := new(clients.MockImageClient)
		usecase := NewImagesUseCase(imageClient, usecasecore.NewResponder(chatClient))
		imageClient.On("GenerateImage", mock.Anything, "a hen in a server room").
			Return("https://images.example.com/hen.png", nil)
		chatClient.On("SendMessage", execCtx.ChannelID, "https://images.example.com/hen.png").Return("msg_2", nil)

		err := usecase.Image(context.Background(), execCtx, "a hen in a server room")

		require.NoError(t, err)
		chatClient.AssertExpectations(t)
	})

	t.Run("generation failure surfaces as an error", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		imageClient := new(clients.MockImageClient)
		usecase := NewImagesUseCase(imageClient, usecasecore.NewResponder(chatClient))
		imageClient.On("GenerateImage", mock.Anything, mock.Anything).
			Return("", errors.New("model offline"))

		err := usecase.Image(context.Background(), execCtx, "something")

		require.Error(t, err)
		chatClient.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
	})

	t.Run("empty prompt gets a usage hint without calling the API", func(t *testing.T) {
		chatClient := new(clients.MockChatClient)
		imageClient := new(clients.MockImageClient)
		usecase := NewImagesUseCase(imageClient, usecasecore.NewResponder(chatClient))
		chatClient.On("SendMessage", execCtx.ChannelID, mock.Anything).Return("msg_2", nil)

		err := usecase.Image(context.Background(), execCtx, "")

		require.NoError(t, err)
		imageClient.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
	})
}
