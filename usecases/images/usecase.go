package images

import (
	"context"
	"fmt"
	"log"
	"strings"

	"henbot/clients"
	"henbot/models"
	usecasecore "henbot/usecases/core"
)

// ImagesUseCase handles the image generation command.
type ImagesUseCase struct {
	imageClient clients.ImageClient
	responder   *usecasecore.Responder
}

func NewImagesUseCase(imageClient clients.ImageClient, responder *usecasecore.Responder) *ImagesUseCase {
	return &ImagesUseCase{
		imageClient: imageClient,
		responder:   responder,
	}
}

// Image generates an image from the prompt and replies with its URL.
func (u *ImagesUseCase) Image(ctx context.Context, execCtx models.ExecutionContext, args string) error {
	prompt := strings.TrimSpace(args)
	if prompt == "" {
		return u.responder.Reply(execCtx, "⚠️ Please provide a prompt to generate an image from.")
	}

	imageURL, err := u.imageClient.GenerateImage(ctx, prompt)
	if err != nil {
		return fmt.Errorf("failed to generate image: %w", err)
	}
	log.Printf("✅ Generated image for user %s", execCtx.UserID)
	return u.responder.Reply(execCtx, imageURL)
}
