package core

import (
	"errors"
	"fmt"
	"log"

	"henbot/clients"
	"henbot/models"
	"henbot/utils"
)

const dmFallbackNotice = "⚠️ I couldn't send you a DM. Please check your privacy settings."

// Responder routes command replies to the surface the permission gate
// resolved into the execution context. Long replies are split into
// platform-sized chunks before sending.
type Responder struct {
	chatClient clients.ChatClient
}

func NewResponder(chatClient clients.ChatClient) *Responder {
	return &Responder{chatClient: chatClient}
}

// Reply delivers content on the execution context's resolved surface. A DM
// surface falls back to the invoking channel with a privacy notice when the
// user's DMs are closed.
func (r *Responder) Reply(execCtx models.ExecutionContext, content string) error {
	if execCtx.Output == models.OutputSurfaceDM && !execCtx.IsDM {
		err := r.SendDM(execCtx.UserID, content)
		if err == nil {
			return nil
		}
		if !errors.Is(err, clients.ErrForbidden) {
			return err
		}
		log.Printf("⚠️ DMs closed for user %s, notifying in channel %s", execCtx.UserID, execCtx.ChannelID)
		if _, noticeErr := r.chatClient.SendMessage(execCtx.ChannelID, dmFallbackNotice); noticeErr != nil {
			return fmt.Errorf("failed to send DM fallback notice: %w", noticeErr)
		}
		return nil
	}
	return r.SendToChannel(execCtx.ChannelID, content)
}

// SendToChannel delivers content to a channel regardless of the resolved
// surface. Used for waiting notices and channel-bound confirmations.
func (r *Responder) SendToChannel(channelID, content string) error {
	for _, chunk := range utils.SplitMessage(content) {
		if _, err := r.chatClient.SendMessage(channelID, chunk); err != nil {
			return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
		}
	}
	return nil
}

// SendDM delivers content directly to a user.
func (r *Responder) SendDM(userID, content string) error {
	for _, chunk := range utils.SplitMessage(content) {
		if err := r.chatClient.SendDirectMessage(userID, chunk); err != nil {
			return fmt.Errorf("failed to send DM to user %s: %w", userID, err)
		}
	}
	return nil
}

// SendWaiting posts a progress notice and returns its message ID so the
// caller can edit it in place once the slow work finishes.
func (r *Responder) SendWaiting(channelID, content string) (string, error) {
	messageID, err := r.chatClient.SendMessage(channelID, content)
	if err != nil {
		return "", fmt.Errorf("failed to send waiting message: %w", err)
	}
	return messageID, nil
}

// EditOrSend replaces a waiting message with the final content. The first
// chunk edits the waiting message in place, any overflow chunks follow as
// fresh messages.
func (r *Responder) EditOrSend(channelID, messageID, content string) error {
	chunks := utils.SplitMessage(content)
	if len(chunks) == 0 {
		return nil
	}
	if err := r.chatClient.EditMessage(channelID, messageID, chunks[0]); err != nil {
		return fmt.Errorf("failed to edit message %s: %w", messageID, err)
	}
	for _, chunk := range chunks[1:] {
		if _, err := r.chatClient.SendMessage(channelID, chunk); err != nil {
			return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
		}
	}
	return nil
}

// DeleteQuietly removes a message, tolerating the cases where it is already
// gone or the bot lacks permission.
func (r *Responder) DeleteQuietly(channelID, messageID string) {
	if err := r.chatClient.DeleteMessage(channelID, messageID); err != nil {
		log.Printf("⚠️ Failed to delete message %s in channel %s: %v", messageID, channelID, err)
	}
}
