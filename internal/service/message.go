package service

import (
	"context"
	"time"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/snowflake"
)

// MessageService handles message business logic. Every operation resolves
// the caller's capabilities in the target channel first.
type MessageService struct {
	messages  database.MessageRepository
	channels  database.ChannelRepository
	snowflake *snowflake.Generator
	perms     *PermissionChecker
}

// NewMessageService creates a MessageService.
func NewMessageService(
	messages database.MessageRepository,
	channels database.ChannelRepository,
	sf *snowflake.Generator,
	perms *PermissionChecker,
) *MessageService {
	return &MessageService{
		messages:  messages,
		channels:  channels,
		snowflake: sf,
		perms:     perms,
	}
}

// SendMessage creates a message in a channel. Attaching media requires the
// media capability on top of sending.
func (s *MessageService) SendMessage(ctx context.Context, channelID, userID int64, content string, attachmentURL *string) (*models.MessageWithAuthor, error) {
	channel, err := s.resolveChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	need := permissions.CapSendMessages
	if attachmentURL != nil {
		need = need.Add(permissions.CapSendMedia)
	}
	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, need); err != nil {
		return nil, err
	}

	if len(content) == 0 && attachmentURL == nil {
		return nil, BadRequest("INVALID_CONTENT", "message must have content or an attachment")
	}
	if len(content) > 2000 {
		return nil, BadRequest("INVALID_CONTENT", "message content must be at most 2000 characters")
	}

	msg := &models.Message{
		ID:            s.snowflake.Generate().Int64(),
		ChannelID:     channelID,
		AuthorID:      userID,
		Content:       content,
		AttachmentURL: attachmentURL,
		CreatedAt:     time.Now(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	full, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil || full == nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return full, nil
}

// GetMessages returns messages from a channel with cursor-based pagination.
func (s *MessageService) GetMessages(ctx context.Context, channelID, userID int64, before *int64, limit int) ([]models.MessageWithAuthor, error) {
	channel, err := s.resolveChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapReadHistory); err != nil {
		return nil, err
	}

	messages, err := s.messages.GetByChannelID(ctx, channelID, before, limit)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if messages == nil {
		messages = []models.MessageWithAuthor{}
	}
	return messages, nil
}

// GetMessage returns a single message by ID.
func (s *MessageService) GetMessage(ctx context.Context, channelID, msgID, userID int64) (*models.MessageWithAuthor, error) {
	channel, err := s.resolveChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapReadHistory); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, msgID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if msg == nil || msg.ChannelID != channelID {
		return nil, NotFound("NOT_FOUND", "message not found")
	}

	return msg, nil
}

// EditMessage edits a message. Only the author can edit, and the author
// must hold the edit capability in the channel.
func (s *MessageService) EditMessage(ctx context.Context, channelID, msgID, userID int64, content string) (*models.MessageWithAuthor, error) {
	channel, err := s.resolveChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, msgID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if msg == nil || msg.ChannelID != channelID {
		return nil, NotFound("NOT_FOUND", "message not found")
	}

	if msg.AuthorID != userID {
		return nil, Forbidden("FORBIDDEN", "you can only edit your own messages")
	}
	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapEditOwnMessages); err != nil {
		return nil, err
	}

	if len(content) == 0 || len(content) > 2000 {
		return nil, BadRequest("INVALID_CONTENT", "message content must be 1-2000 characters")
	}

	now := time.Now()
	updated := &models.Message{
		ID:       msgID,
		Content:  content,
		EditedAt: &now,
	}

	if err := s.messages.Update(ctx, updated); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	full, err := s.messages.GetByID(ctx, msgID)
	if err != nil || full == nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return full, nil
}

// DeleteMessage deletes a message. The author can always delete their own;
// deleting others' messages requires the moderation capability.
func (s *MessageService) DeleteMessage(ctx context.Context, channelID, msgID, userID int64) error {
	channel, err := s.resolveChannel(ctx, channelID)
	if err != nil {
		return err
	}

	msg, err := s.messages.GetByID(ctx, msgID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if msg == nil || msg.ChannelID != channelID {
		return NotFound("NOT_FOUND", "message not found")
	}

	need := permissions.CapViewChannel
	if msg.AuthorID != userID {
		need = permissions.CapDeleteOthersMessages
	}
	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, need); err != nil {
		return err
	}

	if err := s.messages.Delete(ctx, msgID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	return nil
}

func (s *MessageService) resolveChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}
	if channel.Type == models.ChannelTypeCategory {
		return nil, BadRequest("INVALID_CHANNEL", "cannot post in a category")
	}
	return channel, nil
}
