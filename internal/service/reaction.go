package service

import (
	"context"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
)

// ReactionService handles reaction business logic.
type ReactionService struct {
	reactions database.ReactionRepository
	messages  database.MessageRepository
	channels  database.ChannelRepository
	perms     *PermissionChecker
}

// NewReactionService creates a ReactionService.
func NewReactionService(
	reactions database.ReactionRepository,
	messages database.MessageRepository,
	channels database.ChannelRepository,
	perms *PermissionChecker,
) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		messages:  messages,
		channels:  channels,
		perms:     perms,
	}
}

// AddReaction adds a reaction to a message.
func (s *ReactionService) AddReaction(ctx context.Context, channelID, messageID, userID int64, emoji string) error {
	if emoji == "" {
		return BadRequest("INVALID_EMOJI", "emoji must not be empty")
	}

	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapAddReactions); err != nil {
		return err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if msg == nil || msg.ChannelID != channelID {
		return NotFound("NOT_FOUND", "message not found")
	}

	if err := s.reactions.Add(ctx, messageID, userID, emoji); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	return nil
}

// RemoveReaction removes the caller's own reaction from a message. Removing
// one's own reaction only needs channel visibility.
func (s *ReactionService) RemoveReaction(ctx context.Context, channelID, messageID, userID int64, emoji string) error {
	if emoji == "" {
		return BadRequest("INVALID_EMOJI", "emoji must not be empty")
	}

	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapViewChannel); err != nil {
		return err
	}

	if err := s.reactions.Remove(ctx, messageID, userID, emoji); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	return nil
}

// GetReactionCounts returns per-emoji counts for a message, flagging emojis
// the caller has reacted with.
func (s *ReactionService) GetReactionCounts(ctx context.Context, channelID, messageID, userID int64) ([]models.ReactionCount, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapReadHistory); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if msg == nil || msg.ChannelID != channelID {
		return nil, NotFound("NOT_FOUND", "message not found")
	}

	counts, err := s.reactions.GetCountsByMessage(ctx, messageID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if counts == nil {
		counts = []models.ReactionCount{}
	}
	return counts, nil
}
