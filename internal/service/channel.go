package service

import (
	"context"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/snowflake"
)

// ChannelService handles channel business logic.
type ChannelService struct {
	channels   database.ChannelRepository
	members    database.MemberRepository
	overwrites database.OverwriteRepository
	snowflake  *snowflake.Generator
	perms      *PermissionChecker
}

// NewChannelService creates a ChannelService.
func NewChannelService(
	channels database.ChannelRepository,
	members database.MemberRepository,
	overwrites database.OverwriteRepository,
	sf *snowflake.Generator,
	perms *PermissionChecker,
) *ChannelService {
	return &ChannelService{
		channels:   channels,
		members:    members,
		overwrites: overwrites,
		snowflake:  sf,
		perms:      perms,
	}
}

// CreateChannel creates a channel in the given server. A channel created
// under a category starts with a copy of the category's overwrites, so a
// locked category yields locked channels without further setup.
func (s *ChannelService) CreateChannel(ctx context.Context, serverID, userID int64, name string, chType models.ChannelType, topic *string, parentID *int64) (*models.Channel, error) {
	if err := s.perms.RequireServerCapability(ctx, serverID, userID, permissions.CapManageChannel); err != nil {
		return nil, err
	}

	if len(name) < 1 || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "channel name must be 1-100 characters")
	}

	switch chType {
	case models.ChannelTypeText, models.ChannelTypeCategory:
	default:
		return nil, BadRequest("INVALID_TYPE", "channel type must be 0 (text) or 4 (category)")
	}

	var template []models.Overwrite
	if parentID != nil {
		if chType == models.ChannelTypeCategory {
			return nil, BadRequest("INVALID_PARENT", "categories cannot be nested")
		}
		parent, err := s.channels.GetByID(ctx, *parentID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		if parent == nil || parent.ServerID != serverID {
			return nil, NotFound("NOT_FOUND", "parent channel not found")
		}
		if parent.Type != models.ChannelTypeCategory {
			return nil, BadRequest("INVALID_PARENT", "parent must be a category")
		}
		template, err = s.overwrites.GetByChannel(ctx, *parentID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
	}

	existing, err := s.channels.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	ch := &models.Channel{
		ID:       s.snowflake.Generate().Int64(),
		ServerID: serverID,
		Name:     name,
		Type:     chType,
		Position: len(existing),
		Topic:    topic,
		ParentID: parentID,
	}

	if err := s.channels.Create(ctx, ch); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	for i := range template {
		copied := template[i]
		copied.ChannelID = ch.ID
		if err := s.overwrites.Set(ctx, &copied); err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
	}
	if len(template) > 0 {
		s.perms.Invalidate(ctx, serverID)
	}

	return ch, nil
}

// ListChannels returns the server's channels the user can see. Channels
// hidden by overwrites are filtered out; categories are always listed.
func (s *ChannelService) ListChannels(ctx context.Context, serverID, userID int64) ([]models.Channel, error) {
	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	channels, err := s.channels.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	visible := make([]models.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == models.ChannelTypeCategory {
			visible = append(visible, ch)
			continue
		}
		caps, err := s.perms.Capabilities(ctx, serverID, ch.ID, userID)
		if err != nil {
			return nil, err
		}
		if caps.Has(permissions.CapViewChannel) {
			visible = append(visible, ch)
		}
	}

	return visible, nil
}

// GetChannel returns a channel if the user is a member of its server and
// can view it.
func (s *ChannelService) GetChannel(ctx context.Context, channelID, userID int64) (*models.Channel, error) {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if ch == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	member, err := s.members.GetByServerAndUser(ctx, ch.ServerID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if ch.Type != models.ChannelTypeCategory {
		caps, err := s.perms.Capabilities(ctx, ch.ServerID, ch.ID, userID)
		if err != nil {
			return nil, err
		}
		if !caps.Has(permissions.CapViewChannel) {
			return nil, NotFound("NOT_FOUND", "channel not found")
		}
	}

	return ch, nil
}

// UpdateChannel updates channel name, topic, and/or position.
func (s *ChannelService) UpdateChannel(ctx context.Context, channelID, userID int64, name *string, topic *string, position *int) (*models.Channel, error) {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if ch == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, ch.ServerID, channelID, userID, permissions.CapManageChannel); err != nil {
		return nil, err
	}

	if name != nil {
		if len(*name) < 1 || len(*name) > 100 {
			return nil, BadRequest("INVALID_NAME", "channel name must be 1-100 characters")
		}
		ch.Name = *name
	}
	if topic != nil {
		ch.Topic = topic
	}
	if position != nil {
		ch.Position = *position
	}

	if err := s.channels.Update(ctx, ch); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return ch, nil
}

// DeleteChannel deletes a channel and its overwrites.
func (s *ChannelService) DeleteChannel(ctx context.Context, channelID, userID int64) error {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if ch == nil {
		return NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, ch.ServerID, channelID, userID, permissions.CapManageChannel); err != nil {
		return err
	}

	if err := s.overwrites.DeleteByChannel(ctx, channelID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if err := s.channels.Delete(ctx, channelID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, ch.ServerID)
	return nil
}
