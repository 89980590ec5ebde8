package service

import (
	"context"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/snowflake"
)

// RoleService handles role and channel overwrite business logic. Every
// mutation invalidates the server's cached capability masks.
type RoleService struct {
	servers    database.ServerRepository
	roles      database.RoleRepository
	members    database.MemberRepository
	channels   database.ChannelRepository
	overwrites database.OverwriteRepository
	snowflake  *snowflake.Generator
	perms      *PermissionChecker
}

// NewRoleService creates a RoleService.
func NewRoleService(
	servers database.ServerRepository,
	roles database.RoleRepository,
	members database.MemberRepository,
	channels database.ChannelRepository,
	overwrites database.OverwriteRepository,
	sf *snowflake.Generator,
	perms *PermissionChecker,
) *RoleService {
	return &RoleService{
		servers:    servers,
		roles:      roles,
		members:    members,
		channels:   channels,
		overwrites: overwrites,
		snowflake:  sf,
		perms:      perms,
	}
}

// CreateRole creates a new role in a server with hierarchy enforcement.
// The capability mask is clipped to defined bits; roles only grant.
func (s *RoleService) CreateRole(ctx context.Context, serverID, actorID int64, name string, color int, capMask int64, position int) (*models.Role, error) {
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
	}

	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
		if err != nil {
			return nil, err
		}
		if position >= highest {
			return nil, RoleHierarchyError("cannot create a role at or above your highest role position")
		}
	}

	role := &models.Role{
		ID:          s.snowflake.Generate().Int64(),
		ServerID:    serverID,
		Name:        name,
		Color:       color,
		Permissions: capMask & int64(permissions.AllCapabilities),
		Position:    position,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return role, nil
}

// ListRoles returns all roles for a server.
func (s *RoleService) ListRoles(ctx context.Context, serverID int64) ([]models.Role, error) {
	roles, err := s.roles.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

// UpdateRole updates a role with hierarchy enforcement.
func (s *RoleService) UpdateRole(ctx context.Context, serverID, actorID, roleID int64, name *string, color *int, capMask *int64, position *int) (*models.Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if role == nil || role.ServerID != serverID {
		return nil, NotFound("NOT_FOUND", "role not found")
	}

	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
		if err != nil {
			return nil, err
		}
		if role.Position >= highest {
			return nil, RoleHierarchyError("cannot modify a role at or above your highest role position")
		}
	}

	if name != nil {
		if *name == "" || len(*name) > 100 {
			return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
		}
		role.Name = *name
	}
	if color != nil {
		role.Color = *color
	}
	if capMask != nil {
		role.Permissions = *capMask & int64(permissions.AllCapabilities)
	}
	if position != nil {
		role.Position = *position
	}

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return role, nil
}

// DeleteRole deletes a role with hierarchy enforcement. Member rows keep
// referencing the deleted id; resolution skips unresolvable roles.
func (s *RoleService) DeleteRole(ctx context.Context, serverID, actorID, roleID int64) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if role == nil || role.ServerID != serverID {
		return NotFound("NOT_FOUND", "role not found")
	}

	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if !isOwner {
		highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
		if err != nil {
			return err
		}
		if role.Position >= highest {
			return RoleHierarchyError("cannot delete a role at or above your highest role position")
		}
	}

	if err := s.roles.Delete(ctx, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return nil
}

// AssignRole assigns a role to a member with hierarchy enforcement.
func (s *RoleService) AssignRole(ctx context.Context, serverID, actorID, userID, roleID int64) error {
	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return NotFound("NOT_FOUND", "member not found")
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if role == nil || role.ServerID != serverID {
		return NotFound("NOT_FOUND", "role not found")
	}

	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if !isOwner {
		highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
		if err != nil {
			return err
		}
		if role.Position >= highest {
			return RoleHierarchyError("cannot assign a role at or above your highest role position")
		}
	}

	if err := s.members.AddRole(ctx, serverID, userID, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return nil
}

// RemoveRole removes a role from a member with hierarchy enforcement.
func (s *RoleService) RemoveRole(ctx context.Context, serverID, actorID, userID, roleID int64) error {
	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if !isOwner {
		role, err := s.roles.GetByID(ctx, roleID)
		if err != nil {
			return Internal("INTERNAL", "internal server error")
		}
		if role != nil {
			highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
			if err != nil {
				return err
			}
			if role.Position >= highest {
				return RoleHierarchyError("cannot remove a role at or above your highest role position")
			}
		}
	}

	if err := s.members.RemoveRole(ctx, serverID, userID, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return nil
}

// SetOverwrite creates or replaces the channel overwrite for a target.
// Allow and Deny must be disjoint; undefined bits are rejected rather than
// silently dropped so callers learn about typos.
func (s *RoleService) SetOverwrite(ctx context.Context, channelID, actorID int64, target models.OverwriteTarget, targetID int64, allow, deny permissions.Capability) (*models.Overwrite, error) {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if ch == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, ch.ServerID, channelID, actorID, permissions.CapManageChannel); err != nil {
		return nil, err
	}

	if allow&deny != 0 {
		return nil, BadRequest("CONFLICTING_OVERWRITE", "a capability cannot be both allowed and denied")
	}
	if (allow|deny)&^permissions.AllCapabilities != 0 {
		return nil, BadRequest("UNKNOWN_CAPABILITY", "overwrite references undefined capability bits")
	}

	switch target {
	case models.OverwriteEveryone:
		if targetID != 0 {
			return nil, BadRequest("INVALID_TARGET", "everyone overwrites have no target id")
		}
	case models.OverwriteRole:
		role, err := s.roles.GetByID(ctx, targetID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		if role == nil || role.ServerID != ch.ServerID {
			return nil, NotFound("NOT_FOUND", "role not found")
		}
	case models.OverwriteUser:
		member, err := s.members.GetByServerAndUser(ctx, ch.ServerID, targetID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		if member == nil {
			return nil, NotFound("NOT_FOUND", "member not found")
		}
	default:
		return nil, BadRequest("INVALID_TARGET", "target must be everyone, role, or user")
	}

	overwrite := &models.Overwrite{
		ChannelID: channelID,
		Target:    target,
		TargetID:  targetID,
		Allow:     int64(allow),
		Deny:      int64(deny),
	}

	if err := s.overwrites.Set(ctx, overwrite); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, ch.ServerID)
	return overwrite, nil
}

// DeleteOverwrite removes the channel overwrite for a target, returning the
// target's capabilities in this channel to inherited values.
func (s *RoleService) DeleteOverwrite(ctx context.Context, channelID, actorID int64, target models.OverwriteTarget, targetID int64) error {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if ch == nil {
		return NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, ch.ServerID, channelID, actorID, permissions.CapManageChannel); err != nil {
		return err
	}

	if err := s.overwrites.Delete(ctx, channelID, target, targetID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, ch.ServerID)
	return nil
}

// ListOverwrites returns a channel's overwrites for members who can manage it.
func (s *RoleService) ListOverwrites(ctx context.Context, channelID, actorID int64) ([]models.Overwrite, error) {
	ch, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if ch == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, ch.ServerID, channelID, actorID, permissions.CapManageChannel); err != nil {
		return nil, err
	}

	overwrites, err := s.overwrites.GetByChannel(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if overwrites == nil {
		overwrites = []models.Overwrite{}
	}
	return overwrites, nil
}
