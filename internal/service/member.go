package service

import (
	"context"
	"time"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
)

// MemberService handles member management business logic.
type MemberService struct {
	members database.MemberRepository
	servers database.ServerRepository
	roles   database.RoleRepository
	perms   *PermissionChecker
}

// NewMemberService creates a MemberService.
func NewMemberService(
	members database.MemberRepository,
	servers database.ServerRepository,
	roles database.RoleRepository,
	perms *PermissionChecker,
) *MemberService {
	return &MemberService{
		members: members,
		servers: servers,
		roles:   roles,
		perms:   perms,
	}
}

// JoinServer adds the user as a member of the server. New members hold only
// the default capabilities until roles are assigned.
func (s *MemberService) JoinServer(ctx context.Context, serverID, userID int64) (*models.Member, error) {
	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	existing, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if existing != nil {
		return nil, Conflict("ALREADY_MEMBER", "you are already a member of this server")
	}

	member := &models.Member{
		ServerID: serverID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return member, nil
}

// ListMembers returns members of a server. Caller must be a member.
func (s *MemberService) ListMembers(ctx context.Context, serverID, userID int64, limit, offset int) ([]models.Member, error) {
	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	members, err := s.members.GetByServerID(ctx, serverID, limit, offset)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// GetMember returns a specific member. Caller must be a member.
func (s *MemberService) GetMember(ctx context.Context, serverID, callerID, targetUserID int64) (*models.Member, error) {
	callerMember, err := s.members.GetByServerAndUser(ctx, serverID, callerID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if callerMember == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, targetUserID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "member not found")
	}

	return member, nil
}

// UpdateSelf updates the caller's own member profile (nickname).
func (s *MemberService) UpdateSelf(ctx context.Context, serverID, userID int64, nickname *string) (*models.Member, error) {
	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	if nickname != nil {
		if len(*nickname) > 32 {
			return nil, BadRequest("INVALID_NICKNAME", "nickname must be 32 characters or fewer")
		}
		if *nickname == "" {
			member.Nickname = nil
		} else {
			member.Nickname = nickname
		}
	}

	if err := s.members.Update(ctx, member); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return member, nil
}

// KickMember removes a member from the server. Requires channel management
// at the server level; the owner cannot be kicked.
func (s *MemberService) KickMember(ctx context.Context, serverID, callerID, targetUserID int64) error {
	if err := s.perms.RequireServerCapability(ctx, serverID, callerID, permissions.CapManageChannel); err != nil {
		return err
	}

	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if server != nil && server.OwnerID == targetUserID {
		return Forbidden("FORBIDDEN", "cannot kick the server owner")
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, targetUserID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return NotFound("NOT_FOUND", "member not found")
	}

	if err := s.members.Delete(ctx, serverID, targetUserID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return nil
}

// LeaveServer allows a member to leave a server. The owner cannot leave.
func (s *MemberService) LeaveServer(ctx context.Context, serverID, userID int64) error {
	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if server != nil && server.OwnerID == userID {
		return Forbidden("FORBIDDEN", "server owner cannot leave; transfer ownership or delete the server")
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return NotFound("NOT_FOUND", "you are not a member of this server")
	}

	if err := s.members.Delete(ctx, serverID, userID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.perms.Invalidate(ctx, serverID)
	return nil
}
