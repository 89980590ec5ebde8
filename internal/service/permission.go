package service

import (
	"context"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/redis"
)

// PermissionChecker resolves capability masks for members and enforces
// server-level and channel-level capability checks. Server owners bypass
// every check. Resolved masks are memoized in Redis under a per-server
// version counter so any role, membership or override change invalidates
// the whole server at once.
type PermissionChecker struct {
	servers    database.ServerRepository
	members    database.MemberRepository
	roles      database.RoleRepository
	overwrites database.OverwriteRepository
	cache      *redis.Client
}

// NewPermissionChecker creates a PermissionChecker. The cache may be nil,
// in which case every check resolves from the database.
func NewPermissionChecker(
	servers database.ServerRepository,
	members database.MemberRepository,
	roles database.RoleRepository,
	overwrites database.OverwriteRepository,
	cache *redis.Client,
) *PermissionChecker {
	return &PermissionChecker{
		servers:    servers,
		members:    members,
		roles:      roles,
		overwrites: overwrites,
		cache:      cache,
	}
}

// Invalidate bumps the server's permission version, dropping all cached
// capability masks for it. Call after any role, membership or override write.
func (p *PermissionChecker) Invalidate(ctx context.Context, serverID int64) {
	if p.cache != nil {
		_ = p.cache.BumpServerVersion(ctx, serverID)
	}
}

// snapshot loads everything the resolver needs for one user in one channel.
// channelID 0 skips the override fetch and yields server-wide base capabilities.
func (p *PermissionChecker) snapshot(ctx context.Context, serverID, channelID, userID int64) (*permissions.Snapshot, error) {
	member, err := p.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, Forbidden("FORBIDDEN", "you are not a member of this server")
	}

	catalog, err := p.roles.GetCatalog(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	snap := &permissions.Snapshot{
		UserID:      userID,
		ServerID:    serverID,
		HeldRoleIDs: member.Roles,
		Roles:       catalog,
	}

	if channelID != 0 {
		overwrites, err := p.overwrites.GetByChannel(ctx, channelID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		snap.Overwrites = overwrites
	}

	return snap, nil
}

// Capabilities returns the user's effective capability mask. channelID 0
// means the server-wide base mask; otherwise channel overrides are applied.
func (p *PermissionChecker) Capabilities(ctx context.Context, serverID, channelID, userID int64) (permissions.Capability, error) {
	server, err := p.servers.GetByID(ctx, serverID)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return 0, NotFound("NOT_FOUND", "server not found")
	}
	if server.OwnerID == userID {
		return permissions.AllCapabilities, nil
	}

	var version int64
	if p.cache != nil {
		version, err = p.cache.ServerVersion(ctx, serverID)
		if err == nil {
			if mask, ok, cerr := p.cache.GetCachedCapabilities(ctx, serverID, version, userID, channelID); cerr == nil && ok {
				return permissions.Capability(mask), nil
			}
		}
	}

	snap, serr := p.snapshot(ctx, serverID, channelID, userID)
	if serr != nil {
		return 0, serr
	}

	var caps permissions.Capability
	if channelID == 0 {
		caps = snap.Base()
	} else {
		caps = snap.ForChannel(channelID)
	}

	if p.cache != nil {
		_ = p.cache.SetCachedCapabilities(ctx, serverID, version, userID, channelID, int64(caps))
	}

	return caps, nil
}

// RequireServerCapability checks that the user holds the capability at the
// server level, before any channel overrides.
func (p *PermissionChecker) RequireServerCapability(ctx context.Context, serverID, userID int64, c permissions.Capability) error {
	caps, err := p.Capabilities(ctx, serverID, 0, userID)
	if err != nil {
		return err
	}
	if !caps.Has(c) {
		return Forbidden("MISSING_CAPABILITIES", "you do not have permission to perform this action")
	}
	return nil
}

// RequireChannelCapability checks that the user holds the capability in the
// channel. Viewing the channel is always required on top of the requested
// capability; a user who cannot see a channel cannot act in it at all.
func (p *PermissionChecker) RequireChannelCapability(ctx context.Context, serverID, channelID, userID int64, c permissions.Capability) error {
	caps, err := p.Capabilities(ctx, serverID, channelID, userID)
	if err != nil {
		return err
	}
	if !caps.Has(c | permissions.CapViewChannel) {
		return Forbidden("MISSING_CAPABILITIES", "you do not have the required permissions")
	}
	return nil
}

// IsServerOwner returns true if the user owns the server.
func (p *PermissionChecker) IsServerOwner(ctx context.Context, serverID, userID int64) (bool, error) {
	server, err := p.servers.GetByID(ctx, serverID)
	if err != nil {
		return false, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return false, nil
	}
	return server.OwnerID == userID, nil
}

// HighestRolePosition returns the highest position among the user's roles.
func (p *PermissionChecker) HighestRolePosition(ctx context.Context, serverID, userID int64) (int, error) {
	memberRoles, err := p.roles.GetByMember(ctx, serverID, userID)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}
	highest := 0
	for _, r := range memberRoles {
		if r.Position > highest {
			highest = r.Position
		}
	}
	return highest, nil
}
