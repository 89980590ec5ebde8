package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/redis"
)

// permRepos is an in-memory backing store for PermissionChecker tests. It
// counts catalog loads so the caching tests can tell a cache hit from a
// database resolve.
type permRepos struct {
	server       *models.Server
	members      map[int64]*models.Member
	roles        map[int64]models.Role
	overwrites   map[int64][]models.Overwrite
	catalogLoads int
}

type permServerRepo struct{ r *permRepos }

func (s permServerRepo) Create(ctx context.Context, server *models.Server) error { return nil }
func (s permServerRepo) GetByID(ctx context.Context, id int64) (*models.Server, error) {
	if s.r.server != nil && s.r.server.ID == id {
		return s.r.server, nil
	}
	return nil, nil
}
func (s permServerRepo) Update(ctx context.Context, server *models.Server) error { return nil }
func (s permServerRepo) Delete(ctx context.Context, id int64) error              { return nil }
func (s permServerRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Server, error) {
	return nil, nil
}

type permMemberRepo struct{ r *permRepos }

func (m permMemberRepo) Create(ctx context.Context, member *models.Member) error { return nil }
func (m permMemberRepo) GetByServerAndUser(ctx context.Context, serverID, userID int64) (*models.Member, error) {
	return m.r.members[userID], nil
}
func (m permMemberRepo) GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error) {
	return nil, nil
}
func (m permMemberRepo) Update(ctx context.Context, member *models.Member) error { return nil }
func (m permMemberRepo) Delete(ctx context.Context, serverID, userID int64) error {
	return nil
}
func (m permMemberRepo) AddRole(ctx context.Context, serverID, userID, roleID int64) error {
	return nil
}
func (m permMemberRepo) RemoveRole(ctx context.Context, serverID, userID, roleID int64) error {
	return nil
}

type permRoleRepo struct{ r *permRepos }

func (p permRoleRepo) Create(ctx context.Context, role *models.Role) error { return nil }
func (p permRoleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	if role, ok := p.r.roles[id]; ok {
		return &role, nil
	}
	return nil, nil
}
func (p permRoleRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Role, error) {
	return nil, nil
}
func (p permRoleRepo) GetCatalog(ctx context.Context, serverID int64) (map[int64]models.Role, error) {
	p.r.catalogLoads++
	catalog := make(map[int64]models.Role, len(p.r.roles))
	for id, role := range p.r.roles {
		catalog[id] = role
	}
	return catalog, nil
}
func (p permRoleRepo) GetByMember(ctx context.Context, serverID, userID int64) ([]models.Role, error) {
	member := p.r.members[userID]
	if member == nil {
		return nil, nil
	}
	var held []models.Role
	for _, id := range member.Roles {
		if role, ok := p.r.roles[id]; ok {
			held = append(held, role)
		}
	}
	return held, nil
}
func (p permRoleRepo) Update(ctx context.Context, role *models.Role) error { return nil }
func (p permRoleRepo) Delete(ctx context.Context, id int64) error          { return nil }

type permOverwriteRepo struct{ r *permRepos }

func (o permOverwriteRepo) Set(ctx context.Context, overwrite *models.Overwrite) error { return nil }
func (o permOverwriteRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.Overwrite, error) {
	return o.r.overwrites[channelID], nil
}
func (o permOverwriteRepo) Delete(ctx context.Context, channelID int64, target models.OverwriteTarget, targetID int64) error {
	return nil
}
func (o permOverwriteRepo) DeleteByChannel(ctx context.Context, channelID int64) error { return nil }

func newPermRepos() *permRepos {
	return &permRepos{
		server: &models.Server{ID: 100, OwnerID: 1},
		members: map[int64]*models.Member{
			1: {ServerID: 100, UserID: 1},
			2: {ServerID: 100, UserID: 2, Roles: []int64{10}},
			3: {ServerID: 100, UserID: 3},
		},
		roles: map[int64]models.Role{
			10: {ID: 10, ServerID: 100, Permissions: int64(permissions.CapManageChannel), Position: 5},
		},
		overwrites: map[int64][]models.Overwrite{},
	}
}

func newChecker(r *permRepos, cache *redis.Client) *PermissionChecker {
	return NewPermissionChecker(permServerRepo{r}, permMemberRepo{r}, permRoleRepo{r}, permOverwriteRepo{r}, cache)
}

func TestCapabilitiesOwnerBypass(t *testing.T) {
	r := newPermRepos()
	p := newChecker(r, nil)

	caps, err := p.Capabilities(context.Background(), 100, 0, 1)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if caps != permissions.AllCapabilities {
		t.Errorf("owner caps = %v, want all", caps)
	}
	if r.catalogLoads != 0 {
		t.Errorf("owner bypass should not resolve roles, loads = %d", r.catalogLoads)
	}
}

func TestCapabilitiesUnknownServer(t *testing.T) {
	r := newPermRepos()
	p := newChecker(r, nil)

	_, err := p.Capabilities(context.Background(), 999, 0, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCapabilitiesNonMember(t *testing.T) {
	r := newPermRepos()
	p := newChecker(r, nil)

	_, err := p.Capabilities(context.Background(), 100, 0, 42)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestCapabilitiesBaseAggregation(t *testing.T) {
	r := newPermRepos()
	p := newChecker(r, nil)
	ctx := context.Background()

	caps, err := p.Capabilities(ctx, 100, 0, 3)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if caps != permissions.DefaultCapabilities {
		t.Errorf("plain member caps = %v, want defaults", caps)
	}

	caps, err = p.Capabilities(ctx, 100, 0, 2)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	want := permissions.DefaultCapabilities | permissions.CapManageChannel
	if caps != want {
		t.Errorf("role holder caps = %v, want %v", caps, want)
	}
}

func TestCapabilitiesChannelOverwrite(t *testing.T) {
	r := newPermRepos()
	r.overwrites[200] = []models.Overwrite{
		{ChannelID: 200, Target: models.OverwriteEveryone, Deny: int64(permissions.CapSendMessages)},
		{ChannelID: 200, Target: models.OverwriteUser, TargetID: 3, Allow: int64(permissions.CapSendMessages)},
	}
	p := newChecker(r, nil)
	ctx := context.Background()

	// User 2 loses sending through the everyone deny.
	caps, err := p.Capabilities(ctx, 100, 200, 2)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if caps.Has(permissions.CapSendMessages) {
		t.Error("everyone deny should strip sending")
	}

	// User 3's user-level allow wins over the everyone deny.
	caps, err = p.Capabilities(ctx, 100, 200, 3)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if !caps.Has(permissions.CapSendMessages) {
		t.Error("user allow should restore sending")
	}
}

func TestRequireChannelCapabilityImpliesView(t *testing.T) {
	r := newPermRepos()
	r.overwrites[200] = []models.Overwrite{
		{ChannelID: 200, Target: models.OverwriteEveryone, Deny: int64(permissions.CapViewChannel)},
	}
	p := newChecker(r, nil)

	// User 3 still nominally holds SEND_MESSAGES, but without visibility
	// no channel action is permitted.
	err := p.RequireChannelCapability(context.Background(), 100, 200, 3, permissions.CapSendMessages)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func newTestCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redis.NewClientFromRedis(rdb)
}

func TestCapabilitiesCached(t *testing.T) {
	r := newPermRepos()
	p := newChecker(r, newTestCache(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		caps, err := p.Capabilities(ctx, 100, 200, 3)
		if err != nil {
			t.Fatalf("Capabilities: %v", err)
		}
		if caps != permissions.DefaultCapabilities {
			t.Errorf("caps = %v, want defaults", caps)
		}
	}
	if r.catalogLoads != 1 {
		t.Errorf("catalog loads = %d, want 1 (cached after first resolve)", r.catalogLoads)
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	r := newPermRepos()
	p := newChecker(r, newTestCache(t))
	ctx := context.Background()

	if _, err := p.Capabilities(ctx, 100, 200, 2); err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if r.catalogLoads != 1 {
		t.Fatalf("catalog loads = %d, want 1", r.catalogLoads)
	}

	// Revoke the role, bump the version, and the next resolve goes back
	// to the database and sees the change.
	r.members[2].Roles = nil
	p.Invalidate(ctx, 100)

	caps, err := p.Capabilities(ctx, 100, 200, 2)
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if r.catalogLoads != 2 {
		t.Errorf("catalog loads = %d, want 2 after invalidation", r.catalogLoads)
	}
	if caps.Has(permissions.CapManageChannel) {
		t.Error("stale mask served after invalidation")
	}
}
