package database

import (
	"context"
	"testing"
	"time"

	"github.com/avoronov/hearth/internal/models"
)

func createTestMember(t *testing.T, repo MemberRepository, serverID, userID int64) *models.Member {
	t.Helper()
	member := &models.Member{
		ServerID: serverID,
		UserID:   userID,
		JoinedAt: time.Now().Truncate(time.Microsecond),
	}
	if err := repo.Create(context.Background(), member); err != nil {
		t.Fatalf("creating test member: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), serverID, userID) })
	return member
}

func TestMemberRepo_GetByServerAndUser(t *testing.T) {
	pool := testPool(t)
	userRepo := NewUserRepository(pool)
	serverRepo := NewServerRepository(pool)
	repo := NewMemberRepository(pool)
	ctx := context.Background()

	owner := createTestUser(t, userRepo)
	server := createTestServer(t, serverRepo, owner.ID)
	user := createTestUser(t, userRepo)
	createTestMember(t, repo, server.ID, user.ID)

	got, err := repo.GetByServerAndUser(ctx, server.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByServerAndUser: %v", err)
	}
	if got == nil {
		t.Fatal("expected member, got nil")
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, user.ID)
	}
	if len(got.Roles) != 0 {
		t.Errorf("expected no roles, got %v", got.Roles)
	}
}

func TestMemberRepo_GetByServerAndUser_NotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewMemberRepository(pool)
	ctx := context.Background()

	got, err := repo.GetByServerAndUser(ctx, 999999999, 999999998)
	if err != nil {
		t.Fatalf("GetByServerAndUser: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestMemberRepo_AddRemoveRole(t *testing.T) {
	pool := testPool(t)
	userRepo := NewUserRepository(pool)
	serverRepo := NewServerRepository(pool)
	roleRepo := NewRoleRepository(pool)
	repo := NewMemberRepository(pool)
	ctx := context.Background()

	owner := createTestUser(t, userRepo)
	server := createTestServer(t, serverRepo, owner.ID)
	user := createTestUser(t, userRepo)
	createTestMember(t, repo, server.ID, user.ID)
	role := createTestRole(t, roleRepo, server.ID, 0)

	if err := repo.AddRole(ctx, server.ID, user.ID, role.ID); err != nil {
		t.Fatalf("AddRole: %v", err)
	}
	// Adding the same role twice is a no-op, not an error.
	if err := repo.AddRole(ctx, server.ID, user.ID, role.ID); err != nil {
		t.Fatalf("AddRole (duplicate): %v", err)
	}

	got, err := repo.GetByServerAndUser(ctx, server.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByServerAndUser: %v", err)
	}
	if len(got.Roles) != 1 || got.Roles[0] != role.ID {
		t.Errorf("Roles = %v, want [%d]", got.Roles, role.ID)
	}

	if err := repo.RemoveRole(ctx, server.ID, user.ID, role.ID); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	got, err = repo.GetByServerAndUser(ctx, server.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByServerAndUser: %v", err)
	}
	if len(got.Roles) != 0 {
		t.Errorf("expected no roles after RemoveRole, got %v", got.Roles)
	}
}
