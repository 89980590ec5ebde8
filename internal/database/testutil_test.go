package database

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avoronov/hearth/internal/models"
)

// testPool returns a pgxpool.Pool connected to the test database.
// It skips the test if DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testIDCounter provides unique IDs across all tests in the package.
// Starts well above zero to avoid conflicts with any existing data.
var testIDCounter int64 = 100000

func nextID() int64 {
	return atomic.AddInt64(&testIDCounter, 1)
}

func createTestUser(t *testing.T, repo UserRepository) *models.User {
	t.Helper()
	user := &models.User{
		ID:           nextID(),
		Username:     fmt.Sprintf("testuser_%d", nextID()),
		DisplayName:  "Test User",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$abc$def",
		CreatedAt:    time.Now().Truncate(time.Microsecond),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), user.ID) })
	return user
}

func createTestServer(t *testing.T, repo ServerRepository, ownerID int64) *models.Server {
	t.Helper()
	server := &models.Server{
		ID:        nextID(),
		Name:      "Test Server",
		OwnerID:   ownerID,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	if err := repo.Create(context.Background(), server); err != nil {
		t.Fatalf("creating test server: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), server.ID) })
	return server
}

func createTestChannel(t *testing.T, repo ChannelRepository, serverID int64) *models.Channel {
	t.Helper()
	channel := &models.Channel{
		ID:       nextID(),
		ServerID: serverID,
		Name:     "test-channel",
		Type:     models.ChannelTypeText,
	}
	if err := repo.Create(context.Background(), channel); err != nil {
		t.Fatalf("creating test channel: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), channel.ID) })
	return channel
}

func createTestRole(t *testing.T, repo RoleRepository, serverID int64, permissions int64) *models.Role {
	t.Helper()
	role := &models.Role{
		ID:          nextID(),
		ServerID:    serverID,
		Name:        "test-role",
		Permissions: permissions,
		Position:    1,
	}
	if err := repo.Create(context.Background(), role); err != nil {
		t.Fatalf("creating test role: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), role.ID) })
	return role
}
