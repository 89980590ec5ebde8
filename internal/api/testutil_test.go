package api

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/service"
	"github.com/avoronov/hearth/internal/snowflake"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID int64) {
	c.Set("user_id", userID)
}

func testSnowflake() *snowflake.Generator {
	sf, _ := snowflake.NewGenerator(1)
	return sf
}

// permsFixture wires a PermissionChecker over in-memory data, no cache.
// Tests describe the server, members, roles, and overwrites declaratively
// and get a checker that resolves against them.
type permsFixture struct {
	server     *models.Server
	members    map[int64]*models.Member
	roles      map[int64]models.Role
	overwrites map[int64][]models.Overwrite
}

func (f *permsFixture) serverRepo() *mockServerRepo {
	return &mockServerRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Server, error) {
			if f.server != nil && f.server.ID == id {
				return f.server, nil
			}
			return nil, nil
		},
	}
}

func (f *permsFixture) memberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		GetByServerAndUserFn: func(ctx context.Context, serverID, userID int64) (*models.Member, error) {
			if f.server == nil || f.server.ID != serverID {
				return nil, nil
			}
			return f.members[userID], nil
		},
	}
}

func (f *permsFixture) roleRepo() *mockRoleRepo {
	return &mockRoleRepo{
		GetCatalogFn: func(ctx context.Context, serverID int64) (map[int64]models.Role, error) {
			catalog := make(map[int64]models.Role, len(f.roles))
			for id, r := range f.roles {
				catalog[id] = r
			}
			return catalog, nil
		},
		GetByIDFn: func(ctx context.Context, id int64) (*models.Role, error) {
			if r, ok := f.roles[id]; ok {
				return &r, nil
			}
			return nil, nil
		},
		GetByMemberFn: func(ctx context.Context, serverID, userID int64) ([]models.Role, error) {
			member := f.members[userID]
			if member == nil {
				return nil, nil
			}
			var held []models.Role
			for _, id := range member.Roles {
				if r, ok := f.roles[id]; ok {
					held = append(held, r)
				}
			}
			return held, nil
		},
	}
}

func (f *permsFixture) overwriteRepo() *mockOverwriteRepo {
	return &mockOverwriteRepo{
		GetByChannelFn: func(ctx context.Context, channelID int64) ([]models.Overwrite, error) {
			return f.overwrites[channelID], nil
		},
	}
}

func (f *permsFixture) checker() *service.PermissionChecker {
	return service.NewPermissionChecker(f.serverRepo(), f.memberRepo(), f.roleRepo(), f.overwriteRepo(), nil)
}

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

// mockUserRepo implements database.UserRepository.
type mockUserRepo struct {
	CreateFn        func(ctx context.Context, user *models.User) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	UpdateFn        func(ctx context.Context, user *models.User) error
	DeleteFn        func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockServerRepo implements database.ServerRepository.
type mockServerRepo struct {
	CreateFn      func(ctx context.Context, server *models.Server) error
	GetByIDFn     func(ctx context.Context, id int64) (*models.Server, error)
	UpdateFn      func(ctx context.Context, server *models.Server) error
	DeleteFn      func(ctx context.Context, id int64) error
	GetByUserIDFn func(ctx context.Context, userID int64) ([]models.Server, error)
}

func (m *mockServerRepo) Create(ctx context.Context, server *models.Server) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, server)
	}
	return nil
}

func (m *mockServerRepo) GetByID(ctx context.Context, id int64) (*models.Server, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockServerRepo) Update(ctx context.Context, server *models.Server) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, server)
	}
	return nil
}

func (m *mockServerRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockServerRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Server, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, nil
}

// mockChannelRepo implements database.ChannelRepository.
type mockChannelRepo struct {
	CreateFn        func(ctx context.Context, channel *models.Channel) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.Channel, error)
	GetByServerIDFn func(ctx context.Context, serverID int64) ([]models.Channel, error)
	UpdateFn        func(ctx context.Context, channel *models.Channel) error
	DeleteFn        func(ctx context.Context, id int64) error
}

func (m *mockChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, channel)
	}
	return nil
}

func (m *mockChannelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockChannelRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Channel, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID)
	}
	return nil, nil
}

func (m *mockChannelRepo) Update(ctx context.Context, channel *models.Channel) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, channel)
	}
	return nil
}

func (m *mockChannelRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockRoleRepo implements database.RoleRepository.
type mockRoleRepo struct {
	CreateFn        func(ctx context.Context, role *models.Role) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.Role, error)
	GetByServerIDFn func(ctx context.Context, serverID int64) ([]models.Role, error)
	GetCatalogFn    func(ctx context.Context, serverID int64) (map[int64]models.Role, error)
	GetByMemberFn   func(ctx context.Context, serverID, userID int64) ([]models.Role, error)
	UpdateFn        func(ctx context.Context, role *models.Role) error
	DeleteFn        func(ctx context.Context, id int64) error
}

func (m *mockRoleRepo) Create(ctx context.Context, role *models.Role) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, role)
	}
	return nil
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRoleRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Role, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID)
	}
	return nil, nil
}

func (m *mockRoleRepo) GetCatalog(ctx context.Context, serverID int64) (map[int64]models.Role, error) {
	if m.GetCatalogFn != nil {
		return m.GetCatalogFn(ctx, serverID)
	}
	return map[int64]models.Role{}, nil
}

func (m *mockRoleRepo) GetByMember(ctx context.Context, serverID, userID int64) ([]models.Role, error) {
	if m.GetByMemberFn != nil {
		return m.GetByMemberFn(ctx, serverID, userID)
	}
	return nil, nil
}

func (m *mockRoleRepo) Update(ctx context.Context, role *models.Role) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, role)
	}
	return nil
}

func (m *mockRoleRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockMemberRepo implements database.MemberRepository.
type mockMemberRepo struct {
	CreateFn             func(ctx context.Context, member *models.Member) error
	GetByServerAndUserFn func(ctx context.Context, serverID, userID int64) (*models.Member, error)
	GetByServerIDFn      func(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error)
	UpdateFn             func(ctx context.Context, member *models.Member) error
	DeleteFn             func(ctx context.Context, serverID, userID int64) error
	AddRoleFn            func(ctx context.Context, serverID, userID, roleID int64) error
	RemoveRoleFn         func(ctx context.Context, serverID, userID, roleID int64) error
}

func (m *mockMemberRepo) Create(ctx context.Context, member *models.Member) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) GetByServerAndUser(ctx context.Context, serverID, userID int64) (*models.Member, error) {
	if m.GetByServerAndUserFn != nil {
		return m.GetByServerAndUserFn(ctx, serverID, userID)
	}
	return nil, nil
}

func (m *mockMemberRepo) GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID, limit, offset)
	}
	return nil, nil
}

func (m *mockMemberRepo) Update(ctx context.Context, member *models.Member) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) Delete(ctx context.Context, serverID, userID int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, serverID, userID)
	}
	return nil
}

func (m *mockMemberRepo) AddRole(ctx context.Context, serverID, userID, roleID int64) error {
	if m.AddRoleFn != nil {
		return m.AddRoleFn(ctx, serverID, userID, roleID)
	}
	return nil
}

func (m *mockMemberRepo) RemoveRole(ctx context.Context, serverID, userID, roleID int64) error {
	if m.RemoveRoleFn != nil {
		return m.RemoveRoleFn(ctx, serverID, userID, roleID)
	}
	return nil
}

// mockOverwriteRepo implements database.OverwriteRepository.
type mockOverwriteRepo struct {
	SetFn             func(ctx context.Context, overwrite *models.Overwrite) error
	GetByChannelFn    func(ctx context.Context, channelID int64) ([]models.Overwrite, error)
	DeleteFn          func(ctx context.Context, channelID int64, target models.OverwriteTarget, targetID int64) error
	DeleteByChannelFn func(ctx context.Context, channelID int64) error
}

func (m *mockOverwriteRepo) Set(ctx context.Context, overwrite *models.Overwrite) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, overwrite)
	}
	return nil
}

func (m *mockOverwriteRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.Overwrite, error) {
	if m.GetByChannelFn != nil {
		return m.GetByChannelFn(ctx, channelID)
	}
	return nil, nil
}

func (m *mockOverwriteRepo) Delete(ctx context.Context, channelID int64, target models.OverwriteTarget, targetID int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, channelID, target, targetID)
	}
	return nil
}

func (m *mockOverwriteRepo) DeleteByChannel(ctx context.Context, channelID int64) error {
	if m.DeleteByChannelFn != nil {
		return m.DeleteByChannelFn(ctx, channelID)
	}
	return nil
}

// mockMessageRepo implements database.MessageRepository.
type mockMessageRepo struct {
	CreateFn         func(ctx context.Context, msg *models.Message) error
	GetByIDFn        func(ctx context.Context, id int64) (*models.MessageWithAuthor, error)
	GetByChannelIDFn func(ctx context.Context, channelID int64, before *int64, limit int) ([]models.MessageWithAuthor, error)
	UpdateFn         func(ctx context.Context, msg *models.Message) error
	DeleteFn         func(ctx context.Context, id int64) error
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageRepo) GetByChannelID(ctx context.Context, channelID int64, before *int64, limit int) ([]models.MessageWithAuthor, error) {
	if m.GetByChannelIDFn != nil {
		return m.GetByChannelIDFn(ctx, channelID, before, limit)
	}
	return nil, nil
}

func (m *mockMessageRepo) Update(ctx context.Context, msg *models.Message) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockReactionRepo implements database.ReactionRepository.
type mockReactionRepo struct {
	AddFn                func(ctx context.Context, messageID, userID int64, emoji string) error
	RemoveFn             func(ctx context.Context, messageID, userID int64, emoji string) error
	GetByMessageFn       func(ctx context.Context, messageID int64) ([]models.Reaction, error)
	GetCountsByMessageFn func(ctx context.Context, messageID, currentUserID int64) ([]models.ReactionCount, error)
}

func (m *mockReactionRepo) Add(ctx context.Context, messageID, userID int64, emoji string) error {
	if m.AddFn != nil {
		return m.AddFn(ctx, messageID, userID, emoji)
	}
	return nil
}

func (m *mockReactionRepo) Remove(ctx context.Context, messageID, userID int64, emoji string) error {
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, messageID, userID, emoji)
	}
	return nil
}

func (m *mockReactionRepo) GetByMessage(ctx context.Context, messageID int64) ([]models.Reaction, error) {
	if m.GetByMessageFn != nil {
		return m.GetByMessageFn(ctx, messageID)
	}
	return nil, nil
}

func (m *mockReactionRepo) GetCountsByMessage(ctx context.Context, messageID, currentUserID int64) ([]models.ReactionCount, error) {
	if m.GetCountsByMessageFn != nil {
		return m.GetCountsByMessageFn(ctx, messageID, currentUserID)
	}
	return nil, nil
}

// mockFileStorage implements service.FileStorage.
type mockFileStorage struct {
	UploadFn func(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	DeleteFn func(ctx context.Context, key string) error
}

func (m *mockFileStorage) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, filename, reader, size, contentType)
	}
	return "", nil
}

func (m *mockFileStorage) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}
