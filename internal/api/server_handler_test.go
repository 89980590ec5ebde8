package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/service"
)

func TestCreateServerSeedsDefaults(t *testing.T) {
	f := roleFixture()

	servers := f.serverRepo()
	var createdServer *models.Server
	servers.CreateFn = func(ctx context.Context, server *models.Server) error {
		createdServer = server
		return nil
	}
	channels := &mockChannelRepo{}
	var createdChannel *models.Channel
	channels.CreateFn = func(ctx context.Context, ch *models.Channel) error {
		createdChannel = ch
		return nil
	}
	members := f.memberRepo()
	var createdMember *models.Member
	members.CreateFn = func(ctx context.Context, member *models.Member) error {
		createdMember = member
		return nil
	}
	roles := f.roleRepo()
	var createdRole *models.Role
	roles.CreateFn = func(ctx context.Context, role *models.Role) error {
		createdRole = role
		return nil
	}

	svc := service.NewServerService(servers, channels, members, roles, testSnowflake(), f.checker())
	h := NewServerHandler(svc)

	body := `{"name":"my place"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/servers", strings.NewReader(body))
	setAuthUser(c, 7)

	if err := h.CreateServer(c); err != nil {
		t.Fatalf("CreateServer returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if createdServer == nil || createdServer.OwnerID != 7 {
		t.Fatalf("server = %+v", createdServer)
	}
	if createdChannel == nil || createdChannel.Name != "general" || createdChannel.Type != models.ChannelTypeText {
		t.Errorf("starter channel = %+v", createdChannel)
	}
	if createdMember == nil || createdMember.UserID != 7 {
		t.Errorf("owner member = %+v", createdMember)
	}
	if createdRole == nil || createdRole.Name != "Moderators" {
		t.Fatalf("moderator role = %+v", createdRole)
	}
	wantMod := int64(permissions.CapManageChannel | permissions.CapDeleteOthersMessages)
	if createdRole.Permissions != wantMod {
		t.Errorf("moderator permissions = %d, want %d", createdRole.Permissions, wantMod)
	}
}

func TestCreateServerNameTooShort(t *testing.T) {
	f := roleFixture()
	svc := service.NewServerService(f.serverRepo(), &mockChannelRepo{}, f.memberRepo(), f.roleRepo(), testSnowflake(), f.checker())
	h := NewServerHandler(svc)

	body := `{"name":"x"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/servers", strings.NewReader(body))
	setAuthUser(c, 7)

	if err := h.CreateServer(c); err != nil {
		t.Fatalf("CreateServer returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetServerNonMember(t *testing.T) {
	f := roleFixture()
	svc := service.NewServerService(f.serverRepo(), &mockChannelRepo{}, f.memberRepo(), f.roleRepo(), testSnowflake(), f.checker())
	h := NewServerHandler(svc)

	c, rec := newTestContext(http.MethodGet, "/api/v1/servers/100", nil)
	c.SetParamNames("id")
	c.SetParamValues("100")
	setAuthUser(c, 42)

	if err := h.GetServer(c); err != nil {
		t.Fatalf("GetServer returned error: %v", err)
	}
	// Non-members can't even learn the server exists.
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateServerAsModerator(t *testing.T) {
	f := roleFixture()
	servers := f.serverRepo()
	var updated *models.Server
	servers.UpdateFn = func(ctx context.Context, server *models.Server) error {
		updated = server
		return nil
	}
	svc := service.NewServerService(servers, &mockChannelRepo{}, f.memberRepo(), f.roleRepo(), testSnowflake(), f.checker())
	h := NewServerHandler(svc)

	body := `{"name":"renamed"}`
	c, rec := newTestContext(http.MethodPatch, "/api/v1/servers/100", strings.NewReader(body))
	c.SetParamNames("id")
	c.SetParamValues("100")
	setAuthUser(c, 2)

	if err := h.UpdateServer(c); err != nil {
		t.Fatalf("UpdateServer returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated == nil || updated.Name != "renamed" {
		t.Errorf("updated server = %+v", updated)
	}
}

func TestDeleteServerNotOwner(t *testing.T) {
	f := roleFixture()
	svc := service.NewServerService(f.serverRepo(), &mockChannelRepo{}, f.memberRepo(), f.roleRepo(), testSnowflake(), f.checker())
	h := NewServerHandler(svc)

	// Moderator capability is not enough to delete the server.
	c, rec := newTestContext(http.MethodDelete, "/api/v1/servers/100", nil)
	c.SetParamNames("id")
	c.SetParamValues("100")
	setAuthUser(c, 2)

	if err := h.DeleteServer(c); err != nil {
		t.Fatalf("DeleteServer returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}
