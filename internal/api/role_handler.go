package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/models"
	"github.com/avoronov/hearth/internal/permissions"
	"github.com/avoronov/hearth/internal/service"
)

// RoleHandler handles role and channel overwrite endpoints. Capability sets
// cross the API as token lists ("SEND_MESSAGES" etc.), never raw masks.
type RoleHandler struct {
	service *service.RoleService
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// parseCapabilityTokens converts a token list into a mask, rejecting unknown
// tokens so capability typos surface as errors instead of silent no-ops.
func parseCapabilityTokens(tokens []string) (permissions.Capability, bool) {
	var mask permissions.Capability
	for _, tok := range tokens {
		c, ok := permissions.ParseCapability(tok)
		if !ok {
			return 0, false
		}
		mask = mask.Add(c)
	}
	return mask, true
}

type roleResponse struct {
	ID       int64    `json:"id,string"`
	ServerID int64    `json:"server_id,string"`
	Name     string   `json:"name"`
	Color    int      `json:"color"`
	Grants   []string `json:"grants"`
	Position int      `json:"position"`
}

func toRoleResponse(r *models.Role) roleResponse {
	return roleResponse{
		ID:       r.ID,
		ServerID: r.ServerID,
		Name:     r.Name,
		Color:    r.Color,
		Grants:   permissions.EncodeGrants(permissions.Capability(r.Permissions)),
		Position: r.Position,
	}
}

type createRoleRequest struct {
	Name     string   `json:"name"`
	Color    int      `json:"color"`
	Grants   []string `json:"grants"`
	Position int      `json:"position"`
}

// CreateRole handles POST /api/v1/servers/:id/roles.
func (h *RoleHandler) CreateRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	mask, ok := parseCapabilityTokens(req.Grants)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "UNKNOWN_CAPABILITY", "unknown capability token in grants")
	}

	actorID := auth.GetUserID(c)

	role, err := h.service.CreateRole(c.Request().Context(), serverID, actorID, req.Name, req.Color, int64(mask), req.Position)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, toRoleResponse(role))
}

// ListRoles handles GET /api/v1/servers/:id/roles.
func (h *RoleHandler) ListRoles(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	roles, err := h.service.ListRoles(c.Request().Context(), serverID)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleResponse(&roles[i]))
	}
	return c.JSON(http.StatusOK, out)
}

type updateRoleRequest struct {
	Name     *string   `json:"name,omitempty"`
	Color    *int      `json:"color,omitempty"`
	Grants   *[]string `json:"grants,omitempty"`
	Position *int      `json:"position,omitempty"`
}

// UpdateRole handles PATCH /api/v1/servers/:id/roles/:role_id.
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	var capMask *int64
	if req.Grants != nil {
		mask, ok := parseCapabilityTokens(*req.Grants)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, "UNKNOWN_CAPABILITY", "unknown capability token in grants")
		}
		m := int64(mask)
		capMask = &m
	}

	actorID := auth.GetUserID(c)

	role, err := h.service.UpdateRole(c.Request().Context(), serverID, actorID, roleID, req.Name, req.Color, capMask, req.Position)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// DeleteRole handles DELETE /api/v1/servers/:id/roles/:role_id.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.DeleteRole(c.Request().Context(), serverID, actorID, roleID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AssignRole handles PUT /api/v1/servers/:id/members/:user_id/roles/:role_id.
func (h *RoleHandler) AssignRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.AssignRole(c.Request().Context(), serverID, actorID, userID, roleID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RemoveRole handles DELETE /api/v1/servers/:id/members/:user_id/roles/:role_id.
func (h *RoleHandler) RemoveRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.RemoveRole(c.Request().Context(), serverID, actorID, userID, roleID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type overwriteResponse struct {
	ChannelID int64                  `json:"channel_id,string"`
	Target    models.OverwriteTarget `json:"target"`
	TargetID  int64                  `json:"target_id,string"`
	Allow     []string               `json:"allow"`
	Deny      []string               `json:"deny"`
}

func toOverwriteResponse(o *models.Overwrite) overwriteResponse {
	return overwriteResponse{
		ChannelID: o.ChannelID,
		Target:    o.Target,
		TargetID:  o.TargetID,
		Allow:     permissions.EncodeGrants(permissions.Capability(o.Allow)),
		Deny:      permissions.EncodeGrants(permissions.Capability(o.Deny)),
	}
}

type setOverwriteRequest struct {
	Target models.OverwriteTarget `json:"target"`
	Allow  []string               `json:"allow"`
	Deny   []string               `json:"deny"`
}

// SetOverwrite handles PUT /api/v1/channels/:id/permissions/:target_id.
// target_id is 0 for @everyone overwrites; the target kind comes in the body.
func (h *RoleHandler) SetOverwrite(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	targetID, err := strconv.ParseInt(c.Param("target_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid target id")
	}

	var req setOverwriteRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	allow, ok := parseCapabilityTokens(req.Allow)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "UNKNOWN_CAPABILITY", "unknown capability token in allow")
	}
	deny, ok := parseCapabilityTokens(req.Deny)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "UNKNOWN_CAPABILITY", "unknown capability token in deny")
	}

	actorID := auth.GetUserID(c)

	overwrite, err := h.service.SetOverwrite(c.Request().Context(), channelID, actorID, req.Target, targetID, allow, deny)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toOverwriteResponse(overwrite))
}

// DeleteOverwrite handles DELETE /api/v1/channels/:id/permissions/:target_id.
// The target kind comes from the "target" query parameter.
func (h *RoleHandler) DeleteOverwrite(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	targetID, err := strconv.ParseInt(c.Param("target_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid target id")
	}

	target := models.OverwriteTarget(c.QueryParam("target"))
	switch target {
	case models.OverwriteEveryone, models.OverwriteRole, models.OverwriteUser:
	default:
		return errorJSON(c, http.StatusBadRequest, "INVALID_TARGET", "target must be everyone, role, or user")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.DeleteOverwrite(c.Request().Context(), channelID, actorID, target, targetID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListOverwrites handles GET /api/v1/channels/:id/permissions.
func (h *RoleHandler) ListOverwrites(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	actorID := auth.GetUserID(c)

	overwrites, err := h.service.ListOverwrites(c.Request().Context(), channelID, actorID)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]overwriteResponse, 0, len(overwrites))
	for i := range overwrites {
		out = append(out, toOverwriteResponse(&overwrites[i]))
	}
	return c.JSON(http.StatusOK, out)
}
