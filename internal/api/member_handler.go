package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/service"
)

// MemberHandler handles member endpoints.
type MemberHandler struct {
	service *service.MemberService
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(svc *service.MemberService) *MemberHandler {
	return &MemberHandler{service: svc}
}

// JoinServer handles POST /api/v1/servers/:id/members/@me.
func (h *MemberHandler) JoinServer(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	member, err := h.service.JoinServer(c.Request().Context(), serverID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, member)
}

// ListMembers handles GET /api/v1/servers/:id/members.
func (h *MemberHandler) ListMembers(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	userID := auth.GetUserID(c)

	members, err := h.service.ListMembers(c.Request().Context(), serverID, userID, limit, offset)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, members)
}

// GetMember handles GET /api/v1/servers/:id/members/:user_id.
func (h *MemberHandler) GetMember(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	targetID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	callerID := auth.GetUserID(c)

	member, err := h.service.GetMember(c.Request().Context(), serverID, callerID, targetID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, member)
}

type updateSelfRequest struct {
	Nickname *string `json:"nickname,omitempty"`
}

// UpdateSelf handles PATCH /api/v1/servers/:id/members/@me.
func (h *MemberHandler) UpdateSelf(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req updateSelfRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	userID := auth.GetUserID(c)

	member, err := h.service.UpdateSelf(c.Request().Context(), serverID, userID, req.Nickname)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, member)
}

// KickMember handles DELETE /api/v1/servers/:id/members/:user_id.
func (h *MemberHandler) KickMember(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	targetID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	callerID := auth.GetUserID(c)

	if err := h.service.KickMember(c.Request().Context(), serverID, callerID, targetID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// LeaveServer handles DELETE /api/v1/servers/:id/members/@me.
func (h *MemberHandler) LeaveServer(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	if err := h.service.LeaveServer(c.Request().Context(), serverID, userID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
