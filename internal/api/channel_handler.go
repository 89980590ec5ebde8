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

// ChannelHandler handles channel endpoints.
type ChannelHandler struct {
	service *service.ChannelService
	perms   *service.PermissionChecker
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(svc *service.ChannelService, perms *service.PermissionChecker) *ChannelHandler {
	return &ChannelHandler{service: svc, perms: perms}
}

type createChannelRequest struct {
	Name     string             `json:"name"`
	Type     models.ChannelType `json:"type"`
	Topic    *string            `json:"topic,omitempty"`
	ParentID *int64             `json:"parent_id,string,omitempty"`
}

// CreateChannel handles POST /api/v1/servers/:id/channels.
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	userID := auth.GetUserID(c)

	ch, err := h.service.CreateChannel(c.Request().Context(), serverID, userID, req.Name, req.Type, req.Topic, req.ParentID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, ch)
}

// ListChannels handles GET /api/v1/servers/:id/channels.
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	channels, err := h.service.ListChannels(c.Request().Context(), serverID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, channels)
}

// GetChannel handles GET /api/v1/channels/:id.
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	userID := auth.GetUserID(c)

	ch, err := h.service.GetChannel(c.Request().Context(), channelID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, ch)
}

type updateChannelRequest struct {
	Name     *string `json:"name,omitempty"`
	Topic    *string `json:"topic,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// UpdateChannel handles PATCH /api/v1/channels/:id.
func (h *ChannelHandler) UpdateChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	var req updateChannelRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	userID := auth.GetUserID(c)

	ch, err := h.service.UpdateChannel(c.Request().Context(), channelID, userID, req.Name, req.Topic, req.Position)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, ch)
}

// DeleteChannel handles DELETE /api/v1/channels/:id.
func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	userID := auth.GetUserID(c)

	if err := h.service.DeleteChannel(c.Request().Context(), channelID, userID); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type capabilitiesResponse struct {
	Capabilities []string `json:"capabilities"`
}

// GetMyCapabilities handles GET /api/v1/channels/:id/capabilities. It returns
// the caller's effective capabilities in the channel as a token list, the
// same vocabulary the role and overwrite endpoints accept.
func (h *ChannelHandler) GetMyCapabilities(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	userID := auth.GetUserID(c)

	ch, err := h.service.GetChannel(c.Request().Context(), channelID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	caps, err := h.perms.Capabilities(c.Request().Context(), ch.ServerID, channelID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, capabilitiesResponse{
		Capabilities: permissions.EncodeGrants(caps),
	})
}
