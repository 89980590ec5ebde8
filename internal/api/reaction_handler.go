package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/service"
)

// ReactionHandler handles reaction endpoints.
type ReactionHandler struct {
	service *service.ReactionService
}

// NewReactionHandler creates a ReactionHandler.
func NewReactionHandler(svc *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: svc}
}

func reactionParams(c echo.Context) (channelID, messageID int64, emoji string, err error) {
	channelID, err = strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, 0, "", err
	}
	messageID, err = strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		return 0, 0, "", err
	}
	// Emoji arrives percent-encoded in the path.
	emoji, err = url.PathUnescape(c.Param("emoji"))
	return channelID, messageID, emoji, err
}

// AddReaction handles PUT /api/v1/channels/:id/messages/:message_id/reactions/:emoji.
func (h *ReactionHandler) AddReaction(c echo.Context) error {
	channelID, messageID, emoji, err := reactionParams(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PARAMS", "invalid reaction parameters")
	}

	userID := auth.GetUserID(c)

	if err := h.service.AddReaction(c.Request().Context(), channelID, messageID, userID, emoji); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RemoveReaction handles DELETE /api/v1/channels/:id/messages/:message_id/reactions/:emoji.
func (h *ReactionHandler) RemoveReaction(c echo.Context) error {
	channelID, messageID, emoji, err := reactionParams(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PARAMS", "invalid reaction parameters")
	}

	userID := auth.GetUserID(c)

	if err := h.service.RemoveReaction(c.Request().Context(), channelID, messageID, userID, emoji); err != nil {
		return mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetReactions handles GET /api/v1/channels/:id/messages/:message_id/reactions.
func (h *ReactionHandler) GetReactions(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid message id")
	}

	userID := auth.GetUserID(c)

	counts, err := h.service.GetReactionCounts(c.Request().Context(), channelID, messageID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, counts)
}
