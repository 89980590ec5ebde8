package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/service"
)

// UploadHandler handles attachment upload endpoints.
type UploadHandler struct {
	service *service.UploadService
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// UploadAttachment handles POST /api/v1/channels/:id/attachments. Expects a
// multipart form with a "file" field; returns the stored attachment URL.
func (h *UploadHandler) UploadAttachment(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	userID := auth.GetUserID(c)

	url, err := h.service.UploadAttachment(c.Request().Context(), channelID, userID, fileHeader.Filename, fileHeader.Size, contentType, src)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, uploadResponse{URL: url})
}
