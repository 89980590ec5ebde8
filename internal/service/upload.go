package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/avoronov/hearth/internal/database"
	"github.com/avoronov/hearth/internal/permissions"
)

const maxUploadSize = 10 << 20 // 10 MB

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
}

// FileStorage abstracts object storage operations for testability.
type FileStorage interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadService handles attachment upload business logic. Uploading into a
// channel requires the media capability there.
type UploadService struct {
	channels database.ChannelRepository
	storage  FileStorage
	perms    *PermissionChecker
}

// NewUploadService creates an UploadService.
func NewUploadService(
	channels database.ChannelRepository,
	storage FileStorage,
	perms *PermissionChecker,
) *UploadService {
	return &UploadService{
		channels: channels,
		storage:  storage,
		perms:    perms,
	}
}

// UploadAttachment uploads a file destined for a channel and returns its URL.
// The returned URL is attached to a message by a follow-up send.
func (s *UploadService) UploadAttachment(ctx context.Context, channelID, userID int64, filename string, size int64, contentType string, reader io.Reader) (string, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return "", Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return "", NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireChannelCapability(ctx, channel.ServerID, channelID, userID, permissions.CapSendMedia); err != nil {
		return "", err
	}

	if size > maxUploadSize {
		return "", BadRequest("FILE_TOO_LARGE", "file must be under 10 MB")
	}
	if !isAllowedContentType(contentType) {
		return "", BadRequest("INVALID_CONTENT_TYPE", "file type not allowed")
	}

	url, err := s.storage.Upload(ctx, filepath.Base(filename), reader, size, contentType)
	if err != nil {
		return "", NewError(ErrInternal, "UPLOAD_FAILED", "failed to upload file")
	}

	return url, nil
}

func isAllowedContentType(ct string) bool {
	if allowedContentTypes[ct] {
		return true
	}
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}
