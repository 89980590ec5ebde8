package database

import (
	"context"

	"github.com/avoronov/hearth/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id int64) (*models.Server, error)
	Update(ctx context.Context, server *models.Server) error
	Delete(ctx context.Context, id int64) error
	GetByUserID(ctx context.Context, userID int64) ([]models.Server, error)
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	GetByServerID(ctx context.Context, serverID int64) ([]models.Channel, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id int64) error
}

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetByServerID(ctx context.Context, serverID int64) ([]models.Role, error)
	// GetCatalog returns the server's roles keyed by id, the shape the
	// permission resolver consumes.
	GetCatalog(ctx context.Context, serverID int64) (map[int64]models.Role, error)
	GetByMember(ctx context.Context, serverID, userID int64) ([]models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id int64) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByServerAndUser(ctx context.Context, serverID, userID int64) (*models.Member, error)
	GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, serverID, userID int64) error
	AddRole(ctx context.Context, serverID, userID, roleID int64) error
	RemoveRole(ctx context.Context, serverID, userID, roleID int64) error
}

type OverwriteRepository interface {
	// Set upserts the single overwrite row for (channel, target); the write
	// path keeps one row per target so the resolver never sees duplicates.
	Set(ctx context.Context, overwrite *models.Overwrite) error
	GetByChannel(ctx context.Context, channelID int64) ([]models.Overwrite, error)
	Delete(ctx context.Context, channelID int64, target models.OverwriteTarget, targetID int64) error
	DeleteByChannel(ctx context.Context, channelID int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error)
	GetByChannelID(ctx context.Context, channelID int64, before *int64, limit int) ([]models.MessageWithAuthor, error)
	Update(ctx context.Context, msg *models.Message) error
	Delete(ctx context.Context, id int64) error
}

type ReactionRepository interface {
	Add(ctx context.Context, messageID, userID int64, emoji string) error
	Remove(ctx context.Context, messageID, userID int64, emoji string) error
	GetByMessage(ctx context.Context, messageID int64) ([]models.Reaction, error)
	GetCountsByMessage(ctx context.Context, messageID, currentUserID int64) ([]models.ReactionCount, error)
}
