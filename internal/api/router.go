package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/redis"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Auth      *AuthHandler
	Servers   *ServerHandler
	Channels  *ChannelHandler
	Members   *MemberHandler
	Users     *UserHandler
	Messages  *MessageHandler
	Reactions *ReactionHandler
	Roles     *RoleHandler
	Uploads   *UploadHandler

	TokenService *auth.TokenService
	Redis        *redis.Client
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")

	// Auth routes: no auth middleware, stricter rate limit
	authGroup := v1.Group("/auth",
		RateLimitMiddleware(deps.Redis, 5, time.Minute),
	)
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)
	authGroup.POST("/refresh", deps.Auth.Refresh)

	// Protected routes: require JWT auth + general rate limit
	protected := v1.Group("", auth.Middleware(deps.TokenService),
		RateLimitMiddleware(deps.Redis, 50, time.Minute),
	)

	// Auth (protected)
	protected.POST("/auth/logout", deps.Auth.Logout)

	// Users
	protected.GET("/users/@me", deps.Users.GetMe)
	protected.PATCH("/users/@me", deps.Users.UpdateMe)
	protected.GET("/users/@me/servers", deps.Servers.ListMyServers)

	// Servers
	protected.POST("/servers", deps.Servers.CreateServer)
	protected.GET("/servers/:id", deps.Servers.GetServer)
	protected.PATCH("/servers/:id", deps.Servers.UpdateServer)
	protected.DELETE("/servers/:id", deps.Servers.DeleteServer)

	// Channels
	protected.POST("/servers/:id/channels", deps.Channels.CreateChannel)
	protected.GET("/servers/:id/channels", deps.Channels.ListChannels)
	protected.GET("/channels/:id", deps.Channels.GetChannel)
	protected.PATCH("/channels/:id", deps.Channels.UpdateChannel)
	protected.DELETE("/channels/:id", deps.Channels.DeleteChannel)
	protected.GET("/channels/:id/capabilities", deps.Channels.GetMyCapabilities)

	// Members
	protected.POST("/servers/:id/members/@me", deps.Members.JoinServer)
	protected.GET("/servers/:id/members", deps.Members.ListMembers)
	protected.GET("/servers/:id/members/:user_id", deps.Members.GetMember)
	protected.PATCH("/servers/:id/members/@me", deps.Members.UpdateSelf)
	protected.DELETE("/servers/:id/members/:user_id", deps.Members.KickMember)
	protected.DELETE("/servers/:id/members/@me", deps.Members.LeaveServer)

	// Roles
	protected.POST("/servers/:id/roles", deps.Roles.CreateRole)
	protected.GET("/servers/:id/roles", deps.Roles.ListRoles)
	protected.PATCH("/servers/:id/roles/:role_id", deps.Roles.UpdateRole)
	protected.DELETE("/servers/:id/roles/:role_id", deps.Roles.DeleteRole)
	protected.PUT("/servers/:id/members/:user_id/roles/:role_id", deps.Roles.AssignRole)
	protected.DELETE("/servers/:id/members/:user_id/roles/:role_id", deps.Roles.RemoveRole)

	// Channel permission overwrites
	protected.GET("/channels/:id/permissions", deps.Roles.ListOverwrites)
	protected.PUT("/channels/:id/permissions/:target_id", deps.Roles.SetOverwrite)
	protected.DELETE("/channels/:id/permissions/:target_id", deps.Roles.DeleteOverwrite)

	// Messages
	protected.POST("/channels/:id/messages", deps.Messages.SendMessage)
	protected.GET("/channels/:id/messages", deps.Messages.GetMessages)
	protected.GET("/channels/:id/messages/:message_id", deps.Messages.GetMessage)
	protected.PATCH("/channels/:id/messages/:message_id", deps.Messages.EditMessage)
	protected.DELETE("/channels/:id/messages/:message_id", deps.Messages.DeleteMessage)

	// Reactions
	protected.PUT("/channels/:id/messages/:message_id/reactions/:emoji", deps.Reactions.AddReaction)
	protected.DELETE("/channels/:id/messages/:message_id/reactions/:emoji", deps.Reactions.RemoveReaction)
	protected.GET("/channels/:id/messages/:message_id/reactions", deps.Reactions.GetReactions)

	// Attachments; absent when no object storage is configured.
	if deps.Uploads != nil {
		protected.POST("/channels/:id/attachments", deps.Uploads.UploadAttachment)
	}
}
