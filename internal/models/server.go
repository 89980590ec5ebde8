package models

import "time"

// Server is a community: the tenant boundary for channels, roles, and
// memberships. Roles and overwrites have no meaning outside their server.
type Server struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	IconHash  *string   `json:"icon_hash,omitempty"`
	OwnerID   int64     `json:"owner_id,string"`
	CreatedAt time.Time `json:"created_at"`
}
