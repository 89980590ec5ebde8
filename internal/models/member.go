package models

import "time"

type Member struct {
	ServerID int64     `json:"server_id,string"`
	UserID   int64     `json:"user_id,string"`
	Nickname *string   `json:"nickname,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
	// Roles holds the ids of roles assigned to this member. A referenced
	// role may have been deleted since assignment; resolution skips those.
	Roles []int64 `json:"roles"`
}
