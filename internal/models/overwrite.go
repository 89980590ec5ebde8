package models

// OverwriteTarget names the principal an overwrite row applies to: the
// implicit @everyone, one role, or one user. Exactly one applies per row.
type OverwriteTarget string

const (
	OverwriteEveryone OverwriteTarget = "everyone"
	OverwriteRole     OverwriteTarget = "role"
	OverwriteUser     OverwriteTarget = "user"
)

// Overwrite is a channel-scoped tri-state adjustment: each capability bit is
// allowed (set in Allow), denied (set in Deny), or unset (in neither), in
// which case the row doesn't speak to that capability. TargetID is zero for
// @everyone rows. The write path keeps Allow and Deny disjoint and at most
// one row per (channel, target).
type Overwrite struct {
	ChannelID int64           `json:"channel_id,string"`
	Target    OverwriteTarget `json:"target"`
	TargetID  int64           `json:"target_id,string"`
	Allow     int64           `json:"allow,string"`
	Deny      int64           `json:"deny,string"`
}
