package models

type ChannelType int

const (
	ChannelTypeText     ChannelType = 0
	ChannelTypeCategory ChannelType = 4
)

type Channel struct {
	ID       int64       `json:"id,string"`
	ServerID int64       `json:"server_id,string"`
	Name     string      `json:"name"`
	Type     ChannelType `json:"type"`
	Position int         `json:"position"`
	Topic    *string     `json:"topic,omitempty"`
	// ParentID points at a category channel. Categories only matter at the
	// write path (new channels copy the category's overwrites); resolution
	// never walks the parent chain.
	ParentID *int64 `json:"parent_id,string,omitempty"`
}
