package models

// Role is a server-scoped bundle of granted capabilities. Permissions is a
// capability mask decoded from the stored grant token array at the repository
// boundary; roles only ever grant, revocation happens through channel
// overwrites.
type Role struct {
	ID          int64  `json:"id,string"`
	ServerID    int64  `json:"server_id,string"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions int64  `json:"permissions,string"`
	Position    int    `json:"position"`
}
