package permissions

import "strings"

// Capability is a bitfield representing a set of channel capabilities.
// Every capability is an independent bit: holding CapSendMessages does not
// imply CapViewChannel, callers check each bit they care about.
type Capability int64

const (
	CapViewChannel          Capability = 1 << 0
	CapReadHistory          Capability = 1 << 1
	CapSendMessages         Capability = 1 << 2
	CapEditOwnMessages      Capability = 1 << 3
	CapManageChannel        Capability = 1 << 4
	CapDeleteOthersMessages Capability = 1 << 5
	CapAddReactions         Capability = 1 << 6
	CapSendMedia            Capability = 1 << 7

	// AllDenied is the empty capability set.
	AllDenied Capability = 0

	// AllCapabilities is the union of every defined capability bit.
	AllCapabilities = CapViewChannel | CapReadHistory | CapSendMessages |
		CapEditOwnMessages | CapManageChannel | CapDeleteOthersMessages |
		CapAddReactions | CapSendMedia
)

// DefaultCapabilities is the baseline for an ordinary member with no roles:
// they can see the channel, read history, talk, react, and attach media,
// but cannot edit, manage, or moderate.
const DefaultCapabilities = CapViewChannel | CapReadHistory | CapSendMessages |
	CapAddReactions | CapSendMedia

// Has returns true if c contains all bits in other.
func (c Capability) Has(other Capability) bool { return c&other == other }

// Add returns c with the bits from other set.
func (c Capability) Add(other Capability) Capability { return c | other }

// Remove returns c with the bits from other cleared.
func (c Capability) Remove(other Capability) Capability { return c &^ other }

// capNames maps individual capability bits to their canonical names.
var capNames = map[Capability]string{
	CapViewChannel:          "VIEW_CHANNEL",
	CapReadHistory:          "READ_HISTORY",
	CapSendMessages:         "SEND_MESSAGES",
	CapEditOwnMessages:      "EDIT_OWN_MESSAGES",
	CapManageChannel:        "MANAGE_CHANNEL",
	CapDeleteOthersMessages: "DELETE_OTHERS_MESSAGES",
	CapAddReactions:         "ADD_REACTIONS",
	CapSendMedia:            "SEND_MEDIA",
}

// legacyNames maps the free-text tokens used by older stored grants to
// capability bits. Kept so old role rows keep resolving.
var legacyNames = map[string]Capability{
	"canView":         CapViewChannel,
	"canRead":         CapReadHistory,
	"canSend":         CapSendMessages,
	"canEdit":         CapEditOwnMessages,
	"canManage":       CapManageChannel,
	"canDeleteOthers": CapDeleteOthersMessages,
	"canReact":        CapAddReactions,
	"canMedia":        CapSendMedia,
}

var canonicalNames = func() map[string]Capability {
	m := make(map[string]Capability, len(capNames))
	for bit, name := range capNames {
		m[name] = bit
	}
	return m
}()

// ParseCapability resolves a capability token to its bit. It accepts both
// canonical names ("SEND_MESSAGES") and legacy free-text tokens ("canSend").
// Unknown tokens return (0, false) so callers can skip them.
func ParseCapability(token string) (Capability, bool) {
	if bit, ok := canonicalNames[token]; ok {
		return bit, true
	}
	if bit, ok := legacyNames[token]; ok {
		return bit, true
	}
	return 0, false
}

// String returns a human-readable representation of the capability set,
// listing set capability names separated by " | ".
func (c Capability) String() string {
	if c == 0 {
		return "NONE"
	}

	var names []string
	for bit := CapViewChannel; bit <= CapSendMedia; bit <<= 1 {
		if c.Has(bit) {
			names = append(names, capNames[bit])
		}
	}

	if len(names) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(names, " | ")
}
