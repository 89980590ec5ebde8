package permissions

import "github.com/avoronov/hearth/internal/models"

// ResolveBase computes server-level capabilities for a member from the roles
// they hold.
//  1. Start with DefaultCapabilities.
//  2. OR in the grant mask of every held role found in the catalog.
//
// Roles only ever grant: a role that doesn't mention a capability leaves it
// alone, so the union is commutative and adding a role can never turn a bit
// off. Held role ids missing from the catalog (role deleted after assignment)
// are skipped.
func ResolveBase(heldRoleIDs []int64, catalog map[int64]models.Role) Capability {
	caps := DefaultCapabilities
	for _, id := range heldRoleIDs {
		role, ok := catalog[id]
		if !ok {
			continue
		}
		caps = caps.Add(Capability(role.Permissions) & AllCapabilities)
	}
	return caps
}

// ApplyOverwrites layers a channel's overwrite rows on top of base
// capabilities. Three passes in increasing precedence:
//  1. @everyone rows (no role or user target)
//  2. rows targeting a role the member holds
//  3. rows targeting the member's user id
//
// Within each pass the allow masks of matching rows are ORed together and
// applied first, then the deny masks, so a deny beats an allow at the same
// tier. A capability bit set in neither mask is unset for that tier and
// inherits the value produced by the pass below it. Rows for other channels,
// unheld roles, or other users contribute nothing, as do undefined capability
// bits. With no matching rows the result is base unchanged, and reapplying
// the same rows is a no-op.
func ApplyOverwrites(base Capability, channelID, userID int64, heldRoleIDs []int64, rows []models.Overwrite) Capability {
	caps := base

	held := make(map[int64]bool, len(heldRoleIDs))
	for _, id := range heldRoleIDs {
		held[id] = true
	}

	var everyoneAllow, everyoneDeny Capability
	var roleAllow, roleDeny Capability
	var userAllow, userDeny Capability

	for _, row := range rows {
		if row.ChannelID != channelID {
			continue
		}
		allow := Capability(row.Allow) & AllCapabilities
		deny := Capability(row.Deny) & AllCapabilities

		switch row.Target {
		case models.OverwriteEveryone:
			everyoneAllow, everyoneDeny = everyoneAllow.Add(allow), everyoneDeny.Add(deny)
		case models.OverwriteRole:
			if held[row.TargetID] {
				roleAllow, roleDeny = roleAllow.Add(allow), roleDeny.Add(deny)
			}
		case models.OverwriteUser:
			if row.TargetID == userID {
				userAllow, userDeny = userAllow.Add(allow), userDeny.Add(deny)
			}
		}
	}

	caps = caps.Add(everyoneAllow).Remove(everyoneDeny)
	caps = caps.Add(roleAllow).Remove(roleDeny)
	caps = caps.Add(userAllow).Remove(userDeny)

	return caps
}

// ResolveForChannel computes the final capability set for a member in a
// channel: ResolveBase then ApplyOverwrites.
func ResolveForChannel(channelID, userID int64, heldRoleIDs []int64, catalog map[int64]models.Role, rows []models.Overwrite) Capability {
	base := ResolveBase(heldRoleIDs, catalog)
	return ApplyOverwrites(base, channelID, userID, heldRoleIDs, rows)
}

// Snapshot bundles one member's resolution inputs: their held roles, the
// server's role catalog, and the overwrite rows the caller fetched. It is
// built fresh per request from storage and never persisted. All methods are
// pure reads, so a Snapshot is safe to share across goroutines.
type Snapshot struct {
	UserID      int64
	ServerID    int64
	HeldRoleIDs []int64
	Roles       map[int64]models.Role
	Overwrites  []models.Overwrite
}

// Base returns the member's server-level capabilities before any channel
// overwrite is applied.
func (s Snapshot) Base() Capability {
	return ResolveBase(s.HeldRoleIDs, s.Roles)
}

// ForChannel returns the member's capabilities in the given channel.
func (s Snapshot) ForChannel(channelID int64) Capability {
	return ApplyOverwrites(s.Base(), channelID, s.UserID, s.HeldRoleIDs, s.Overwrites)
}

// Can reports whether the member holds c at server level. A false result
// is an ordinary denial, not an error.
func (s Snapshot) Can(c Capability) bool {
	return s.Base().Has(c)
}

// CanInChannel reports whether the member holds c in the given channel.
func (s Snapshot) CanInChannel(c Capability, channelID int64) bool {
	return s.ForChannel(channelID).Has(c)
}

// CanUseChannel reports whether the member holds c in the channel and can
// see the channel at all. Channel-scoped actions like sending or reacting
// should use this so a hidden channel denies everything.
func (s Snapshot) CanUseChannel(c Capability, channelID int64) bool {
	return s.ForChannel(channelID).Has(c | CapViewChannel)
}
