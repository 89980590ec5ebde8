package permissions

import "strings"

// DecodeGrants maps a role's stored grant list to a capability mask. The
// legacy schema keeps role permissions as a free-text JSON array, so tokens
// that don't name a known capability are skipped rather than rejected. Call
// this at the storage boundary; the resolver only ever sees validated masks.
func DecodeGrants(tokens []string) Capability {
	var c Capability
	for _, t := range tokens {
		if bit, ok := ParseCapability(strings.TrimSpace(t)); ok {
			c = c.Add(bit)
		}
	}
	return c
}

// DecodeOverwriteTokens splits a stored overwrite token list into its allow
// and deny masks. Tokens have the form "allow:<capability>" or
// "deny:<capability>"; anything else, including tokens naming an unknown
// capability, contributes nothing. A capability present in neither mask is
// unset for that overwrite row.
func DecodeOverwriteTokens(tokens []string) (allow, deny Capability) {
	for _, t := range tokens {
		verb, name, found := strings.Cut(strings.TrimSpace(t), ":")
		if !found {
			continue
		}
		bit, ok := ParseCapability(name)
		if !ok {
			continue
		}
		switch verb {
		case "allow":
			allow = allow.Add(bit)
		case "deny":
			deny = deny.Add(bit)
		}
	}
	return allow, deny
}

// EncodeOverwriteTokens is the inverse of DecodeOverwriteTokens, producing
// the stored token form of an overwrite's allow and deny masks.
func EncodeOverwriteTokens(allow, deny Capability) []string {
	var tokens []string
	for bit := CapViewChannel; bit <= CapSendMedia; bit <<= 1 {
		if allow.Has(bit) {
			tokens = append(tokens, "allow:"+capNames[bit])
		}
		if deny.Has(bit) {
			tokens = append(tokens, "deny:"+capNames[bit])
		}
	}
	return tokens
}

// EncodeGrants returns the canonical token list for a capability mask,
// used when writing role grant arrays.
func EncodeGrants(c Capability) []string {
	var tokens []string
	for bit := CapViewChannel; bit <= CapSendMedia; bit <<= 1 {
		if c.Has(bit) {
			tokens = append(tokens, capNames[bit])
		}
	}
	return tokens
}
