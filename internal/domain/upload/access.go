package upload

import (
	"packetdrop/internal/config"
	"packetdrop/internal/domain"
)

// Policy decides what a caller may see. Admins (by stored role or by
// membership in the startup admin roster) see everything; other
// authenticated callers see only their own uploads; there is no anonymous
// read path at all.
type Policy struct {
	roster config.AdminRoster
}

func NewPolicy(roster config.AdminRoster) *Policy {
	return &Policy{roster: roster}
}

func (p *Policy) IsAdmin(c domain.Caller) bool {
	if !c.Authenticated() {
		return false
	}
	return c.Admin() || p.roster.Contains(c.UserID())
}

// ListFilter returns the owner filter for listing: nil (unfiltered) for
// admins, the caller's own id otherwise. ok is false for anonymous callers,
// which have no list view.
func (p *Policy) ListFilter(c domain.Caller) (ownerID *int64, ok bool) {
	if !c.Authenticated() {
		return nil, false
	}
	if p.IsAdmin(c) {
		return nil, true
	}
	id := c.UserID()
	return &id, true
}

// CanRead reports whether the caller may download the record. Denials must
// be surfaced exactly like a missing record; callers of CanRead map false
// to ErrNotFound.
func (p *Policy) CanRead(c domain.Caller, u *Upload) bool {
	if !c.Authenticated() {
		return false
	}
	if p.IsAdmin(c) {
		return true
	}
	return u.OwnerID != nil && *u.OwnerID == c.UserID()
}
