package models

// Member is a participant of a group.
// UserID usually references a registered User, but groups may also carry
// members that never signed up (their ID is whatever the creator supplied).
type Member struct {
	UserID string
	Name   string
	Email  string
}

// Group is a set of members sharing a ledger.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	Description string

	// CreatedBy is the user ID of the creator. The creator can always read the
	// group, even after leaving its member list.
	CreatedBy string

	// Members in join order. Balance output follows this order.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member returns the member with the given user ID.
func (g *Group) Member(userID string) (Member, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// HasMember reports whether userID is in the member list.
func (g *Group) HasMember(userID string) bool {
	_, ok := g.Member(userID)
	return ok
}

// CanRead reports whether userID may see the group and its ledger.
func (g *Group) CanRead(userID string) bool {
	return userID != "" && (g.CreatedBy == userID || g.HasMember(userID))
}
