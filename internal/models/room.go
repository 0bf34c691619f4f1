package models

// RoomID is an opaque identifier for a room.
type RoomID string

// MaxRoomNameLength bounds room names after trimming.
const MaxRoomNameLength = 100

// Room represents a group of users sharing expenses.
//
// Members is ordered by join time: Members[0] is the oldest surviving member.
// The ordering matters because admin succession is deterministic: when the
// admin leaves, the member at index 1 of the pre-leave list takes over.
//
// Invariant: Admin is always an element of Members while the room exists.
type Room struct {
	// ID is the unique identifier for the room (UUID format).
	ID RoomID

	// Name is the display name of the room (e.g., "Roommates", "Work Lunch").
	Name string

	// Admin is the member who controls admin-only operations such as rename.
	// Seeded with the creator; reassigned when the admin leaves.
	Admin UserID

	// Members is the ordered list of room members, oldest join first.
	Members []UserID

	// ExpenseIDs lists the room's expenses in creation order.
	ExpenseIDs []ExpenseID

	// Version is the optimistic-concurrency token. Every mutation of the
	// room document increments it; conditional updates check it.
	Version int64

	// CreatedAt is the Unix timestamp when the room was created.
	CreatedAt int64
}

// IsMember reports whether u is currently a member of the room.
func (r *Room) IsMember(u UserID) bool {
	for _, m := range r.Members {
		if m == u {
			return true
		}
	}
	return false
}

// IsAdmin reports whether u is the room's current admin.
func (r *Room) IsAdmin(u UserID) bool {
	return r.Admin == u
}

// MemberIndex returns the join-order index of u, or -1 if u is not a member.
func (r *Room) MemberIndex(u UserID) int {
	for i, m := range r.Members {
		if m == u {
			return i
		}
	}
	return -1
}
