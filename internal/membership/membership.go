// Package membership implements the room membership state machine.
//
// Transitions are pure functions over a Room value: they validate the
// precondition, mutate the copy they are given and report what the caller
// must persist. The service layer runs each transition inside an atomic,
// version-checked store update so concurrent transitions never act on a
// stale member list.
package membership

import (
	"errors"
	"strings"

	"github.com/splitledger/splitledger/internal/models"
)

var (
	// ErrAlreadyMember is returned by Join when the user is already in the room.
	ErrAlreadyMember = errors.New("user is already a room member")

	// ErrNotMember is returned when the user is not in the room.
	ErrNotMember = errors.New("user is not a room member")

	// ErrNotAdmin is returned for admin-only transitions by non-admins.
	ErrNotAdmin = errors.New("only the room admin may do this")

	// ErrEmptyName is returned by Rename for a name that is empty after trimming.
	ErrEmptyName = errors.New("room name must not be empty")

	// ErrNameTooLong is returned by Rename for names over the length cap.
	ErrNameTooLong = errors.New("room name is too long")
)

// Join appends u to the room's member list, preserving join order for
// future admin succession.
func Join(room *models.Room, u models.UserID) error {
	if room.IsMember(u) {
		return ErrAlreadyMember
	}
	room.Members = append(room.Members, u)
	return nil
}

// LeaveOutcome reports what a Leave transition decided.
type LeaveOutcome struct {
	// RoomDeleted is true when the departing user was the sole member.
	// The caller must delete the room and all of its expenses; there is
	// no other deletion path.
	RoomDeleted bool

	// AdminChanged is true when the departing user was the admin and
	// another member took over.
	AdminChanged bool

	// NewAdmin is the successor when AdminChanged is true.
	NewAdmin models.UserID
}

// Leave removes u from the room.
//
// If u is the sole member, the room transitions to non-existence. If u is
// the admin and others remain, the member at index 1 of the pre-leave
// ordering (the next-oldest after the departing admin) becomes admin.
// The succession target is fixed; the departing admin does not choose.
func Leave(room *models.Room, u models.UserID) (LeaveOutcome, error) {
	idx := room.MemberIndex(u)
	if idx < 0 {
		return LeaveOutcome{}, ErrNotMember
	}

	if len(room.Members) == 1 {
		return LeaveOutcome{RoomDeleted: true}, nil
	}

	var outcome LeaveOutcome
	if room.IsAdmin(u) {
		outcome.AdminChanged = true
		outcome.NewAdmin = room.Members[1]
		room.Admin = outcome.NewAdmin
	}

	room.Members = append(room.Members[:idx], room.Members[idx+1:]...)
	return outcome, nil
}

// Rename sets the room's name. Only the current admin may rename; any other
// member fails with ErrNotAdmin, a distinct condition from not being a
// member at all.
func Rename(room *models.Room, actor models.UserID, newName string) error {
	if !room.IsMember(actor) {
		return ErrNotMember
	}
	if !room.IsAdmin(actor) {
		return ErrNotAdmin
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	if len(newName) > models.MaxRoomNameLength {
		return ErrNameTooLong
	}

	room.Name = newName
	return nil
}
