// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitledger/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by AtomicUpdateRoom when the room's version
	// no longer matches the expected one. Callers recover by re-reading
	// the room and retrying the mutation.
	ErrConflict = errors.New("room version conflict")
)

// Store defines the interface for ledger storage operations. The abstraction
// allows swapping storage backends (SQLite, PostgreSQL, etc.) without
// changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	// Returns (nil, nil) if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id.
	// Returns (nil, nil) if no such user exists.
	GetUserByID(ctx context.Context, id models.UserID) (*models.User, error)

	// CreateRoom persists a new room, including its member list.
	// The room.ID and room.CreatedAt fields are populated by the store.
	CreateRoom(ctx context.Context, room *models.Room) error

	// GetRoom retrieves a room with its ordered member list and expense
	// ids. Returns ErrNotFound if the room does not exist.
	GetRoom(ctx context.Context, id models.RoomID) (*models.Room, error)

	// ListRoomsFor retrieves every room the user is currently a member of.
	// The membership rows double as the user's room index, so this view is
	// always consistent with Room.Members.
	ListRoomsFor(ctx context.Context, user models.UserID) ([]*models.Room, error)

	// AtomicUpdateRoom re-reads the room inside a transaction, verifies its
	// version still equals expectedVersion, applies mutate and persists the
	// result with an incremented version. Returns ErrConflict on a version
	// mismatch and ErrNotFound if the room is gone. The room passed to
	// mutate is the freshly read state, never the caller's stale copy.
	AtomicUpdateRoom(ctx context.Context, id models.RoomID, expectedVersion int64, mutate func(*models.Room) error) (*models.Room, error)

	// DeleteRoom removes the room and cascades to its members, expenses,
	// splits and settlements. The delete is conditional on the room's
	// version so a teardown cannot race a concurrent join: a version
	// mismatch returns ErrConflict, a missing room ErrNotFound.
	DeleteRoom(ctx context.Context, id models.RoomID, expectedVersion int64) error

	// CreateExpense persists an expense together with all of its splits as
	// a single atomic append to the room's expense set. The expense.ID and
	// expense.CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpensesByRoom retrieves a room's expenses with splits resolved,
	// most recent first.
	GetExpensesByRoom(ctx context.Context, roomID models.RoomID) ([]*models.Expense, error)

	// CreateSettlement persists a settlement. The settlement.ID and
	// settlement.CreatedAt fields are populated by the store.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByRoom retrieves a room's settlements, most recent first.
	ListSettlementsByRoom(ctx context.Context, roomID models.RoomID) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
