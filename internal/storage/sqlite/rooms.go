package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// querier is satisfied by both *sql.DB and *sql.Tx so room loading can be
// shared between plain reads and transactional updates.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CreateRoom persists a new room with its member list.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = models.RoomID(uuid.New().String())
	}
	if room.CreatedAt == 0 {
		room.CreatedAt = time.Now().Unix()
	}
	if room.Version == 0 {
		room.Version = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO rooms (id, name, admin_id, version, created_at) VALUES (?, ?, ?, ?, ?)",
		room.ID, room.Name, room.Admin, room.Version, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}

	if err := replaceMembers(ctx, tx, room); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRoom retrieves a room by ID with its ordered members and expense ids.
func (s *SQLiteStore) GetRoom(ctx context.Context, id models.RoomID) (*models.Room, error) {
	return loadRoom(ctx, s.db, id)
}

// ListRoomsFor retrieves all rooms the user currently belongs to.
func (s *SQLiteStore) ListRoomsFor(ctx context.Context, user models.UserID) ([]*models.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id FROM room_members WHERE user_id = ?
		 ORDER BY room_id`,
		user,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms for user: %w", err)
	}
	defer rows.Close()

	var ids []models.RoomID
	for rows.Next() {
		var id models.RoomID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room ids: %w", err)
	}

	rooms := make([]*models.Room, 0, len(ids))
	for _, id := range ids {
		room, err := loadRoom(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// AtomicUpdateRoom applies mutate to the freshly read room state under a
// version check, all inside one transaction. A concurrent mutation that
// already bumped the version makes this call fail with storage.ErrConflict
// without touching anything.
func (s *SQLiteStore) AtomicUpdateRoom(ctx context.Context, id models.RoomID, expectedVersion int64, mutate func(*models.Room) error) (*models.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	room, err := loadRoom(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if room.Version != expectedVersion {
		return nil, storage.ErrConflict
	}

	if err := mutate(room); err != nil {
		return nil, err
	}
	room.Version++

	res, err := tx.ExecContext(ctx,
		"UPDATE rooms SET name = ?, admin_id = ?, version = ? WHERE id = ? AND version = ?",
		room.Name, room.Admin, room.Version, room.ID, expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, storage.ErrConflict
	}

	if err := replaceMembers(ctx, tx, room); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return room, nil
}

// DeleteRoom removes the room; members, expenses, splits and settlements go
// with it via foreign key cascades. The version condition makes teardown
// lose to any concurrent mutation that got in first.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, id models.RoomID, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM rooms WHERE id = ? AND version = ?", id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		// Distinguish a vanished room from a version conflict.
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM rooms WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check room existence: %w", err)
		}
		return storage.ErrConflict
	}
	return nil
}

// loadRoom reads a room row plus its ordered members and expense ids.
func loadRoom(ctx context.Context, q querier, id models.RoomID) (*models.Room, error) {
	room := &models.Room{}
	err := q.QueryRowContext(ctx,
		"SELECT id, name, admin_id, version, created_at FROM rooms WHERE id = ?",
		id,
	).Scan(&room.ID, &room.Name, &room.Admin, &room.Version, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	memberRows, err := q.QueryContext(ctx,
		"SELECT user_id FROM room_members WHERE room_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get room members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var member models.UserID
		if err := memberRows.Scan(&member); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		room.Members = append(room.Members, member)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	expenseRows, err := q.QueryContext(ctx,
		"SELECT id FROM expenses WHERE room_id = ? ORDER BY created_at, id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense ids: %w", err)
	}
	defer expenseRows.Close()

	for expenseRows.Next() {
		var expenseID models.ExpenseID
		if err := expenseRows.Scan(&expenseID); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
		}
		room.ExpenseIDs = append(room.ExpenseIDs, expenseID)
	}
	if err := expenseRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense ids: %w", err)
	}

	return room, nil
}

// replaceMembers rewrites the room's member rows with join-order positions.
func replaceMembers(ctx context.Context, tx *sql.Tx, room *models.Room) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM room_members WHERE room_id = ?", room.ID); err != nil {
		return fmt.Errorf("failed to clear room members: %w", err)
	}
	for i, member := range room.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO room_members (room_id, user_id, position) VALUES (?, ?, ?)",
			room.ID, member, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert room member: %w", err)
		}
	}
	return nil
}
