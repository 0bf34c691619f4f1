package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRoomLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateRoom populates ID, version and timestamp", func(t *testing.T) {
		room := &models.Room{
			Name:    "Roommates",
			Admin:   "alice",
			Members: []models.UserID{"alice"},
		}

		if err := store.CreateRoom(ctx, room); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if room.ID == "" {
			t.Error("Expected room ID to be generated")
		}
		if room.Version != 1 {
			t.Errorf("Expected version 1, got %d", room.Version)
		}
		if room.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetRoom preserves member order", func(t *testing.T) {
		room := &models.Room{
			Name:    "Trip",
			Admin:   "alice",
			Members: []models.UserID{"alice", "bob", "carol"},
		}
		if err := store.CreateRoom(ctx, room); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}

		got, err := store.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		want := []models.UserID{"alice", "bob", "carol"}
		if len(got.Members) != len(want) {
			t.Fatalf("Members = %v, want %v", got.Members, want)
		}
		for i := range want {
			if got.Members[i] != want[i] {
				t.Errorf("Members[%d] = %s, want %s", i, got.Members[i], want[i])
			}
		}
	})

	t.Run("GetRoom returns ErrNotFound for missing room", func(t *testing.T) {
		_, err := store.GetRoom(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListRoomsFor tracks membership", func(t *testing.T) {
		room := &models.Room{
			Name:    "Lunch",
			Admin:   "dave",
			Members: []models.UserID{"dave", "erin"},
		}
		if err := store.CreateRoom(ctx, room); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}

		rooms, err := store.ListRoomsFor(ctx, "erin")
		if err != nil {
			t.Fatalf("ListRoomsFor failed: %v", err)
		}
		if len(rooms) != 1 || rooms[0].ID != room.ID {
			t.Errorf("ListRoomsFor(erin) = %v rooms, want the Lunch room", len(rooms))
		}

		rooms, err = store.ListRoomsFor(ctx, "nobody")
		if err != nil {
			t.Fatalf("ListRoomsFor failed: %v", err)
		}
		if len(rooms) != 0 {
			t.Errorf("ListRoomsFor(nobody) = %d rooms, want 0", len(rooms))
		}
	})
}

func TestAtomicUpdateRoom(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	newRoom := func(t *testing.T) *models.Room {
		t.Helper()
		room := &models.Room{
			Name:    "Trip",
			Admin:   "alice",
			Members: []models.UserID{"alice", "bob"},
		}
		if err := store.CreateRoom(ctx, room); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		return room
	}

	t.Run("successful update bumps version", func(t *testing.T) {
		room := newRoom(t)

		updated, err := store.AtomicUpdateRoom(ctx, room.ID, room.Version, func(r *models.Room) error {
			r.Members = append(r.Members, "carol")
			return nil
		})
		if err != nil {
			t.Fatalf("AtomicUpdateRoom failed: %v", err)
		}
		if updated.Version != room.Version+1 {
			t.Errorf("Version = %d, want %d", updated.Version, room.Version+1)
		}

		got, err := store.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if len(got.Members) != 3 || got.Members[2] != "carol" {
			t.Errorf("Members = %v, want carol appended", got.Members)
		}
	})

	t.Run("stale version returns ErrConflict", func(t *testing.T) {
		room := newRoom(t)

		_, err := store.AtomicUpdateRoom(ctx, room.ID, room.Version, func(r *models.Room) error {
			r.Name = "Renamed"
			return nil
		})
		if err != nil {
			t.Fatalf("first update failed: %v", err)
		}

		_, err = store.AtomicUpdateRoom(ctx, room.ID, room.Version, func(r *models.Room) error {
			r.Name = "Should not apply"
			return nil
		})
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}

		got, _ := store.GetRoom(ctx, room.ID)
		if got.Name != "Renamed" {
			t.Errorf("Name = %q, want the first update preserved", got.Name)
		}
	})

	t.Run("mutate error aborts without persisting", func(t *testing.T) {
		room := newRoom(t)

		wantErr := errors.New("validation failed")
		_, err := store.AtomicUpdateRoom(ctx, room.ID, room.Version, func(r *models.Room) error {
			r.Name = "Should not apply"
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("Expected mutate error, got %v", err)
		}

		got, _ := store.GetRoom(ctx, room.ID)
		if got.Name != "Trip" || got.Version != room.Version {
			t.Errorf("room changed after aborted mutate: name=%q version=%d", got.Name, got.Version)
		}
	})

	t.Run("concurrent updates serialize, exactly one wins per version", func(t *testing.T) {
		room := newRoom(t)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.AtomicUpdateRoom(ctx, room.ID, room.Version, func(r *models.Room) error {
					r.Name = "winner"
					return nil
				})
			}(i)
		}
		wg.Wait()

		var wins, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, storage.ErrConflict):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if wins != 1 || conflicts != attempts-1 {
			t.Errorf("wins = %d, conflicts = %d, want 1 and %d", wins, conflicts, attempts-1)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	room := &models.Room{
		Name:    "Dinner Club",
		Admin:   "alice",
		Members: []models.UserID{"alice", "bob"},
	}
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	t.Run("CreateExpense round-trips decimal amounts exactly", func(t *testing.T) {
		expense := &models.Expense{
			RoomID: room.ID,
			PaidBy: "alice",
			Amount: dec("33.33"),
			Reason: "sushi",
			Splits: []models.Split{
				{User: "alice", Amount: dec("16.67")},
				{User: "bob", Amount: dec("16.66")},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		expenses, err := store.GetExpensesByRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetExpensesByRoom failed: %v", err)
		}
		if len(expenses) != 1 {
			t.Fatalf("Expected 1 expense, got %d", len(expenses))
		}

		got := expenses[0]
		if !got.Amount.Equal(dec("33.33")) {
			t.Errorf("Amount = %s, want 33.33", got.Amount)
		}
		if got.Reason != "sushi" {
			t.Errorf("Reason = %q, want sushi", got.Reason)
		}
		if len(got.Splits) != 2 {
			t.Fatalf("Expected 2 splits, got %d", len(got.Splits))
		}
		if got.Splits[0].User != "alice" || !got.Splits[0].Amount.Equal(dec("16.67")) {
			t.Errorf("Splits[0] = %s %s, want alice 16.67", got.Splits[0].User, got.Splits[0].Amount)
		}
	})

	t.Run("expense ids appear on the room", func(t *testing.T) {
		got, err := store.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetRoom failed: %v", err)
		}
		if len(got.ExpenseIDs) != 1 {
			t.Errorf("ExpenseIDs = %v, want 1 entry", got.ExpenseIDs)
		}
	})

	t.Run("DeleteRoom rejects a stale version", func(t *testing.T) {
		if err := store.DeleteRoom(ctx, room.ID, room.Version+1); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict for stale version, got %v", err)
		}
	})

	t.Run("DeleteRoom cascades to expenses and splits", func(t *testing.T) {
		if err := store.DeleteRoom(ctx, room.ID, room.Version); err != nil {
			t.Fatalf("DeleteRoom failed: %v", err)
		}

		if _, err := store.GetRoom(ctx, room.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}

		expenses, err := store.GetExpensesByRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("GetExpensesByRoom failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("Expected 0 expenses after cascade, got %d", len(expenses))
		}
	})
}

func TestSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	room := &models.Room{
		Name:    "Flat",
		Admin:   "alice",
		Members: []models.UserID{"alice", "bob"},
	}
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	settlement := &models.Settlement{
		RoomID:   room.ID,
		FromUser: "bob",
		ToUser:   "alice",
		Amount:   dec("12.50"),
		Note:     "rent share",
	}
	if err := store.CreateSettlement(ctx, settlement); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	settlements, err := store.ListSettlementsByRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListSettlementsByRoom failed: %v", err)
	}
	if len(settlements) != 1 {
		t.Fatalf("Expected 1 settlement, got %d", len(settlements))
	}
	got := settlements[0]
	if got.FromUser != "bob" || got.ToUser != "alice" || !got.Amount.Equal(dec("12.50")) {
		t.Errorf("settlement = %+v, want bob->alice 12.50", got)
	}
	if got.Note != "rent share" {
		t.Errorf("Note = %q, want rent share", got.Note)
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail = %+v, want user %s", byEmail, user.ID)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Errorf("GetUserByID = %+v, want alice", byID)
	}

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown email, got %+v", missing)
	}

	if err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Impostor", "hash2")); err == nil {
		t.Error("Expected unique email violation, got nil")
	}
}
