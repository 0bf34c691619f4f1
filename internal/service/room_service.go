package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/membership"
	"github.com/splitledger/splitledger/internal/metrics"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// maxConflictRetries bounds how often a room mutation is replayed after an
// optimistic-concurrency collision before the conflict reaches the caller.
const maxConflictRetries = 3

// RoomService orchestrates room operations: it authorizes the caller,
// delegates to the membership state machine and the balance engine, and
// persists results through atomic store updates.
type RoomService struct {
	store storage.Store
}

// NewRoomService creates a new RoomService with the given storage backend.
func NewRoomService(store storage.Store) *RoomService {
	return &RoomService{store: store}
}

// CreateRoom creates a room with the actor as sole member and admin.
func (s *RoomService) CreateRoom(ctx context.Context, actor models.UserID, name string) (*models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errf(KindValidation, "room name must not be empty")
	}
	if len(name) > models.MaxRoomNameLength {
		return nil, errf(KindValidation, "room name must be at most %d characters", models.MaxRoomNameLength)
	}

	room := &models.Room{
		Name:    name,
		Admin:   actor,
		Members: []models.UserID{actor},
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		slog.Error("CreateRoom failed", "actor", actor, "error", err)
		return nil, wrap(KindInternal, err)
	}

	metrics.RoomsCreated.Inc()
	slog.Info("Room created", "room_id", room.ID, "admin", actor)
	return room, nil
}

// ListRooms returns every room the actor currently belongs to.
func (s *RoomService) ListRooms(ctx context.Context, actor models.UserID) ([]*models.Room, error) {
	rooms, err := s.store.ListRoomsFor(ctx, actor)
	if err != nil {
		slog.Error("ListRooms failed", "actor", actor, "error", err)
		return nil, wrap(KindInternal, err)
	}
	return rooms, nil
}

// RoomDetail is a room together with its expense history, most recent first.
type RoomDetail struct {
	Room     *models.Room
	Expenses []*models.Expense
}

// GetRoomDetail returns the room and, when withExpenses is set, its full
// expense list. Only members may view a room.
func (s *RoomService) GetRoomDetail(ctx context.Context, actor models.UserID, roomID models.RoomID, withExpenses bool) (*RoomDetail, error) {
	room, err := s.getMemberRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	detail := &RoomDetail{Room: room}
	if withExpenses {
		detail.Expenses, err = s.store.GetExpensesByRoom(ctx, roomID)
		if err != nil {
			slog.Error("GetRoomDetail: failed to load expenses", "room_id", roomID, "error", err)
			return nil, wrap(KindInternal, err)
		}
	}
	return detail, nil
}

// JoinRoom adds the actor to the room's member list, preserving join order.
func (s *RoomService) JoinRoom(ctx context.Context, actor models.UserID, roomID models.RoomID) (*models.Room, error) {
	room, err := s.updateRoom(ctx, roomID, func(r *models.Room) error {
		return membership.Join(r, actor)
	})
	if err != nil {
		if errors.Is(err, membership.ErrAlreadyMember) {
			return nil, wrap(KindValidation, err)
		}
		return nil, err
	}

	metrics.MembershipChanges.WithLabelValues("join").Inc()
	slog.Info("Member joined", "room_id", roomID, "user", actor)
	return room, nil
}

// LeaveRoom removes the actor from the room. When the actor is the last
// member this is the room's only deletion path: the room and all of its
// expenses are removed. When the departing actor is the admin, the
// next-oldest member takes over.
func (s *RoomService) LeaveRoom(ctx context.Context, actor models.UserID, roomID models.RoomID) error {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		room, err := s.store.GetRoom(ctx, roomID)
		if err != nil {
			return classifyStoreErr(err, roomID)
		}

		// Run the transition on a scratch copy to learn the outcome
		// before deciding between an update and a teardown.
		scratch := *room
		scratch.Members = append([]models.UserID(nil), room.Members...)
		outcome, err := membership.Leave(&scratch, actor)
		if err != nil {
			if errors.Is(err, membership.ErrNotMember) {
				return wrap(KindForbidden, err)
			}
			return wrap(KindInternal, err)
		}

		if outcome.RoomDeleted {
			// Conditional on the version we just read, so a join that
			// sneaks in forces a retry instead of being deleted with
			// the room.
			err = s.store.DeleteRoom(ctx, roomID, room.Version)
			if errors.Is(err, storage.ErrConflict) {
				metrics.ConflictRetries.Inc()
				continue
			}
			if err != nil {
				return classifyStoreErr(err, roomID)
			}
			metrics.RoomsDeleted.Inc()
			metrics.MembershipChanges.WithLabelValues("leave").Inc()
			slog.Info("Room deleted by last member leaving", "room_id", roomID, "user", actor)
			return nil
		}

		_, err = s.store.AtomicUpdateRoom(ctx, roomID, room.Version, func(r *models.Room) error {
			_, err := membership.Leave(r, actor)
			return err
		})
		if errors.Is(err, storage.ErrConflict) {
			metrics.ConflictRetries.Inc()
			continue
		}
		if err != nil {
			if errors.Is(err, membership.ErrNotMember) {
				return wrap(KindForbidden, err)
			}
			return classifyStoreErr(err, roomID)
		}

		metrics.MembershipChanges.WithLabelValues("leave").Inc()
		if outcome.AdminChanged {
			slog.Info("Admin left, succession applied",
				"room_id", roomID, "old_admin", actor, "new_admin", outcome.NewAdmin)
		} else {
			slog.Info("Member left", "room_id", roomID, "user", actor)
		}
		return nil
	}

	return errf(KindConflict, "room %s is being modified concurrently, retry", roomID)
}

// RenameRoom sets a new room name. Admin-only.
func (s *RoomService) RenameRoom(ctx context.Context, actor models.UserID, roomID models.RoomID, name string) (*models.Room, error) {
	room, err := s.updateRoom(ctx, roomID, func(r *models.Room) error {
		return membership.Rename(r, actor, name)
	})
	if err != nil {
		switch {
		case errors.Is(err, membership.ErrNotMember):
			return nil, wrap(KindForbidden, err)
		case errors.Is(err, membership.ErrNotAdmin):
			return nil, wrap(KindNotAdmin, err)
		case errors.Is(err, membership.ErrEmptyName), errors.Is(err, membership.ErrNameTooLong):
			return nil, wrap(KindValidation, err)
		}
		return nil, err
	}

	metrics.MembershipChanges.WithLabelValues("rename").Inc()
	slog.Info("Room renamed", "room_id", roomID, "name", room.Name)
	return room, nil
}

// ExpenseInput is the payload for RecordExpense. When Splits is empty the
// amount is divided evenly among Participants; otherwise Splits is used as
// given and Participants is ignored.
type ExpenseInput struct {
	PaidBy       models.UserID // defaults to the actor when empty
	Amount       decimal.Decimal
	Reason       string
	Participants []models.UserID
	Splits       []models.Split
}

// RecordExpense validates and appends an expense to the room. Validation
// failures reject the expense before anything is persisted.
func (s *RoomService) RecordExpense(ctx context.Context, actor models.UserID, roomID models.RoomID, input ExpenseInput) (*models.Expense, error) {
	room, err := s.getMemberRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	paidBy := input.PaidBy
	if paidBy == "" {
		paidBy = actor
	}
	if !room.IsMember(paidBy) {
		return nil, errf(KindValidation, "payer %s is not a room member", paidBy)
	}

	splits := input.Splits
	if len(splits) == 0 {
		splits, err = ledger.EqualShares(input.Amount, input.Participants)
		if err != nil {
			return nil, wrap(KindValidation, err)
		}
	}
	if err := ledger.ValidateSplits(input.Amount, splits); err != nil {
		return nil, wrap(KindValidation, err)
	}
	for _, split := range splits {
		if !room.IsMember(split.User) {
			return nil, errf(KindValidation, "split participant %s is not a room member", split.User)
		}
	}

	expense := &models.Expense{
		RoomID: roomID,
		PaidBy: paidBy,
		Amount: input.Amount,
		Reason: strings.TrimSpace(input.Reason),
		Splits: splits,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("RecordExpense failed", "room_id", roomID, "error", err)
		return nil, wrap(KindInternal, err)
	}

	metrics.ExpensesRecorded.Inc()
	slog.Info("Expense recorded",
		"room_id", roomID, "expense_id", expense.ID,
		"paid_by", paidBy, "amount", input.Amount, "splits", len(splits))
	return expense, nil
}

// ListExpenses returns the room's expenses, most recent first.
func (s *RoomService) ListExpenses(ctx context.Context, actor models.UserID, roomID models.RoomID) ([]*models.Expense, error) {
	if _, err := s.getMemberRoom(ctx, actor, roomID); err != nil {
		return nil, err
	}

	expenses, err := s.store.GetExpensesByRoom(ctx, roomID)
	if err != nil {
		slog.Error("ListExpenses failed", "room_id", roomID, "error", err)
		return nil, wrap(KindInternal, err)
	}
	return expenses, nil
}

// RecordSettlement records a direct repayment from the actor to another
// member, clearing debt outside of any expense.
func (s *RoomService) RecordSettlement(ctx context.Context, actor models.UserID, roomID models.RoomID, to models.UserID, amount decimal.Decimal, note string) (*models.Settlement, error) {
	room, err := s.getMemberRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, errf(KindValidation, "settlement amount must be positive, got %s", amount)
	}
	if to == actor {
		return nil, errf(KindValidation, "cannot settle with yourself")
	}
	if !room.IsMember(to) {
		return nil, errf(KindValidation, "payee %s is not a room member", to)
	}

	settlement := &models.Settlement{
		RoomID:   roomID,
		FromUser: actor,
		ToUser:   to,
		Amount:   amount,
		Note:     strings.TrimSpace(note),
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "room_id", roomID, "error", err)
		return nil, wrap(KindInternal, err)
	}

	metrics.SettlementsRecorded.Inc()
	slog.Info("Settlement recorded",
		"room_id", roomID, "from", actor, "to", to, "amount", amount)
	return settlement, nil
}

// GetBalances computes the actor's pairwise balances in the room: who owes
// them, whom they owe and who is settled. The result is a read-only
// snapshot of the expense set visible when the query began.
func (s *RoomService) GetBalances(ctx context.Context, actor models.UserID, roomID models.RoomID) (*ledger.UserBalances, error) {
	if _, err := s.getMemberRoom(ctx, actor, roomID); err != nil {
		return nil, err
	}

	expenses, settlements, err := s.loadLedger(ctx, roomID)
	if err != nil {
		return nil, err
	}

	metrics.BalanceQueries.Inc()
	return ledger.BalancesFor(actor, ledger.PairwiseBalances(expenses, settlements)), nil
}

// GetRoomSummary computes paid/owes/net for every current member, in join
// order. Users who left after contributing to expenses keep their effect on
// pairwise balances but are not listed here.
func (s *RoomService) GetRoomSummary(ctx context.Context, actor models.UserID, roomID models.RoomID) ([]ledger.MemberSummary, error) {
	room, err := s.getMemberRoom(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}

	expenses, settlements, err := s.loadLedger(ctx, roomID)
	if err != nil {
		return nil, err
	}

	summaries := ledger.Summarize(expenses, settlements)

	result := make([]ledger.MemberSummary, 0, len(room.Members))
	for _, member := range room.Members {
		if s, ok := summaries[member]; ok {
			result = append(result, *s)
		} else {
			result = append(result, ledger.MemberSummary{User: member})
		}
	}

	metrics.BalanceQueries.Inc()
	return result, nil
}

// getMemberRoom loads the room and verifies the actor is a member.
func (s *RoomService) getMemberRoom(ctx context.Context, actor models.UserID, roomID models.RoomID) (*models.Room, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, classifyStoreErr(err, roomID)
	}
	if !room.IsMember(actor) {
		return nil, errf(KindForbidden, "user %s is not a member of room %s", actor, roomID)
	}
	return room, nil
}

// loadLedger loads the full expense and settlement history for a room.
func (s *RoomService) loadLedger(ctx context.Context, roomID models.RoomID) ([]*models.Expense, []*models.Settlement, error) {
	expenses, err := s.store.GetExpensesByRoom(ctx, roomID)
	if err != nil {
		slog.Error("Failed to load expenses", "room_id", roomID, "error", err)
		return nil, nil, wrap(KindInternal, err)
	}
	settlements, err := s.store.ListSettlementsByRoom(ctx, roomID)
	if err != nil {
		slog.Error("Failed to load settlements", "room_id", roomID, "error", err)
		return nil, nil, wrap(KindInternal, err)
	}
	return expenses, settlements, nil
}

// updateRoom runs mutate through an atomic, version-checked store update,
// retrying on concurrent modification. Mutate errors pass through untouched
// for the caller to classify.
func (s *RoomService) updateRoom(ctx context.Context, roomID models.RoomID, mutate func(*models.Room) error) (*models.Room, error) {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		room, err := s.store.GetRoom(ctx, roomID)
		if err != nil {
			return nil, classifyStoreErr(err, roomID)
		}

		updated, err := s.store.AtomicUpdateRoom(ctx, roomID, room.Version, mutate)
		if errors.Is(err, storage.ErrConflict) {
			metrics.ConflictRetries.Inc()
			continue
		}
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, classifyStoreErr(err, roomID)
			}
			return nil, err
		}
		return updated, nil
	}

	return nil, errf(KindConflict, "room %s is being modified concurrently, retry", roomID)
}

// classifyStoreErr maps store errors onto the service taxonomy.
func classifyStoreErr(err error, roomID models.RoomID) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return errf(KindNotFound, "room %s not found", roomID)
	case errors.Is(err, storage.ErrConflict):
		return wrap(KindConflict, err)
	default:
		return wrap(KindInternal, err)
	}
}
