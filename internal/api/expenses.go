package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/service"
)

type splitPayload struct {
	User   models.UserID `json:"user"`
	Amount string        `json:"amount"`
}

type recordExpenseRequest struct {
	PaidBy       models.UserID   `json:"paid_by,omitempty"`
	Amount       string          `json:"amount"`
	Reason       string          `json:"reason,omitempty"`
	Participants []models.UserID `json:"participants,omitempty"`
	Splits       []splitPayload  `json:"splits,omitempty"`
}

type expenseResponse struct {
	ID        models.ExpenseID `json:"id"`
	PaidBy    models.UserID    `json:"paid_by"`
	Amount    string           `json:"amount"`
	Reason    string           `json:"reason,omitempty"`
	Splits    []splitPayload   `json:"splits"`
	CreatedAt string           `json:"created_at"`
}

type recordSettlementRequest struct {
	To     models.UserID `json:"to"`
	Amount string        `json:"amount"`
	Note   string        `json:"note,omitempty"`
}

type settlementResponse struct {
	ID        models.SettlementID `json:"id"`
	From      models.UserID       `json:"from"`
	To        models.UserID       `json:"to"`
	Amount    string              `json:"amount"`
	Note      string              `json:"note,omitempty"`
	CreatedAt string              `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	splits := make([]splitPayload, 0, len(e.Splits))
	for _, s := range e.Splits {
		splits = append(splits, splitPayload{User: s.User, Amount: s.Amount.String()})
	}
	return expenseResponse{
		ID:        e.ID,
		PaidBy:    e.PaidBy,
		Amount:    e.Amount.String(),
		Reason:    e.Reason,
		Splits:    splits,
		CreatedAt: time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

// RecordExpense handles POST /rooms/{roomID}/expenses.
func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var req recordExpenseRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	input := service.ExpenseInput{
		PaidBy:       req.PaidBy,
		Amount:       amount,
		Reason:       req.Reason,
		Participants: req.Participants,
	}
	for _, s := range req.Splits {
		share, err := decimal.NewFromString(s.Amount)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid split amount")
			return
		}
		input.Splits = append(input.Splits, models.Split{User: s.User, Amount: share})
	}

	expense, err := h.rooms.RecordExpense(r.Context(), middleware.GetUserID(r.Context()), roomID(r), input)
	if err != nil {
		h.ServiceError(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// ListExpenses handles GET /rooms/{roomID}/expenses.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.rooms.ListExpenses(r.Context(), middleware.GetUserID(r.Context()), roomID(r))
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, toExpenseResponse(e))
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"expenses": resp})
}

// RecordSettlement handles POST /rooms/{roomID}/settlements.
func (h *Handler) RecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req recordSettlementRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	settlement, err := h.rooms.RecordSettlement(
		r.Context(), middleware.GetUserID(r.Context()), roomID(r), req.To, amount, req.Note)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, settlementResponse{
		ID:        settlement.ID,
		From:      settlement.FromUser,
		To:        settlement.ToUser,
		Amount:    settlement.Amount.String(),
		Note:      settlement.Note,
		CreatedAt: time.Unix(settlement.CreatedAt, 0).UTC().Format(time.RFC3339),
	})
}
