package api

import (
	"net/http"

	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
)

type counterpartyPayload struct {
	User   models.UserID `json:"user"`
	Amount string        `json:"amount"`
}

type balancesResponse struct {
	ToReceive []counterpartyPayload `json:"to_receive"`
	ToPay     []counterpartyPayload `json:"to_pay"`
	Settled   []models.UserID       `json:"settled"`
}

type memberSummaryPayload struct {
	User models.UserID `json:"user"`
	Paid string        `json:"paid"`
	Owes string        `json:"owes"`
	Net  string        `json:"net"`
}

func toCounterparties(in []ledger.CounterpartyBalance) []counterpartyPayload {
	out := make([]counterpartyPayload, 0, len(in))
	for _, c := range in {
		out = append(out, counterpartyPayload{User: c.User, Amount: c.Amount.String()})
	}
	return out
}

// GetBalances handles GET /rooms/{roomID}/balances. It returns the caller's
// view: who owes them, whom they owe, and who is settled.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.rooms.GetBalances(r.Context(), middleware.GetUserID(r.Context()), roomID(r))
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	settled := make([]models.UserID, 0, len(balances.Settled))
	for _, c := range balances.Settled {
		settled = append(settled, c.User)
	}
	h.JSON(w, http.StatusOK, balancesResponse{
		ToReceive: toCounterparties(balances.ToReceive),
		ToPay:     toCounterparties(balances.ToPay),
		Settled:   settled,
	})
}

// GetRoomSummary handles GET /rooms/{roomID}/summary: paid, owed and net
// position for every current member, in join order.
func (h *Handler) GetRoomSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.rooms.GetRoomSummary(r.Context(), middleware.GetUserID(r.Context()), roomID(r))
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	resp := make([]memberSummaryPayload, 0, len(summary))
	for _, m := range summary {
		resp = append(resp, memberSummaryPayload{
			User: m.User,
			Paid: m.Paid.String(),
			Owes: m.Owes.String(),
			Net:  m.Net.String(),
		})
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"members": resp})
}
