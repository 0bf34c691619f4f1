package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/models"
)

type createRoomRequest struct {
	Name string `json:"name"`
}

type renameRoomRequest struct {
	Name string `json:"name"`
}

type roomResponse struct {
	ID        models.RoomID   `json:"id"`
	Name      string          `json:"name"`
	Admin     models.UserID   `json:"admin"`
	Members   []models.UserID `json:"members"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
}

type roomDetailResponse struct {
	roomResponse
	Expenses []expenseResponse `json:"expenses,omitempty"`
}

func toRoomResponse(room *models.Room) roomResponse {
	return roomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Admin:     room.Admin,
		Members:   room.Members,
		Version:   room.Version,
		CreatedAt: time.Unix(room.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

func roomID(r *http.Request) models.RoomID {
	return models.RoomID(chi.URLParam(r, "roomID"))
}

// CreateRoom handles POST /rooms.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.rooms.CreateRoom(r.Context(), middleware.GetUserID(r.Context()), req.Name)
	if err != nil {
		h.ServiceError(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, toRoomResponse(room))
}

// ListRooms handles GET /rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	resp := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, toRoomResponse(room))
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"rooms": resp})
}

// GetRoom handles GET /rooms/{roomID}. Pass ?expenses=true to include the
// expense history.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	withExpenses := r.URL.Query().Get("expenses") == "true"

	detail, err := h.rooms.GetRoomDetail(r.Context(), middleware.GetUserID(r.Context()), roomID(r), withExpenses)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	resp := roomDetailResponse{roomResponse: toRoomResponse(detail.Room)}
	for _, e := range detail.Expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	h.JSON(w, http.StatusOK, resp)
}

// JoinRoom handles POST /rooms/{roomID}/join.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.JoinRoom(r.Context(), middleware.GetUserID(r.Context()), roomID(r))
	if err != nil {
		h.ServiceError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toRoomResponse(room))
}

// LeaveRoom handles POST /rooms/{roomID}/leave.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.LeaveRoom(r.Context(), middleware.GetUserID(r.Context()), roomID(r)); err != nil {
		h.ServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameRoom handles PATCH /rooms/{roomID}.
func (h *Handler) RenameRoom(w http.ResponseWriter, r *http.Request) {
	var req renameRoomRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.rooms.RenameRoom(r.Context(), middleware.GetUserID(r.Context()), roomID(r), req.Name)
	if err != nil {
		h.ServiceError(w, err)
		return
	}
	h.JSON(w, http.StatusOK, toRoomResponse(room))
}
