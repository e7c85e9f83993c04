package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

type SendRequestRequest struct {
	RequesteeID string `json:"requestee_id"`
}

type FriendshipResponse struct {
	Friendship *models.Friendship `json:"friendship"`
}

type FriendRequestsResponse struct {
	Requests []models.FriendRequest `json:"requests"`
	Pagination
}

type FriendListResponse struct {
	Friends []models.FriendWithAccount `json:"friends"`
	Pagination
}

type SentRequestsResponse struct {
	Sent []models.FriendWithAccount `json:"sent"`
	Pagination
}

// Create handles POST /api/friendships.
func (h *FriendHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	friendship, err := h.friendService.SendRequest(r.Context(), account.ID, req.RequesteeID)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{Friendship: req})
		return
	}

	writeJSON(w, http.StatusCreated, FriendshipResponse{Friendship: friendship})
}

// Accept handles PUT /api/friendships/{id}.
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.withFriendship(w, r, h.friendService.AcceptRequest)
}

// Remove handles DELETE /api/friendships/{id}. Either participant may remove
// a pending request or an accepted friendship.
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.withFriendship(w, r, h.friendService.RemoveFriendship)
}

// Get handles GET /api/friendships/{id}.
func (h *FriendHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withFriendship(w, r, h.friendService.GetFriendship)
}

type friendshipAction func(ctx context.Context, currentAccountID, friendshipID uuid.UUID) (*models.Friendship, error)

func (h *FriendHandler) withFriendship(w http.ResponseWriter, r *http.Request, action friendshipAction) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// Malformed ids cannot name a record.
	friendshipID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, services.ErrFriendshipNotFound.Message)
		return
	}

	friendship, err := action(r.Context(), account.ID, friendshipID)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{Friendship: friendship})
}

// ListRequests handles GET /api/friendships/requests.
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := parsePage(r)
	requests, total, err := h.friendService.ListPendingIncoming(r.Context(), account.ID, page.Number, page.Limit)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestsResponse{Requests: requests, Pagination: newPagination(page, total)})
}

// ListFriends handles GET /api/friendships.
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := parsePage(r)
	friends, total, err := h.friendService.ListFriends(r.Context(), account.ID, page.Number, page.Limit)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends, Pagination: newPagination(page, total)})
}

// ListSent handles GET /api/friendships/sent.
func (h *FriendHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := parsePage(r)
	sent, total, err := h.friendService.ListSentRequests(r.Context(), account.ID, page.Number, page.Limit)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	writeJSON(w, http.StatusOK, SentRequestsResponse{Sent: sent, Pagination: newPagination(page, total)})
}

// Relationship handles GET /api/accounts/{id}/friendship. The friendship is
// null when the two accounts have no relationship.
func (h *FriendHandler) Relationship(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	otherID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, services.ErrAccountNotFound.Message)
		return
	}

	friendship, err := h.friendService.FindRelationshipWith(r.Context(), account.ID, otherID)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{Friendship: friendship})
}
