package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/odinbook/internal/models"
	"github.com/HammerMeetNail/odinbook/internal/services"
)

type AuthHandler struct {
	accountService services.AccountServiceInterface
	tokenService   services.TokenServiceInterface
	friendService  services.FriendServiceInterface
}

func NewAuthHandler(accountService services.AccountServiceInterface, tokenService services.TokenServiceInterface, friendService services.FriendServiceInterface) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		tokenService:   tokenService,
		friendService:  friendService,
	}
}

type RegisterRequest struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountResponse struct {
	Account *models.Account `json:"account"`
}

type LoginResponse struct {
	JWT         string          `json:"jwt"`
	CurrentUser *models.Account `json:"current_user"`
}

// Register handles POST /api/accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.accountService.Register(r.Context(), services.RegisterParams{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		// Never echo credentials.
		echo := req
		echo.Password, echo.PasswordConfirmation = "", ""
		writeServiceError(w, r, err, ValidationErrorResponse{Account: echo})
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{Account: account})
}

// Login handles POST /api/auth/local.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	account, err := h.accountService.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	token, err := h.tokenService.Issue(account.ID)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{JWT: token, CurrentUser: account})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ids, err := h.friendService.FriendshipIDs(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, r, err, ValidationErrorResponse{})
		return
	}

	current := *account
	current.FriendshipIDs = ids
	writeJSON(w, http.StatusOK, AccountResponse{Account: &current})
}
