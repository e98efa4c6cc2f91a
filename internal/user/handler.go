package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/techtern/backend/internal/auth"
	"github.com/techtern/backend/internal/transport"
	"github.com/techtern/backend/pkg/logger"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto SignupDTO) (*User, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*User, error)
	GetProfile(ctx context.Context, userID int64) (*User, error)
	UpdateProfile(ctx context.Context, userID int64, dto UpdateProfileDTO) (*User, error)
	ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) (*User, error)
	ListUsers(ctx context.Context, page, limit int) ([]*User, int64, int, int, error)
}

// TokenIssuer creates session credentials for freshly verified identities.
type TokenIssuer interface {
	IssueToken(userID int64, email, role string) (string, time.Time, error)
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	Tokens        TokenIssuer
	secureCookies bool
}

func NewHandler(service ServiceAPI, tokens TokenIssuer, secureCookies bool) *Handler {
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(logger.L()),
		Service:       service,
		Tokens:        tokens,
		secureCookies: secureCookies,
	}
}

type authResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    Summary `json:"user"`
	Token   string  `json:"token"`
}

type profileResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	User    Profile `json:"user"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token, expiresAt, err := h.Tokens.IssueToken(u.ID, u.Email, u.Role)
	if err != nil {
		h.Logger.Error("Signup: token issuance failed", "error", err, "user_id", u.ID)
		h.WriteError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, expiresAt, h.secureCookies))

	h.WriteJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "User registered successfully",
		User:    u.Summary(),
		Token:   token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token, expiresAt, err := h.Tokens.IssueToken(u.ID, u.Email, u.Role)
	if err != nil {
		h.Logger.Error("Login: token issuance failed", "error", err, "user_id", u.ID)
		h.WriteError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, expiresAt, h.secureCookies))

	h.WriteJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Login successful",
		User:    u.Summary(),
		Token:   token,
	})
}

// Logout clears the credential cookie. There is no server-side session
// state, so the operation is idempotent.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie())

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	u, err := h.Service.GetProfile(r.Context(), identity.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profileResponse{Success: true, User: u.Profile()})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var dto UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), identity.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profileResponse{
		Success: true,
		Message: "Profile updated successfully",
		User:    u.Profile(),
	})
}

// UpdatePassword rotates the hash and issues a fresh credential. The old
// credential is not revoked; there is no revocation list.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var dto ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.ChangePassword(r.Context(), identity.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	token, expiresAt, err := h.Tokens.IssueToken(u.ID, u.Email, u.Role)
	if err != nil {
		h.Logger.Error("UpdatePassword: token issuance failed", "error", err, "user_id", u.ID)
		h.WriteError(w, http.StatusInternalServerError, "Server error updating password")
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, expiresAt, h.secureCookies))

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated successfully",
		"token":   token,
	})
}

type listUsersResponse struct {
	Success    bool      `json:"success"`
	Count      int       `json:"count"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Users      []Profile `json:"users"`
}

// ListUsers is the admin-only paginated account listing.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, total, page, totalPages, err := h.Service.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}

	h.WriteJSON(w, http.StatusOK, listUsersResponse{
		Success:    true,
		Count:      len(profiles),
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		Users:      profiles,
	})
}
