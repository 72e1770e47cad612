package handler

import (
	"net/http"

	"github.com/stocklot/stocklot-backend/internal/auth/service"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

// LoginRequest carries login credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service *service.AuthService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  log,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Me returns the authenticated user's identity from the token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"user_id": httputil.GetUserID(r.Context()),
		"name":    httputil.GetUserName(r.Context()),
		"role":    httputil.GetUserRole(r.Context()),
	})
}
