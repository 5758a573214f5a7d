package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/middleware"
	"gameforge.gg/platform/pkg/logger"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login authenticates an admin panel user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.sendJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Email and password are required"})
		return
	}

	user, err := h.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			h.sendError(w, r, err)
			return
		}
		h.logger.Warn("Login failed - user not found", "email", logger.MaskEmail(req.Email))
		h.sendJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Invalid credentials"})
		return
	}

	if !user.IsActive {
		h.sendJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Account is disabled"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warn("Login failed - invalid password", "email", logger.MaskEmail(req.Email))
		h.sendJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Invalid credentials"})
		return
	}

	token, err := h.auth.IssueAdminToken(user.ID, user.Email, middleware.RoleAdmin)
	if err != nil {
		h.logger.Error("Failed to generate JWT", "error", err)
		h.sendJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to generate token"})
		return
	}

	if err := h.store.TouchAdminLogin(r.Context(), user.ID, h.now().UTC()); err != nil {
		h.logger.Warn("Failed to record login time", "user_id", user.ID, "error", err)
	}
	h.logger.Info("Admin logged in", "user_id", user.ID)

	h.sendJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token": token,
			"user": map[string]interface{}{
				"id":        user.ID,
				"email":     user.Email,
				"role":      middleware.RoleAdmin,
				"full_name": user.FullName,
			},
		},
	})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		h.sendJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Invalid token"})
		return
	}

	token, err := h.auth.IssueAdminToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		h.sendJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to refresh token"})
		return
	}

	h.sendJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"token": token},
	})
}

// ChangePassword lets a signed-in admin rotate their own password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.sendError(w, r, err)
		return
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		h.sendJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error(), Code: apperr.KindValidation.String()})
		return
	}

	user, err := h.store.GetAdminByEmail(r.Context(), claims.Email)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		h.sendJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Current password is incorrect"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.sendJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to process password"})
		return
	}
	if err := h.store.UpdateAdminPassword(r.Context(), user.ID, string(hashed)); err != nil {
		h.sendError(w, r, err)
		return
	}

	h.logger.Info("Admin password changed", "user_id", user.ID)
	h.sendJSON(w, http.StatusOK, Response{Success: true, Message: "Password updated"})
}
