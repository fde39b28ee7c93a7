package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg"
	"github.com/akinalp/cordlite/pkg/ratelimit"
	"github.com/akinalp/cordlite/services"
)

type AuthHandler struct {
	authService  services.AuthService
	loginLimiter ratelimit.LoginLimiter
}

// NewAuthHandler takes an optional login limiter; nil disables it.
func NewAuthHandler(authService services.AuthService, loginLimiter ratelimit.LoginLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, loginLimiter: loginLimiter}
}

type authResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
	Token   string      `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    res.User,
		Token:   res.Token,
	})
}

// Login handles POST /api/auth/login. Attempts are counted per client IP; a
// successful login clears the counter.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("Too many login attempts, please try again in %s", ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    res.User,
		Token:   res.Token,
	})
}

// Logout handles POST /api/auth/logout. Tokens are not stored, so there is
// nothing to revoke; the client drops its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	user.PasswordHash = ""

	pkg.JSON(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateMe handles PUT /api/auth/me with a partial {username, avatar_url}.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var patch models.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), claims.UserID, &patch)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	user.PasswordHash = ""

	pkg.JSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
