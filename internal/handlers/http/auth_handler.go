package http

import (
	"net/http"
	"strings"
	"time"

	"parley/internal/core/domain"
	"parley/internal/core/ports"
	"parley/internal/core/services"
	"parley/internal/infrastructure/signal"
	"parley/pkg/errors"
	"parley/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler implements the account surface the signaling core delegates to:
// signup, signin, signout and current-user lookup. Identity reaches the
// WebSocket upgrade through the session cookie these handlers manage.
type AuthHandler struct {
	users         ports.UserRepository
	authService   services.AuthService
	secureCookies bool
}

func NewAuthHandler(users ports.UserRepository, authService services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		users:         users,
		authService:   authService,
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/users")
	{
		api.POST("/signup", h.SignUp)
		api.POST("/signin", h.SignIn)
		api.POST("/signout", h.SignOut)
		api.GET("/currentuser", h.CurrentUser)
	}
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req CredentialsRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validation.ValidateEmail(req.Email); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to hash password", http.StatusInternalServerError))
		return
	}

	user := &domain.User{
		ID:           domain.UserID(uuid.New().String()),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if err == domain.ErrEmailInUse {
			c.Error(errors.NewInvalidInputError("Email in use."))
			return
		}
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to create user", http.StatusInternalServerError))
		return
	}

	if err := h.setSession(c, user); err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to generate token", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	// Unknown email and bad password are indistinguishable to the caller.
	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.Error(errors.NewInvalidInputError("Authentication failed"))
		return
	}
	if !services.ComparePassword(req.Password, user.PasswordHash) {
		c.Error(errors.NewInvalidInputError("Authentication failed"))
		return
	}

	if err := h.setSession(c, user); err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to generate token", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	h.clearSession(c)
	c.JSON(http.StatusOK, gin.H{})
}

// CurrentUser reports the identity behind the session cookie, or null. Never
// an error: an absent or invalid token is an anonymous caller, not a fault.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"currentUser": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentUser": gin.H{
		"id":    userID,
		"email": c.GetString("email"),
	}})
}

func (h *AuthHandler) setSession(c *gin.Context, user *domain.User) error {
	token, err := h.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return err
	}
	if h.secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	}
	c.SetCookie(signal.SessionCookie, token, 0, "/", "", h.secureCookies, true)
	return nil
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	c.SetCookie(signal.SessionCookie, "", -1, "/", "", h.secureCookies, true)
}
