package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/propstack/buyerbase/config"
	apierrors "github.com/propstack/buyerbase/pkg/api/errors"
	"github.com/propstack/buyerbase/pkg/auth"
	"github.com/propstack/buyerbase/pkg/metrics"
	"github.com/propstack/buyerbase/pkg/models"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	db        *gorm.DB
	config    *config.Config
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		db:        db,
		config:    cfg,
		metrics:   m,
		validator: validator.New(),
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password, returns a JWT
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse "Logged in"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid request body")
	}

	if err := h.validator.Struct(req); err != nil {
		return apierrors.BadRequestError(c, "Email and password are required")
	}

	var user models.User
	err := h.db.WithContext(c.Request().Context()).
		Where("email = ?", req.Email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.recordLogin(false)
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid email or password",
			})
		}
		return apierrors.InternalError(c, err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.recordLogin(false)
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		})
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	h.recordLogin(true)
	return c.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		User:  user,
	})
}

// Me godoc
// @Summary Current user
// @Description Return the authenticated user's profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "Current user"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.UnauthorizedError(c)
		}
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) recordLogin(success bool) {
	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(success)
	}
}
