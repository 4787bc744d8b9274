package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propstack/buyerbase/pkg/api/errors"
	"github.com/propstack/buyerbase/pkg/phone"
)

// PhoneHandler exposes phone validation helpers used by the intake form.
type PhoneHandler struct{}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler() *PhoneHandler {
	return &PhoneHandler{}
}

type phoneRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

// Validate godoc
// @Summary Validate a phone number
// @Tags Phone
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body phoneRequest true "Phone number"
// @Success 200 {object} phone.ValidationResult "Validation result"
// @Failure 400 {object} models.ErrorResponse "Unparseable number"
// @Router /phone/validate [post]
func (h *PhoneHandler) Validate(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid request body")
	}

	result, err := phone.ValidatePhone(req.Phone, req.CountryCode)
	if err != nil {
		return apierrors.BadRequestError(c, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

// Normalize godoc
// @Summary Normalize a phone number to E.164
// @Tags Phone
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body phoneRequest true "Phone number"
// @Success 200 {object} map[string]string "Normalized number"
// @Failure 400 {object} models.ErrorResponse "Invalid number"
// @Router /phone/normalize [post]
func (h *PhoneHandler) Normalize(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid request body")
	}

	normalized, err := phone.NormalizePhone(req.Phone, req.CountryCode)
	if err != nil {
		return apierrors.BadRequestError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"phone": normalized})
}
