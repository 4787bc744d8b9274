package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propstack/buyerbase/pkg/api/errors"
	"github.com/propstack/buyerbase/pkg/buyers"
	"github.com/propstack/buyerbase/pkg/metrics"
	"github.com/propstack/buyerbase/pkg/models"
)

// historyPageSize is how many recent changes the detail view shows.
const historyPageSize = 5

// BuyerHandler handles buyer CRUD endpoints
type BuyerHandler struct {
	service   *buyers.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewBuyerHandler creates a new buyer handler
func NewBuyerHandler(service *buyers.Service, m *metrics.Metrics) *BuyerHandler {
	return &BuyerHandler{
		service:   service,
		metrics:   m,
		validator: validator.New(),
	}
}

// actorFromContext reads the authenticated identity set by the JWT middleware.
func actorFromContext(c echo.Context) (buyers.Actor, bool) {
	userID, ok := c.Get("user_id").(int)
	if !ok {
		return buyers.Actor{}, false
	}
	email, _ := c.Get("user_email").(string)
	return buyers.Actor{UserID: userID, Email: email}, true
}

// serviceError maps service failures onto the error taxonomy.
func (h *BuyerHandler) serviceError(c echo.Context, err error) error {
	var verr *buyers.ValidationError
	switch {
	case errors.As(err, &verr):
		return apierrors.ValidationError(c, verr.Issues)
	case errors.Is(err, buyers.ErrNotFound):
		return apierrors.NotFoundError(c)
	case errors.Is(err, buyers.ErrForbidden):
		return apierrors.ForbiddenError(c)
	case errors.Is(err, buyers.ErrConflict):
		if h.metrics != nil {
			h.metrics.UpdateConflicts.Inc()
		}
		return apierrors.ConflictError(c)
	default:
		return apierrors.InternalError(c, err)
	}
}

// List godoc
// @Summary List buyers
// @Description Search buyers with filters, sorting and pagination
// @Tags Buyers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param search query string false "Matches name, email or phone"
// @Param city query string false "City filter"
// @Param propertyType query string false "Property type filter"
// @Param status query string false "Status filter"
// @Param timeline query string false "Timeline filter"
// @Param sort query string false "Sort field (default updatedAt)"
// @Param order query string false "asc or desc (default desc)"
// @Success 200 {object} models.BuyerListResponse "Buyers"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /buyers [get]
func (h *BuyerHandler) List(c echo.Context) error {
	var req models.ListBuyersRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid query parameters")
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.BadRequestError(c, "Invalid sort or order parameter")
	}

	response, err := h.service.List(c.Request().Context(), req)
	if err != nil {
		return h.serviceError(c, err)
	}

	if h.metrics != nil {
		h.metrics.BuyersSearched.Inc()
	}
	return c.JSON(http.StatusOK, response)
}

// Create godoc
// @Summary Create a buyer
// @Description Create a new buyer lead owned by the caller
// @Tags Buyers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateBuyerRequest true "Buyer data"
// @Success 201 {object} models.Buyer "Created"
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /buyers [post]
func (h *BuyerHandler) Create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req models.CreateBuyerRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid request body")
	}

	buyer, err := h.service.Create(c.Request().Context(), req, actor)
	if err != nil {
		return h.serviceError(c, err)
	}

	if h.metrics != nil {
		h.metrics.BuyersCreated.Inc()
	}
	return c.JSON(http.StatusCreated, buyer)
}

// Get godoc
// @Summary Get a buyer
// @Tags Buyers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Buyer ID"
// @Success 200 {object} models.Buyer "Buyer"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /buyers/{id} [get]
func (h *BuyerHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apierrors.BadRequestError(c, "Invalid buyer ID")
	}

	buyer, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(http.StatusOK, buyer)
}

// Update godoc
// @Summary Update a buyer
// @Description Partial update with optimistic concurrency. Send the stored
// @Description version (or updatedAt) as the concurrency token.
// @Tags Buyers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Buyer ID"
// @Param request body models.UpdateBuyerRequest true "Changed fields plus token"
// @Success 200 {object} models.Buyer "Updated buyer"
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Failure 409 {object} models.ErrorResponse "Stale token"
// @Router /buyers/{id} [put]
func (h *BuyerHandler) Update(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apierrors.BadRequestError(c, "Invalid buyer ID")
	}

	var req models.UpdateBuyerRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid request body")
	}

	buyer, err := h.service.Update(c.Request().Context(), id, req, actor)
	if err != nil {
		return h.serviceError(c, err)
	}

	if h.metrics != nil {
		h.metrics.BuyersUpdated.Inc()
	}
	return c.JSON(http.StatusOK, buyer)
}

// UpdateStatus godoc
// @Summary Update buyer status
// @Description Quick status change from the listing view
// @Tags Buyers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Buyer ID"
// @Param request body models.UpdateStatusRequest true "New status"
// @Success 200 {object} models.Buyer "Updated buyer"
// @Failure 400 {object} models.ErrorResponse "Unknown status"
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /buyers/{id}/status [patch]
func (h *BuyerHandler) UpdateStatus(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apierrors.BadRequestError(c, "Invalid buyer ID")
	}

	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid request body")
	}

	buyer, err := h.service.UpdateStatus(c.Request().Context(), id, req.Status, actor)
	if err != nil {
		return h.serviceError(c, err)
	}

	if h.metrics != nil {
		h.metrics.BuyersUpdated.Inc()
	}
	return c.JSON(http.StatusOK, buyer)
}

// Delete godoc
// @Summary Delete a buyer
// @Description Remove a buyer and its change history
// @Tags Buyers
// @Security BearerAuth
// @Param id path int true "Buyer ID"
// @Success 204 "Deleted"
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /buyers/{id} [delete]
func (h *BuyerHandler) Delete(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apierrors.BadRequestError(c, "Invalid buyer ID")
	}

	if err := h.service.Delete(c.Request().Context(), id, actor); err != nil {
		return h.serviceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// History godoc
// @Summary Buyer change history
// @Description Recent change events for a buyer, newest first
// @Tags Buyers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Buyer ID"
// @Param limit query int false "Max entries (default 5, 0 for all)"
// @Success 200 {array} models.BuyerHistory "Change events"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /buyers/{id}/history [get]
func (h *BuyerHandler) History(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apierrors.BadRequestError(c, "Invalid buyer ID")
	}

	limit := historyPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return apierrors.BadRequestError(c, "Invalid limit")
		}
	}

	entries, err := h.service.History(c.Request().Context(), id, limit)
	if err != nil {
		return h.serviceError(c, err)
	}

	if entries == nil {
		entries = []models.BuyerHistory{}
	}
	return c.JSON(http.StatusOK, entries)
}
