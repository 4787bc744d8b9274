package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/propstack/buyerbase/pkg/api/errors"
	"github.com/propstack/buyerbase/pkg/importer"
	"github.com/propstack/buyerbase/pkg/metrics"
	"github.com/propstack/buyerbase/pkg/models"
)

// ImportHandler handles bulk CSV imports
type ImportHandler struct {
	service *importer.Service
	metrics *metrics.Metrics
}

// NewImportHandler creates a new import handler
func NewImportHandler(service *importer.Service, m *metrics.Metrics) *ImportHandler {
	return &ImportHandler{service: service, metrics: m}
}

// Import godoc
// @Summary Import buyers from CSV
// @Description Upload a CSV of up to 200 buyers. The batch is all-or-nothing:
// @Description if any row fails validation, nothing is imported and the
// @Description per-row errors are returned.
// @Tags Buyers
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 200 {object} models.ImportResponse "Import summary"
// @Failure 400 {object} models.ErrorResponse "Row errors or oversized batch"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /buyers/import [post]
func (h *ImportHandler) Import(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apierrors.BadRequestError(c, "A CSV file is required in the 'file' field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apierrors.InternalError(c, err)
	}
	defer file.Close()

	count, err := h.service.ImportCSV(c.Request().Context(), file, actor)
	if err != nil {
		var rerr *importer.RowErrors
		switch {
		case errors.As(err, &rerr):
			return apierrors.RowErrorsResponse(c, rerr.Rows)
		case errors.Is(err, importer.ErrTooManyRows):
			return apierrors.BatchTooLargeError(c, err.Error())
		case errors.Is(err, importer.ErrNoRows), errors.Is(err, importer.ErrBadHeader):
			return apierrors.BadRequestError(c, err.Error())
		default:
			return apierrors.InternalError(c, err)
		}
	}

	if h.metrics != nil {
		h.metrics.BuyersImported.Add(float64(count))
	}
	return c.JSON(http.StatusOK, models.ImportResponse{Success: true, Count: count})
}
