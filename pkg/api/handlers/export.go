package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/propstack/buyerbase/pkg/api/errors"
	"github.com/propstack/buyerbase/pkg/buyers"
	"github.com/propstack/buyerbase/pkg/export"
	"github.com/propstack/buyerbase/pkg/metrics"
	"github.com/propstack/buyerbase/pkg/models"
)

// ExportHandler streams filtered buyer exports
type ExportHandler struct {
	service   *buyers.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewExportHandler creates a new export handler
func NewExportHandler(service *buyers.Service, m *metrics.Metrics) *ExportHandler {
	return &ExportHandler{
		service:   service,
		metrics:   m,
		validator: validator.New(),
	}
}

// Export godoc
// @Summary Export buyers
// @Description Download the filtered buyer list as CSV or Excel. The same
// @Description filters as the listing endpoint apply; pagination does not.
// @Tags Buyers
// @Produce text/csv
// @Security BearerAuth
// @Param format query string false "csv or excel (default csv)"
// @Param search query string false "Matches name, email or phone"
// @Param city query string false "City filter"
// @Param propertyType query string false "Property type filter"
// @Param status query string false "Status filter"
// @Param timeline query string false "Timeline filter"
// @Success 200 {file} file "Export file"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /buyers/export [get]
func (h *ExportHandler) Export(c echo.Context) error {
	var req models.ExportBuyersRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequestError(c, "Invalid query parameters")
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.BadRequestError(c, "Invalid format, sort or order parameter")
	}
	if req.Format == "" {
		req.Format = export.FormatCSV
	}

	buyersList, err := h.service.ListForExport(c.Request().Context(), req)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	filename := export.Filename(req.Format, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))

	if h.metrics != nil {
		h.metrics.ExportsCreated.Inc()
	}

	if req.Format == export.FormatExcel {
		c.Response().Header().Set(echo.HeaderContentType,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteExcel(c.Response(), buyersList)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteCSV(c.Response(), buyersList)
}
