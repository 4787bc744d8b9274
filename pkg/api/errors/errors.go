package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propstack/buyerbase/pkg/models"
)

// ValidationError returns the field issues collected for a rejected record.
func ValidationError(c echo.Context, issues []models.FieldIssue) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid buyer data. Please check the highlighted fields.",
		Issues:  issues,
	})
}

// BadRequestError returns a generic bad request error
func BadRequestError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// RowErrorsResponse returns the per-row failures of a rejected import batch.
func RowErrorsResponse(c echo.Context, rows []models.RowError) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Some rows failed validation. No buyers were imported.",
		Rows:    rows,
	})
}

// BatchTooLargeError rejects an oversized import file.
func BatchTooLargeError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "batch_too_large",
		Message: message,
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// ForbiddenError returns a generic forbidden error
func ForbiddenError(c echo.Context) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "forbidden",
		Message: "You do not have permission to modify this buyer.",
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found.",
	})
}

// ConflictError reports a stale concurrency token.
func ConflictError(c echo.Context) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: "Record changed, please refresh.",
	})
}
