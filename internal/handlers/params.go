// internal/handlers/params.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/querylab/internal/i18n"
	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/telemetry"
	"github.com/javajoker/querylab/internal/utils"
)

const dateOnly = "2006-01-02"

// parseID reads a positive integer path parameter. On failure it writes a 400 and returns false.
func parseID(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationID, resource), nil)
		return 0, false
	}
	return id, true
}

// parseDate accepts RFC3339 or a bare calendar date (midnight UTC). Empty means unset.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDateRange reads startDate and endDate. On failure it writes a 400 and returns false.
func parseDateRange(c *gin.Context) (services.DateRange, bool) {
	lang := utils.GetLangFromContext(c)

	var r services.DateRange
	for _, p := range []struct {
		name string
		dest **time.Time
	}{
		{"startDate", &r.Start},
		{"endDate", &r.End},
	} {
		t, err := parseDate(c.Query(p.name))
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationDate, p.name), gin.H{"value": c.Query(p.name)})
			return r, false
		}
		*p.dest = t
	}
	return r, true
}

func parseAmount(c *gin.Context, name string) (decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		return decimal.Zero, true
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), gin.H{"value": raw})
		return decimal.Zero, false
	}
	return amount, true
}

// handleServiceError maps service errors onto the API error responses.
func handleServiceError(c *gin.Context, err error) {
	var invalid *services.InvalidInputError
	var notFound *services.NotFoundError
	var missing *services.MissingReferenceError

	switch {
	case errors.As(err, &invalid):
		if len(invalid.Fields) > 0 {
			utils.ValidationErrorResponse(c, invalid.Fields)
			return
		}
		utils.BadRequestResponse(c, "", invalid.Reason)
	case errors.As(err, &notFound):
		utils.NotFoundResponse(c, notFound.Resource)
	case errors.As(err, &missing):
		utils.MissingReferenceResponse(c, missing.Resource, missing.ID)
	default:
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": telemetry.RequestID(c.Request.Context()),
		}).WithError(err).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}
