package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/reparto-ops/dispatch-backend/internal/services"
)

// ReportHandler serves rankings and dispatch-history exports
type ReportHandler struct {
	ranking *services.RankingService
	export  *services.ExportService
	loc     *time.Location
}

// NewReportHandler creates a new report handler
func NewReportHandler(ranking *services.RankingService, export *services.ExportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{
		ranking: ranking,
		export:  export,
		loc:     loc,
	}
}

// GetRanking returns the daily dispatch ranking (?date=2006-01-02, default today)
func (h *ReportHandler) GetRanking(c *fiber.Ctx) error {
	day := time.Now().In(h.loc)
	if q := c.Query("date"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, h.loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Date must be formatted as YYYY-MM-DD",
			})
		}
		day = parsed
	}

	entries, err := h.ranking.Daily(day)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute ranking",
		})
	}

	return c.JSON(fiber.Map{
		"date":    day.Format("2006-01-02"),
		"ranking": entries,
	})
}

// ExportHistory downloads dispatch history as CSV or pretty-printed JSON
// (?from=YYYY-MM-DD&to=YYYY-MM-DD&format=csv|json)
func (h *ReportHandler) ExportHistory(c *fiber.Ctx) error {
	now := time.Now().In(h.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
	to := from.AddDate(0, 0, 1)

	if q := c.Query("from"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, h.loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "'from' must be formatted as YYYY-MM-DD",
			})
		}
		from = parsed
	}
	if q := c.Query("to"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, h.loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "'to' must be formatted as YYYY-MM-DD",
			})
		}
		to = parsed.AddDate(0, 0, 1)
	}

	records, err := h.export.History(from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve dispatch history",
		})
	}

	stamp := from.Format("2006-01-02")
	var buf bytes.Buffer

	switch c.Query("format", "csv") {
	case "json":
		if err := h.export.WriteJSON(&buf, records); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to render export",
			})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=dispatches-%s.json", stamp))
	case "csv":
		if err := h.export.WriteCSV(&buf, records); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to render export",
			})
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=dispatches-%s.csv", stamp))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Format must be 'csv' or 'json'",
		})
	}

	return c.Send(buf.Bytes())
}
