package services

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// csvHeader is the documented export column order. Changing it breaks the
// spreadsheets the operation team builds on top of these files.
var csvHeader = []string{
	"driver_name",
	"device_id",
	"check_in",
	"check_out",
	"bags_taken",
	"destination_area",
	"selfie_taken",
	"start_lat",
	"start_lng",
	"end_lat",
	"end_lng",
}

// ExportService renders dispatch history for download
type ExportService struct {
	store storage.Store
}

// NewExportService creates a new export service
func NewExportService(store storage.Store) *ExportService {
	return &ExportService{store: store}
}

// History returns every record with a start time inside [from, to)
func (s *ExportService) History(from, to time.Time) ([]*models.DispatchRecord, error) {
	return s.store.GetDispatchRecordsInRange(from, to,
		models.DispatchStatusPending, models.DispatchStatusQueued,
		models.DispatchStatusDispatched, models.DispatchStatusCompleted,
		models.DispatchStatusCancelled)
}

// WriteCSV writes records in the documented column order. encoding/csv
// handles quoting for names and destinations containing commas or quotes.
func (s *ExportService) WriteCSV(w io.Writer, recs []*models.DispatchRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := cw.Write(csvRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as a pretty-printed JSON array
func (s *ExportService) WriteJSON(w io.Writer, recs []*models.DispatchRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func csvRow(rec *models.DispatchRecord) []string {
	return []string{
		rec.DriverName,
		rec.DeviceID,
		rec.StartTime.Format(time.RFC3339),
		formatTimePtr(rec.EndTime),
		strconv.Itoa(rec.BagsTaken),
		rec.DestinationArea,
		strconv.FormatBool(rec.SelfieTaken()),
		formatCoord(rec.StartLat),
		formatCoord(rec.StartLng),
		formatCoord(rec.EndLat),
		formatCoord(rec.EndLng),
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
