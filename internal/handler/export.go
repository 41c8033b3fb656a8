package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/service"
	"github.com/tripost/backend/internal/viewer"
)

// TripViewResponse is the body of GET /trips/{id}/view.
type TripViewResponse struct {
	Trip Trip        `json:"trip"`
	View viewer.View `json:"view"`
}

// ExportRow is the JSON form of one export row.
type ExportRow struct {
	TripID           uuid.UUID `json:"trip_id"`
	TripTitle        string    `json:"trip_title"`
	Day              int       `json:"day"`
	Order            int       `json:"order"`
	Time             string    `json:"time"`
	Place            string    `json:"place"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	NextLegMeters    *int      `json:"next_leg_meters,omitempty"`
	NextLegText      string    `json:"next_leg_text,omitempty"`
	DayDirectionsURL string    `json:"day_directions_url,omitempty"`
}

var csvHeaders = []string{
	"trip_id", "trip_title", "day", "order", "time", "place",
	"lat", "lng", "next_leg_meters", "next_leg", "day_directions_url",
}

// GetTripView handles GET /trips/{id}/view.
func (s *Server) GetTripView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	tv, err := s.views.View(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, TripViewResponse{Trip: tripToResponse(tv.Trip), View: tv.View})
}

// GetMap handles GET /map?trip_id=, the map across every trip.
func (s *Server) GetMap(w http.ResponseWriter, r *http.Request) {
	var selected *uuid.UUID
	if err := runtime.BindQueryParameter("form", true, false, "trip_id", r.URL.Query(), &selected); err != nil {
		badRequest(w, err.Error())
		return
	}
	mv, err := s.views.MapView(r.Context(), selected)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	if mv.Trips == nil {
		mv.Trips = []service.TripSummary{}
	}
	writeJSON(w, http.StatusOK, mv)
}

// GetExport handles GET /trips/{id}/export?format=csv|json (JSON by default).
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, err.Error())
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		badRequest(w, fmt.Sprintf("unknown format %q, want csv or json", *format))
		return
	}

	rows, err := s.export.Export(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}

	if format != nil && *format == "csv" {
		writeCSV(w, id, rows)
		return
	}
	out := make([]ExportRow, len(rows))
	for i, row := range rows {
		out[i] = exportRowToResponse(row)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeCSV(w http.ResponseWriter, id uuid.UUID, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	// bytes.Buffer writes never fail; csv errors surface on Flush.
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(exportRowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.csv"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func exportRowToResponse(row domain.ExportRow) ExportRow {
	id, _ := uuid.Parse(row.TripID)
	return ExportRow{
		TripID:           id,
		TripTitle:        row.TripTitle,
		Day:              row.Day,
		Order:            row.Order,
		Time:             row.Time,
		Place:            row.Place,
		Lat:              row.Lat,
		Lng:              row.Lng,
		NextLegMeters:    row.NextLegMeters,
		NextLegText:      row.NextLegText,
		DayDirectionsURL: row.DayDirectionsURL,
	}
}

// exportRowToCSVRecord flattens a row. A missing leg is two empty cells;
// a leg without provider text gets a humanized distance.
func exportRowToCSVRecord(row domain.ExportRow) []string {
	var meters, text string
	if row.NextLegMeters != nil {
		meters = strconv.Itoa(*row.NextLegMeters)
		text = row.NextLegText
		if text == "" {
			text = humanize.SIWithDigits(float64(*row.NextLegMeters), 1, "m")
		}
	}
	return []string{
		row.TripID,
		row.TripTitle,
		strconv.Itoa(row.Day),
		strconv.Itoa(row.Order),
		row.Time,
		row.Place,
		strconv.FormatFloat(row.Lat, 'f', -1, 64),
		strconv.FormatFloat(row.Lng, 'f', -1, 64),
		meters,
		text,
		row.DayDirectionsURL,
	}
}
