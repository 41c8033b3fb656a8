package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripost/backend/internal/domain"
)

// Trip is the JSON form of a trip.
type Trip struct {
	ID        uuid.UUID           `json:"id"`
	Title     string              `json:"title"`
	Days      int                 `json:"days"`
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	Itinerary domain.Itinerary    `json:"itinerary"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Title     string              `json:"title"`
	Days      int                 `json:"days"`
	StartDate *openapi_types.Date `json:"start_date,omitempty"`
	Itinerary domain.Itinerary    `json:"itinerary,omitempty"`
}

// UpdateItineraryRequest is the body of PUT /trips/{id}/itinerary. Days is
// optional and keeps the stored length when absent.
type UpdateItineraryRequest struct {
	Days      *int             `json:"days,omitempty"`
	Itinerary domain.Itinerary `json:"itinerary"`
}

// Pagination describes one page of a list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body CreateTripRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	trip := domain.Trip{Title: body.Title, Days: body.Days, Itinerary: body.Itinerary}
	if body.StartDate != nil {
		sd := body.StartDate.Time
		trip.StartDate = &sd
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips?page=&limit= (defaults page 1, limit 20, max 100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		badRequest(w, err.Error())
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListPaged(r.Context(), params)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}

	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateItinerary handles PUT /trips/{id}/itinerary.
func (s *Server) UpdateItinerary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body UpdateItineraryRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	updated, err := s.trips.UpdateItinerary(r.Context(), id, body.Days, body.Itinerary)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		ID:        t.ID,
		Title:     t.Title,
		Days:      t.Days,
		Itinerary: t.Itinerary,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if resp.Itinerary == nil {
		resp.Itinerary = domain.Itinerary{}
	}
	if t.StartDate != nil {
		resp.StartDate = &openapi_types.Date{Time: *t.StartDate}
	}
	return resp
}

// pathUUID binds a UUID path parameter, answering 400 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		badRequest(w, "invalid "+name+": "+err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// pathInt binds an integer path parameter, answering 400 when it is malformed.
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	var n int
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &n,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		badRequest(w, "invalid "+name+": "+err.Error())
		return 0, false
	}
	return n, true
}
