package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/editor"
	"github.com/tripost/backend/internal/mapsync"
)

// OpenEditorResponse is the body of POST /trips/{id}/editor.
type OpenEditorResponse struct {
	SessionID uuid.UUID       `json:"session_id"`
	Snapshot  editor.Snapshot `json:"snapshot"`
}

// SetDaysRequest is the body of PUT /editor/{sid}/days.
type SetDaysRequest struct {
	Days int `json:"days"`
}

// DraftTimeRequest is the body of PUT /editor/{sid}/days/{day}/draft.
type DraftTimeRequest struct {
	Time string `json:"time"`
}

// QueryRequest is the body of POST /editor/{sid}/days/{day}/query.
type QueryRequest struct {
	Text string `json:"text"`
}

// SelectRequest is the body of POST /editor/{sid}/days/{day}/select.
type SelectRequest struct {
	Suggestion domain.Suggestion `json:"suggestion"`
}

// RemoveRequest is the body of DELETE /editor/{sid}/days/{day}/entries.
// The first entry with this time and place is removed.
type RemoveRequest struct {
	Time  string `json:"time"`
	Place string `json:"place"`
}

// RemoveResponse reports whether an entry matched.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// MapRequest is the body of PUT /editor/{sid}/map. A nil field leaves that
// state alone; 0 clears it.
type MapRequest struct {
	Hover  *int `json:"hover,omitempty"`
	Select *int `json:"select,omitempty"`
}

// SearchRequest is the body of POST /editor/{sid}/search.
type SearchRequest struct {
	Address string `json:"address"`
}

// SearchResponse is where the map moved.
type SearchResponse struct {
	Focus mapsync.Focus `json:"focus"`
	Map   mapsync.Scene `json:"map"`
}

// DraftResponse is a day's draft after an edit.
type DraftResponse struct {
	Day   int          `json:"day"`
	Draft domain.Entry `json:"draft"`
}

// OpenEditor handles POST /trips/{id}/editor.
func (s *Server) OpenEditor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sid, ed, err := s.editors.Open(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, OpenEditorResponse{SessionID: sid, Snapshot: ed.Snapshot()})
}

// GetEditor handles GET /editor/{sid}.
func (s *Server) GetEditor(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.Snapshot())
}

// CloseEditor handles DELETE /editor/{sid}.
func (s *Server) CloseEditor(w http.ResponseWriter, r *http.Request) {
	sid, ok := pathUUID(w, r, "sid")
	if !ok {
		return
	}
	if err := s.editors.Close(sid); err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDays handles PUT /editor/{sid}/days. Changing the length discards the
// itinerary being edited.
func (s *Server) SetDays(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	var body SetDaysRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	if err := ed.SetDays(body.Days); err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, ed.Snapshot())
}

// SetDraftTime handles PUT /editor/{sid}/days/{day}/draft.
func (s *Server) SetDraftTime(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	var body DraftTimeRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	d, err := ed.SetDraftTime(day, body.Time)
	if err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, DraftResponse{Day: day, Draft: d})
}

// QueryPlace handles POST /editor/{sid}/days/{day}/query. Suggestions
// arrive asynchronously and show up in the session snapshot.
func (s *Server) QueryPlace(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	var body QueryRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	d, err := ed.TypePlace(day, body.Text)
	if err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusAccepted, DraftResponse{Day: day, Draft: d})
}

// FocusPlace handles POST /editor/{sid}/days/{day}/focus.
func (s *Server) FocusPlace(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	if err := ed.FocusPlace(day); err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BlurPlace handles POST /editor/{sid}/days/{day}/blur.
func (s *Server) BlurPlace(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	if err := ed.BlurPlace(day); err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectSuggestion handles POST /editor/{sid}/days/{day}/select.
func (s *Server) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	var body SelectRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	d, err := ed.SelectSuggestion(r.Context(), day, body.Suggestion)
	if err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, DraftResponse{Day: day, Draft: d})
}

// CommitEntry handles POST /editor/{sid}/days/{day}/commit.
func (s *Server) CommitEntry(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	if _, err := ed.Commit(day); err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, ed.Snapshot())
}

// RemoveEntry handles DELETE /editor/{sid}/days/{day}/entries.
func (s *Server) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	ed, day, ok := s.sessionDay(w, r)
	if !ok {
		return
	}
	var body RemoveRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	removed, err := ed.Remove(day, domain.Entry{Time: body.Time, Place: body.Place})
	if err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, RemoveResponse{Removed: removed})
}

// UpdateMap handles PUT /editor/{sid}/map: marker hover and selection.
// Unknown marker numbers are ignored.
func (s *Server) UpdateMap(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	var body MapRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	if body.Hover != nil {
		ed.HoverMarker(*body.Hover)
	}
	if body.Select != nil {
		ed.SelectMarker(*body.Select)
	}
	writeJSON(w, http.StatusOK, ed.Snapshot().Scene)
}

// SearchAddress handles POST /editor/{sid}/search.
func (s *Server) SearchAddress(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	var body SearchRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	f, err := ed.Search(r.Context(), body.Address)
	if err != nil {
		s.respondErr(w, r, "address", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Focus: f, Map: ed.Snapshot().Scene})
}

// SubmitEditor handles POST /editor/{sid}/submit: the cleaned itinerary is
// stored on the session's trip.
func (s *Server) SubmitEditor(w http.ResponseWriter, r *http.Request) {
	sid, ok := pathUUID(w, r, "sid")
	if !ok {
		return
	}
	trip, err := s.editors.Submit(r.Context(), sid)
	if err != nil {
		s.respondErr(w, r, "editor session", err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// --- session helpers --------------------------------------------------------

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	sid, ok := pathUUID(w, r, "sid")
	if !ok {
		return nil, false
	}
	ed, err := s.editors.Session(sid)
	if err != nil {
		s.respondErr(w, r, "editor session", err)
		return nil, false
	}
	return ed, true
}

func (s *Server) sessionDay(w http.ResponseWriter, r *http.Request) (*editor.Editor, int, bool) {
	ed, ok := s.session(w, r)
	if !ok {
		return nil, 0, false
	}
	day, ok := pathInt(w, r, "day")
	if !ok {
		return nil, 0, false
	}
	return ed, day, true
}
