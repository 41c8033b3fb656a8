package handler

import (
	"net/http"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	MapProvider string `json:"map_provider,omitempty"`
	MapError    string `json:"map_error,omitempty"`
}

// GetHealth handles GET /healthz. The server is healthy even when the map
// provider failed; the provider state is reported alongside.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.ready != nil {
		state, err := s.ready.State()
		resp.MapProvider = state.String()
		if err != nil {
			resp.MapError = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(s.openAPI)
}
