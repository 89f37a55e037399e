package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "ossim API",
		Version:     "v1",
		Description: "Single-processor scheduler simulator: submit a process list, get the tick trace and statistics",
		Endpoints: []endpointInfo{
			{"/api/v1/simulations", []string{"GET", "POST"}, "Archived runs. POST a process description (text or YAML) to simulate it"},
			{"/api/v1/simulations/{id}", []string{"GET"}, "Single run with per-process statistics"},
			{"/api/v1/simulations/{id}/ticks", []string{"GET"}, "Recorded tick trace of a run"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
