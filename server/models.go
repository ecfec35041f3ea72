package server

import "strings"

// AgentRequest is the payload of POST /api/agent1.
type AgentRequest struct {
	Query string `json:"query"`
}

// Valid reports whether the query carries anything beyond whitespace.
func (r *AgentRequest) Valid() bool {
	return strings.TrimSpace(r.Query) != ""
}

// AgentResponse is the success payload of POST /api/agent1.
type AgentResponse struct {
	Answer string `json:"answer"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func healthOK() HealthResponse {
	return HealthResponse{Status: "ok", Message: "Service is healthy"}
}

// ErrorResponse is the structured error body for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
