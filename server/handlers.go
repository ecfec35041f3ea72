package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ragline/ragline/agent"
	"github.com/ragline/ragline/store"
	"github.com/ragline/ragline/taskgraph"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	if status >= http.StatusInternalServerError {
		log.Errorf("internal server error: %s", message)
	}
	writeJSON(w, status, ErrorResponse{Error: errType, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET")
		return
	}
	log.Debugf("health check endpoint called")
	writeJSON(w, http.StatusOK, healthOK())
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST")
		return
	}

	payload := AgentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "body must be JSON with a query field")
		return
	}
	// input validation happens before any graph is built or run
	if !payload.Valid() {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query cannot be empty or only whitespace")
		return
	}
	log.Infof("agent endpoint called with query: %s", payload.Query)

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	requestID := s.nextRequestID()
	startedAt := time.Now()

	graph, tc, err := agent.NewWorkflow(payload.Query, s.completer, s.searcher, s.fetcher)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", errors.ErrorStack(err))
		return
	}

	result, err := s.executor.Execute(ctx, graph, tc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", errors.ErrorStack(err))
		return
	}

	answer := ""
	if result.Success {
		answer, err = tc.RequireString(agent.KeyAnswer)
		if err != nil {
			result.Success = false
			result.Err = errors.Annotatef(err, "retrieve answer from context")
		}
	}
	s.archiveRun(requestID, payload.Query, answer, startedAt, result)

	if !result.Success {
		writeError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", result.Err.Error())
		return
	}

	log.Infof("successfully processed query, returning response")
	writeJSON(w, http.StatusOK, AgentResponse{Answer: answer})
}

// archiveRun records the finished run in history, when configured. Archive
// failures are logged, never surfaced to the client.
func (s *Server) archiveRun(requestID, query, answer string, startedAt time.Time, result *taskgraph.RunResult) {
	if s.history == nil {
		return
	}

	record := &store.RunRecord{
		RequestID:  requestID,
		Query:      query,
		Answer:     answer,
		Success:    result.Success,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
		record.FailedNode = string(result.FailedNode)
	}
	for _, id := range result.Skipped {
		record.Skipped = append(record.Skipped, string(id))
	}
	if len(result.Records) > 0 {
		record.Nodes = make(map[string]*store.NodeOutcome, len(result.Records))
		for id, nodeRecord := range result.Records {
			record.Nodes[string(id)] = &store.NodeOutcome{
				StartTime: nodeRecord.StartTime,
				EndTime:   nodeRecord.EndTime,
				Error:     nodeRecord.Error,
				Skipped:   nodeRecord.Skipped,
			}
		}
	}

	if err := s.history.Save(context.Background(), record); err != nil {
		log.Errorf("%s failed to archive run: %v", requestID, err)
	}
}
