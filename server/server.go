package server

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ragline/ragline/agent"
	"github.com/ragline/ragline/store"
	"github.com/ragline/ragline/taskgraph"
)

// Server is the HTTP front of the agent workflow. It owns no business
// logic: each request builds a fresh task graph, executes it, and shapes
// the outcome into a response.
type Server struct {
	completer agent.Completer
	searcher  agent.Searcher
	fetcher   agent.PageFetcher

	executor *taskgraph.Executor
	history  *store.History

	requestTimeout time.Duration
	requestSeq     atomic.Uint64
	mux            *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHistory archives every finished run into h.
func WithHistory(h *store.History) ServerOption {
	return func(s *Server) {
		s.history = h
	}
}

// WithRequestTimeout bounds one agent request end to end.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// WithExecutor replaces the default executor.
func WithExecutor(e *taskgraph.Executor) ServerOption {
	return func(s *Server) {
		s.executor = e
	}
}

// New constructs the server. searcher and fetcher may be nil; the agent
// workflow then answers without retrieved documents.
func New(completer agent.Completer, searcher agent.Searcher, fetcher agent.PageFetcher, opts ...ServerOption) *Server {
	s := &Server{
		completer:      completer,
		searcher:       searcher,
		fetcher:        fetcher,
		executor:       taskgraph.NewExecutor(),
		requestTimeout: 60 * time.Second,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/agent1", s.handleAgent)
	return s
}

// Handler returns the full middleware-wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return loggingMiddleware(corsMiddleware(s.mux))
}

func (s *Server) nextRequestID() string {
	return fmt.Sprintf("req-%d-%d", time.Now().UnixNano(), s.requestSeq.Add(1))
}
