// Package ragline wires the agent workflow service together: a task-graph
// execution engine (package taskgraph) fronted by a small HTTP API that
// answers user queries through an enhance -> retrieve -> generate
// pipeline.
package ragline

import (
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ragline/ragline/agent"
	"github.com/ragline/ragline/config"
	"github.com/ragline/ragline/llm"
	"github.com/ragline/ragline/search"
	"github.com/ragline/ragline/server"
	"github.com/ragline/ragline/store"
	"github.com/ragline/ragline/store/mem"
	"github.com/ragline/ragline/store/postgres"
	"github.com/ragline/ragline/taskgraph"
)

// NewServer builds the fully wired HTTP server from configuration. All
// collaborators (LLM client, search client, scraper, history store) are
// constructed here once, at startup, and injected; nothing is process-global.
func NewServer(cfg *config.Config) (*server.Server, error) {
	completer, err := llm.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	if err != nil {
		return nil, errors.Annotatef(err, "construct LLM client")
	}

	var searcher agent.Searcher
	if cfg.SerperAPIKey != "" {
		serper, err := search.NewSerperClient(cfg.SerperAPIKey)
		if err != nil {
			return nil, errors.Annotatef(err, "construct search client")
		}
		searcher = serper
	} else {
		log.Warnf("SERPER_API_KEY not set; answering without web retrieval")
	}

	var s store.Store
	if cfg.Postgres != nil {
		if s, err = postgres.NewPostgresStore(cfg.Postgres); err != nil {
			return nil, errors.Annotatef(err, "construct postgres store")
		}
		log.Infof("run history archived to postgres at %s:%d", cfg.Postgres.Host, cfg.Postgres.Port)
	} else {
		s = mem.NewMemStore()
		log.Infof("run history archived in memory")
	}

	return server.New(
		completer,
		searcher,
		search.NewScraper(),
		server.WithHistory(store.NewHistory(s)),
		server.WithRequestTimeout(cfg.RequestTimeout),
		server.WithExecutor(taskgraph.NewExecutor(taskgraph.WithMaxConcurrency(cfg.MaxConcurrency))),
	), nil
}
