package agent

import (
	"context"

	"github.com/juju/errors"

	"github.com/ragline/ragline/search"
	"github.com/ragline/ragline/taskgraph"
)

// Well-known context keys the workflow tasks communicate through.
const (
	KeyQuery         = "query"
	KeyEnhancedQuery = "enhanced_query"
	KeySearchResults = "search_results"
	KeyAnswer        = "answer"
)

// Completer produces a chat completion from a system preamble and a user
// prompt. Implemented by llm.Client.
type Completer interface {
	Complete(ctx context.Context, preamble, prompt string) (string, error)
}

// Searcher runs a web search. Implemented by search.SerperClient. May be
// nil, in which case retrieval yields no documents.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// PageFetcher extracts visible text from a web page. Implemented by
// search.Scraper.
type PageFetcher interface {
	ScrapeText(ctx context.Context, rawURL string) (string, error)
}

// NewWorkflow assembles the agent graph for one request:
//
//	enhance_query -> retrieve_data -> generate_answer
//
// and a fresh Context pre-seeded with the user query. Graphs and contexts
// are built per request and never reused.
func NewWorkflow(query string, completer Completer, searcher Searcher, fetcher PageFetcher) (*taskgraph.Graph, *taskgraph.Context, error) {
	g := taskgraph.NewGraph()

	enhanceID, err := g.AddNode(NewEnhanceTask(completer))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	retrieveID, err := g.AddNode(NewRetrieveTask(searcher, fetcher))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	generateID, err := g.AddNode(NewGenerateTask(completer))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	if err := g.AddEdge(enhanceID, retrieveID); err != nil {
		return nil, nil, errors.Trace(err)
	}
	if err := g.AddEdge(retrieveID, generateID); err != nil {
		return nil, nil, errors.Trace(err)
	}

	tc := taskgraph.NewContext()
	tc.Set(KeyQuery, query)
	return g, tc, nil
}
