package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ragline/ragline/search"
	"github.com/ragline/ragline/taskgraph"
	"github.com/ragline/ragline/utils"
)

const (
	// pages shorter than this after markup stripping carry no signal
	minDocumentChars = 100

	scrapeConcurrency = 4
)

// RetrieveTask searches the web for the enhanced query and scrapes the
// result pages. Reads KeyEnhancedQuery, writes KeySearchResults (a
// []string of page texts). Scrape failures are logged and dropped; only
// the search call itself is fatal to the node.
type RetrieveTask struct {
	searcher Searcher
	fetcher  PageFetcher
}

func NewRetrieveTask(searcher Searcher, fetcher PageFetcher) *RetrieveTask {
	return &RetrieveTask{searcher: searcher, fetcher: fetcher}
}

func (t *RetrieveTask) Name() string {
	return "retrieve_data"
}

func (t *RetrieveTask) Run(ctx context.Context, tc *taskgraph.Context) error {
	query, err := tc.RequireString(KeyEnhancedQuery)
	if err != nil {
		return errors.Trace(err)
	}

	if t.searcher == nil {
		log.Warnf("no searcher configured, retrieving nothing")
		tc.Set(KeySearchResults, []string{})
		return nil
	}

	results, err := t.searcher.Search(ctx, query)
	if err != nil {
		return errors.Annotatef(err, "search for %q", query)
	}
	log.Infof("retrieved %d search results", len(results))

	links := make([]string, 0, len(results))
	for _, result := range results {
		if !scrapeableLink(result.Link) {
			log.Warnf("skipping non-scrapeable URL: %s (%s)", result.Link, result.Title)
			continue
		}
		links = append(links, result.Link)
	}
	links = utils.UniqueSlice(links)
	log.Infof("filtered to %d scrapeable URLs", len(links))

	documents := t.scrapeAll(ctx, links)
	log.Infof("scraped %d URLs with substantial content", len(documents))

	tc.Set(KeySearchResults, documents)
	return nil
}

func (t *RetrieveTask) scrapeAll(ctx context.Context, links []string) []string {
	if t.fetcher == nil || len(links) == 0 {
		return []string{}
	}

	var (
		mu        sync.Mutex
		documents = make([]string, 0, len(links))
	)

	wp := workerpool.New(scrapeConcurrency)
	for _, link := range links {
		link := link
		wp.Submit(func() {
			text, err := t.fetcher.ScrapeText(ctx, link)
			if err != nil {
				log.Warnf("scrape %s failed: %v", link, err)
				return
			}
			if len(strings.TrimSpace(text)) <= minDocumentChars {
				log.Debugf("dropping thin content from %s", link)
				return
			}
			mu.Lock()
			documents = append(documents, text)
			mu.Unlock()
		})
	}
	wp.StopWait()

	return documents
}

func scrapeableLink(link string) bool {
	return link != "" && search.Scrapeable(link)
}
