package agent

import (
	"context"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ragline/ragline/taskgraph"
)

const enhanceQueryPreamble = `You are a search assistant, helping users refine their web search queries.
You are given a user query and you need to rewrite it in a way that will maximize the number of relevant documents found in a google search.
Output only the list of words and terms, no other text, no commas or other punctuation.`

// EnhanceTask rewrites the raw user query into search terms via the
// language model. Reads KeyQuery, writes KeyEnhancedQuery.
type EnhanceTask struct {
	completer Completer
}

func NewEnhanceTask(completer Completer) *EnhanceTask {
	return &EnhanceTask{completer: completer}
}

func (t *EnhanceTask) Name() string {
	return "enhance_query"
}

func (t *EnhanceTask) Run(ctx context.Context, tc *taskgraph.Context) error {
	query, err := tc.RequireString(KeyQuery)
	if err != nil {
		return errors.Trace(err)
	}

	enhanced, err := t.completer.Complete(ctx, enhanceQueryPreamble, "User query:\n"+query)
	if err != nil {
		return errors.Annotatef(err, "enhance query")
	}
	log.Infof("enhanced query: %s", enhanced)

	tc.Set(KeyEnhancedQuery, enhanced)
	return nil
}
