package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ragline/ragline/taskgraph"
)

const generateAnswerPreamble = `You are a research assistant.
Answer the user's question using only the provided documents.
If the documents do not contain the answer, say so plainly.
Be concise and cite nothing; produce a self-contained answer.`

const maxPromptDocumentChars = 8000

// GenerateTask composes the final answer from the enhanced query and the
// retrieved documents. Reads KeyEnhancedQuery and KeySearchResults, writes
// KeyAnswer.
type GenerateTask struct {
	completer Completer
}

func NewGenerateTask(completer Completer) *GenerateTask {
	return &GenerateTask{completer: completer}
}

func (t *GenerateTask) Name() string {
	return "generate_answer"
}

func (t *GenerateTask) Run(ctx context.Context, tc *taskgraph.Context) error {
	log.Infof("generating answer")

	query, err := tc.RequireString(KeyEnhancedQuery)
	if err != nil {
		return errors.Trace(err)
	}
	documents, _ := tc.GetStringSlice(KeySearchResults)

	answer, err := t.completer.Complete(ctx, generateAnswerPreamble, buildAnswerPrompt(query, documents))
	if err != nil {
		return errors.Annotatef(err, "generate answer")
	}

	tc.Set(KeyAnswer, answer)
	return nil
}

func buildAnswerPrompt(query string, documents []string) string {
	sb := strings.Builder{}
	sb.WriteString("Question:\n")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	if len(documents) == 0 {
		sb.WriteString("No documents were retrieved. Answer from general knowledge and say that no sources were found.\n")
		return sb.String()
	}

	sb.WriteString("Documents:\n")
	for i, doc := range documents {
		sb.WriteString(fmt.Sprintf("--- document %d ---\n%s\n", i+1, truncateDocument(doc)))
	}
	return sb.String()
}

// truncateDocument caps a document at maxPromptDocumentChars bytes, backing
// off to a rune boundary so the prompt never carries a torn UTF-8 sequence.
func truncateDocument(doc string) string {
	if len(doc) <= maxPromptDocumentChars {
		return doc
	}
	cut := maxPromptDocumentChars
	for cut > 0 && !utf8.RuneStart(doc[cut]) {
		cut--
	}
	return doc[:cut]
}
