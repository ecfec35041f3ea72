package taskgraph

import (
	"fmt"
	"strings"
)

// DOT renders the graph in Graphviz DOT format without execution state.
func (g *Graph) DOT() string {
	return RenderDOT(g, nil)
}

// RenderDOT renders the graph in Graphviz DOT format. When result is
// non-nil, nodes are filled by outcome: green for completed, red for
// failed, grey for skipped.
func RenderDOT(g *Graph, result *RunResult) string {
	r := newGraphRenderer(result)
	return r.generateDOT(g)
}

func newGraphRenderer(result *RunResult) *graphRenderer {
	return &graphRenderer{result: result, sb: &strings.Builder{}}
}

type graphRenderer struct {
	result *RunResult
	sb     *strings.Builder
}

func (r *graphRenderer) generateDOT(g *Graph) string {
	top := g.snapshot()

	r.write("digraph G {")
	for _, id := range top.nodeOrd {
		r.write("%s [label=%s shape=\"record\"%s]", idString(string(id)), quoteString(string(id)), r.calcAttr(id))
	}
	for _, id := range top.nodeOrd {
		for _, succ := range top.succs[id] {
			r.write("%s -> %s", idString(string(id)), idString(string(succ)))
		}
	}
	r.write("}")
	return r.sb.String()
}

func (r *graphRenderer) calcAttr(id NodeID) string {
	if r.result == nil {
		return ""
	}
	record, exists := r.result.Records[id]
	if !exists {
		return ""
	}

	color := ""
	switch {
	case record.Skipped:
		color = "grey"
	case record.Error != "":
		color = "red"
	default:
		color = "green"
	}
	return fmt.Sprintf(" style=\"filled\" color=\"%s\"", color)
}

func (r *graphRenderer) write(format string, s ...any) {
	r.sb.WriteString(fmt.Sprintf(format+"\n", s...))
}

func quoteString(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}

var idleChars = []string{" ", "'", "\"", "(", ")", "*", "&", "^", "%", "$", "#", "@", "!", "?", "<", ">", "[", "]", "{", "}", "."}

func idString(s string) string {
	for _, ch := range idleChars {
		s = strings.ReplaceAll(s, ch, "_")
	}
	return s
}
