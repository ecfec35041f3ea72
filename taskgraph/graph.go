// Package taskgraph is a DAG scheduler: it runs tasks in dependency
// order, lets them share state through a guarded key/value Context, and
// reports failures without corrupting already completed work.
package taskgraph

import (
	"sort"
	"sync"

	"github.com/juju/errors"
)

type nodeEntry struct {
	task  Task
	preds map[NodeID]struct{}
	succs map[NodeID]struct{}
}

func newNodeEntry(task Task) *nodeEntry {
	return &nodeEntry{
		task:  task,
		preds: make(map[NodeID]struct{}),
		succs: make(map[NodeID]struct{}),
	}
}

// Graph is an explicit DAG of tasks. Nodes and edges are added before
// execution; the graph is not mutated while an Executor drives it. An edge
// (from, to) means `to` may not start until `from` completed successfully.
type Graph struct {
	mu    sync.Mutex
	nodes map[NodeID]*nodeEntry
}

// NewGraph constructs an empty task graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeID]*nodeEntry)}
}

// AddNode registers a task and returns its NodeID. Task names double as
// node ids, so they must be unique within one graph.
func (g *Graph) AddNode(task Task) (NodeID, error) {
	if task == nil {
		return "", errors.BadRequestf("task is nil")
	}
	id := NodeID(task.Name())
	if id == "" {
		return "", errors.BadRequestf("task name is empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return "", errors.AlreadyExistsf("node %q", id)
	}
	g.nodes[id] = newNodeEntry(task)
	return id, nil
}

// AddEdge declares that `to` depends on `from`. It fails with an
// UnknownNodeError when either end is unregistered and with a CycleError
// when the edge would close a cycle. On any failure the graph is left
// unchanged.
func (g *Graph) AddEdge(from, to NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	fromEntry, exists := g.nodes[from]
	if !exists {
		return errors.Trace(&UnknownNodeError{Node: from})
	}
	toEntry, exists := g.nodes[to]
	if !exists {
		return errors.Trace(&UnknownNodeError{Node: to})
	}

	if from == to || g.pathExists(to, from) {
		return errors.Trace(&CycleError{From: from, To: to})
	}

	fromEntry.succs[to] = struct{}{}
	toEntry.preds[from] = struct{}{}
	return nil
}

// pathExists walks successor sets looking for a path from start to target.
// Caller holds g.mu.
func (g *Graph) pathExists(start, target NodeID) bool {
	visited := make(map[NodeID]bool)
	stack := []NodeID{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == target {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		for succ := range g.nodes[current].succs {
			stack = append(stack, succ)
		}
	}
	return false
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.nodes)
}

// Nodes returns all node ids in lexical order.
func (g *Graph) Nodes() []NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Roots returns the nodes with no predecessors. On a fresh run these are
// the immediately runnable nodes.
func (g *Graph) Roots() []NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	roots := make([]NodeID, 0)
	for id, entry := range g.nodes {
		if len(entry.preds) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// topology captures an immutable view of the graph for one execution, so
// the executor never reads the live maps while tasks run.
type topology struct {
	tasks   map[NodeID]Task
	preds   map[NodeID][]NodeID
	succs   map[NodeID][]NodeID
	indeg   map[NodeID]int
	roots   []NodeID
	nodeOrd []NodeID
}

func (g *Graph) snapshot() *topology {
	g.mu.Lock()
	defer g.mu.Unlock()

	top := &topology{
		tasks: make(map[NodeID]Task, len(g.nodes)),
		preds: make(map[NodeID][]NodeID, len(g.nodes)),
		succs: make(map[NodeID][]NodeID, len(g.nodes)),
		indeg: make(map[NodeID]int, len(g.nodes)),
	}
	for id, entry := range g.nodes {
		top.tasks[id] = entry.task
		top.indeg[id] = len(entry.preds)
		for pred := range entry.preds {
			top.preds[id] = append(top.preds[id], pred)
		}
		for succ := range entry.succs {
			top.succs[id] = append(top.succs[id], succ)
		}
		if len(entry.preds) == 0 {
			top.roots = append(top.roots, id)
		}
		top.nodeOrd = append(top.nodeOrd, id)
	}
	sort.Slice(top.roots, func(i, j int) bool { return top.roots[i] < top.roots[j] })
	sort.Slice(top.nodeOrd, func(i, j int) bool { return top.nodeOrd[i] < top.nodeOrd[j] })
	return top
}

// reachableFrom collects every node downstream of id, directly or
// indirectly. Used for skip propagation after a failure.
func (t *topology) reachableFrom(id NodeID) []NodeID {
	visited := make(map[NodeID]bool)
	queue := append([]NodeID{}, t.succs[id]...)
	reach := make([]NodeID, 0)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		reach = append(reach, current)
		queue = append(queue, t.succs[current]...)
	}
	return reach
}
