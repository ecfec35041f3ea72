package taskgraph

import "context"

// Task is one schedulable unit of async work. Run receives the cancellation
// context of the whole execution and the shared run Context. Returning an
// error marks the node failed; the engine never retries, and every node
// that transitively depends on a failed node is skipped.
//
// A task may only assume that its declared predecessors have completed
// successfully. There is no ordering among nodes that are not connected by
// a dependency path.
type Task interface {
	Name() string
	Run(ctx context.Context, tc *Context) error
}

// TaskHandler is the function form of a task body.
type TaskHandler func(ctx context.Context, tc *Context) error

type funcTask struct {
	name    string
	handler TaskHandler
}

// NewTask wraps a handler function as a named Task.
func NewTask(name string, handler TaskHandler) Task {
	return &funcTask{name: name, handler: handler}
}

func (t *funcTask) Name() string {
	return t.name
}

func (t *funcTask) Run(ctx context.Context, tc *Context) error {
	return t.handler(ctx, tc)
}
