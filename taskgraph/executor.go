package taskgraph

import (
	"context"
	"sort"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/juju/errors"
	"github.com/mcuadros/go-defaults"
	log "github.com/sirupsen/logrus"
)

// ExecOptions configures one Executor.
type ExecOptions struct {
	/**
	 * default: 100000
	 * upper bound on the number of tasks running at the same time.
	 * The default is high enough that dispatch is effectively bounded
	 * by resource availability only; set it low to throttle.
	 */
	MaxConcurrency int `default:"100000"`
	/**
	 * default: true
	 * record a NodeRecord for every node into the RunResult.
	 */
	RecordTrace bool `default:"true"`
}

// NewExecOptions returns options populated with defaults.
func NewExecOptions() *ExecOptions {
	opts := &ExecOptions{}
	defaults.SetDefaults(opts)
	return opts
}

// ExecOption mutates ExecOptions.
type ExecOption func(*ExecOptions)

// WithMaxConcurrency bounds the number of concurrently running tasks.
func WithMaxConcurrency(n int) ExecOption {
	return func(opts *ExecOptions) {
		opts.MaxConcurrency = n
	}
}

// DisableTrace turns off per-node trace records.
func DisableTrace() ExecOption {
	return func(opts *ExecOptions) {
		opts.RecordTrace = false
	}
}

// Executor drives a Graph to completion against one Context. It is
// stateless across runs and safe to reuse.
//
// Failure policy: the first failure becomes the run's terminal error and
// every node downstream of it is skipped, but in-flight and ready nodes on
// independent branches are NOT cancelled. They run to completion and their
// context writes are kept. A task that wants a timeout wraps its own body
// with a context deadline and surfaces it as an ordinary error.
type Executor struct {
	opts *ExecOptions
}

// NewExecutor constructs an executor from the given options.
func NewExecutor(opts ...ExecOption) *Executor {
	options := NewExecOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Executor{opts: options}
}

type completion struct {
	id        NodeID
	err       error
	startTime time.Time
	endTime   time.Time
}

// Execute runs every node of g in dependency order, sharing tc between
// them. The returned RunResult is always non-nil; its Err field carries
// the first node failure. The error return is reserved for invalid input,
// never for task failures.
func (e *Executor) Execute(ctx context.Context, g *Graph, tc *Context) (*RunResult, error) {
	if g == nil {
		return nil, errors.BadRequestf("graph is nil")
	}
	if tc == nil {
		tc = NewContext()
	}

	start := time.Now()
	top := g.snapshot()
	result := newRunResult()

	if len(top.nodeOrd) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		return result, nil
	}

	wp := workerpool.New(e.opts.MaxConcurrency)
	defer wp.StopWait()

	done := make(chan completion, len(top.nodeOrd))
	dispatch := func(id NodeID) {
		task := top.tasks[id]
		wp.Submit(func() {
			c := completion{id: id, startTime: time.Now()}
			c.err = runTask(ctx, task, tc)
			c.endTime = time.Now()
			done <- c
		})
	}

	skipped := make(map[NodeID]bool)
	remaining := len(top.nodeOrd)

	log.Debugf("executing graph: %d nodes, %d roots", len(top.nodeOrd), len(top.roots))
	for _, id := range top.roots {
		dispatch(id)
	}

	for remaining > 0 {
		c := <-done
		remaining--

		if e.opts.RecordTrace {
			record := &NodeRecord{Node: c.id, StartTime: c.startTime, EndTime: c.endTime}
			if c.err != nil {
				record.Error = errors.ErrorStack(c.err)
			}
			result.Records[c.id] = record
		}

		if c.err != nil {
			log.Errorf("node %s failed: %v", c.id, c.err)
			if result.Err == nil {
				result.FailedNode = c.id
				result.Err = &TaskError{Node: c.id, Err: c.err}
			}
			for _, dep := range top.reachableFrom(c.id) {
				if skipped[dep] {
					continue
				}
				skipped[dep] = true
				remaining--
				if e.opts.RecordTrace {
					result.Records[dep] = &NodeRecord{Node: dep, Skipped: true}
				}
			}
			continue
		}

		log.Debugf("node %s finished in %v", c.id, c.endTime.Sub(c.startTime))
		for _, succ := range top.succs[c.id] {
			if skipped[succ] {
				continue
			}
			if top.indeg[succ]--; top.indeg[succ] == 0 {
				dispatch(succ)
			}
		}
	}

	result.Skipped = sortedNodeIDs(skipped)
	result.Success = result.Err == nil
	result.Duration = time.Since(start)
	return result, nil
}

// runTask invokes one task body, converting a panic into an ordinary
// failure so a buggy task cannot take down the process.
func runTask(ctx context.Context, task Task, tc *Context) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = errors.Errorf("panic in task %s: %v", task.Name(), r)
		}
	}()
	return task.Run(ctx, tc)
}

func sortedNodeIDs(set map[NodeID]bool) []NodeID {
	ids := make([]NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
