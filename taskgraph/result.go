package taskgraph

import (
	"time"

	"github.com/juju/errors"
)

// NodeRecord is the trace of one node inside a run.
type NodeRecord struct {
	Node      NodeID
	StartTime time.Time
	EndTime   time.Time
	Error     string `json:",omitempty"`
	Skipped   bool   `json:",omitempty"`
}

// Duration returns how long the node ran. Zero for skipped nodes.
func (r *NodeRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RunResult is the terminal outcome of one graph execution. Either every
// node completed (Success) or the first-recorded failure is reported along
// with the nodes that were skipped because of it.
type RunResult struct {
	Success    bool
	FailedNode NodeID
	Err        error
	Skipped    []NodeID
	Records    map[NodeID]*NodeRecord
	Duration   time.Duration
}

func newRunResult() *RunResult {
	return &RunResult{Records: make(map[NodeID]*NodeRecord)}
}

// FirstError returns the run's terminal error, annotated with the failing
// node, or nil on success.
func (r *RunResult) FirstError() error {
	if r.Err == nil {
		return nil
	}
	return errors.Trace(r.Err)
}
