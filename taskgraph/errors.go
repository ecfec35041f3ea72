package taskgraph

import (
	"fmt"

	"github.com/juju/errors"
)

// NodeID identifies a registered task within one Graph. It is stable for
// the lifetime of the graph and is used in edges and error attribution.
type NodeID string

// MissingKeyError reports a context read for a key that was never written.
// It always indicates a wiring defect: the reader was scheduled without a
// predecessor that produces the key.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("context key %q was never written", e.Key)
}

// IsMissingKey reports whether err is (or wraps) a MissingKeyError.
func IsMissingKey(err error) bool {
	mk := &MissingKeyError{}
	return errors.As(err, &mk)
}

// UnknownNodeError reports an edge that references a node id that was
// never registered with AddNode.
type UnknownNodeError struct {
	Node NodeID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %q is not registered in the graph", e.Node)
}

// IsUnknownNode reports whether err is (or wraps) an UnknownNodeError.
func IsUnknownNode(err error) bool {
	un := &UnknownNodeError{}
	return errors.As(err, &un)
}

// CycleError reports an AddEdge call that would close a dependency cycle.
// The offending edge is never applied.
type CycleError struct {
	From NodeID
	To   NodeID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("edge %s -> %s would create a cycle", e.From, e.To)
}

// IsCycle reports whether err is (or wraps) a CycleError.
func IsCycle(err error) bool {
	ce := &CycleError{}
	return errors.As(err, &ce)
}

// TaskError wraps the failure of a single node with the node's identity,
// so callers can attribute the run's terminal error.
type TaskError struct {
	Node NodeID
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Node, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
