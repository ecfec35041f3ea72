package store

import (
	"context"
	"time"

	"github.com/juju/errors"

	"github.com/ragline/ragline/utils"
)

const (
	RunRecordPath = "/runs/"
)

// NodeOutcome is the archived trace of one node in a finished run.
type NodeOutcome struct {
	StartTime time.Time `json:",omitempty"`
	EndTime   time.Time `json:",omitempty"`
	Error     string    `json:",omitempty"`
	Skipped   bool      `json:",omitempty"`
}

// RunRecord is the archived outcome of one agent request. One record per
// request ID; saving again overwrites.
type RunRecord struct {
	RequestID  string
	Query      string
	Answer     string `json:",omitempty"`
	Success    bool
	FailedNode string   `json:",omitempty"`
	Error      string   `json:",omitempty"`
	Skipped    []string `json:",omitempty"`

	StartedAt  time.Time
	FinishedAt time.Time

	Nodes map[string]*NodeOutcome `json:",omitempty"`
}

// History archives run records into a Store.
type History struct {
	s Store
}

func NewHistory(s Store) *History {
	return &History{s: s}
}

func (h *History) Save(ctx context.Context, record *RunRecord) error {
	if record == nil || record.RequestID == "" {
		return errors.BadRequestf("record must carry a request ID")
	}
	b, err := utils.Serialize(record)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(h.s.Set(ctx, RunRecordPath, record.RequestID, b))
}

func (h *History) Load(ctx context.Context, requestID string) (*RunRecord, error) {
	b, err := h.s.Get(ctx, RunRecordPath, requestID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if b == nil {
		return nil, errors.NotFoundf("run record: %s", requestID)
	}

	record := &RunRecord{}
	if err := utils.Unserialize(b, record); err != nil {
		return nil, errors.Trace(err)
	}
	return record, nil
}

func (h *History) Remove(ctx context.Context, requestID string) error {
	return errors.Trace(h.s.Remove(ctx, RunRecordPath, requestID))
}

// List walks the archived request IDs until iterator returns false.
func (h *History) List(ctx context.Context, iterator func(requestID string) bool) error {
	return errors.Trace(h.s.List(ctx, RunRecordPath, iterator))
}
