package taskgraph

import (
	"encoding/json"
	"sync"

	"github.com/juju/errors"
	"github.com/spf13/cast"

	"github.com/ragline/ragline/utils"
)

// Context is the shared key/value store for a single graph run. Tasks read
// inputs written by their predecessors and write outputs for their
// successors. All methods are safe for concurrent use; a completed write is
// visible to every later read from any goroutine. Concurrent writes to the
// same key resolve last-writer-wins under the internal lock.
//
// A Context lives exactly as long as one run and must not be shared
// between runs.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext returns an empty run context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores value under key, overwriting any prior value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = value
}

// Get returns the current value for key. It never blocks waiting for a
// future writer; graph topology is what guarantees a predecessor has
// written the key before a successor reads it.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, exists := c.values[key]
	return v, exists
}

// Require returns the value for key or a MissingKeyError if it was never
// written.
func (c *Context) Require(key string) (any, error) {
	v, exists := c.Get(key)
	if !exists {
		return nil, errors.Trace(&MissingKeyError{Key: key})
	}
	return v, nil
}

// RequireString returns the value for key coerced to a string, or a
// MissingKeyError if absent.
func (c *Context) RequireString(key string) (string, error) {
	v, err := c.Require(key)
	if err != nil {
		return "", errors.Trace(err)
	}
	return cast.ToString(v), nil
}

func (c *Context) GetString(key string) (string, bool) {
	v, exists := c.Get(key)
	return cast.ToString(v), exists
}

func (c *Context) GetInt(key string) (int, bool) {
	v, exists := c.Get(key)
	return cast.ToInt(v), exists
}

func (c *Context) GetInt64(key string) (int64, bool) {
	v, exists := c.Get(key)
	return cast.ToInt64(v), exists
}

func (c *Context) GetBool(key string) (bool, bool) {
	v, exists := c.Get(key)
	return cast.ToBool(v), exists
}

func (c *Context) GetFloat64(key string) (float64, bool) {
	v, exists := c.Get(key)
	return cast.ToFloat64(v), exists
}

func (c *Context) GetStringSlice(key string) ([]string, bool) {
	v, exists := c.Get(key)
	return cast.ToStringSlice(v), exists
}

// GetStruct decodes the value stored under key into s through a JSON
// round trip, so values survive being stored as concrete structs or as
// generic maps alike.
func (c *Context) GetStruct(key string, s any) error {
	v, exists := c.Get(key)
	if !exists {
		return errors.Trace(&MissingKeyError{Key: key})
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Annotatef(err, "marshal value of %q", key)
	}
	return errors.Trace(json.Unmarshal(b, s))
}

// Keys returns the keys currently present, in no particular order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the current contents. The copy is
// detached from the context and safe to hand to archival code after the
// run terminates.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return utils.CloneMap(c.values)
}
