// Package hooks bundles the source-control event schemas and the dispatch
// registry that routes event payloads to registered handlers. Payloads are
// validated against the event's schema before a handler runs; an event with
// no registered handler is a no-op, not an error.
package hooks

import (
	"context"
	"fmt"
	"sync"

	simpleschema "github.com/commonenv/simpleschema"
)

// Event names the source-control events a repository can raise.
type Event string

const (
	Commit Event = "Commit" // prior to committing a change locally
	Push   Event = "Push"   // prior to pushing local changes to the remote
	Pushed Event = "Pushed" // after changes pushed from a client arrive
)

// SchemaText describes the event payloads. ChangeInfo is the shared fragment;
// Commit extends it, Push and Pushed carry a url plus the affected changes.
// The file lists disable ensure_exists: removed files are gone by definition,
// and hook payloads may describe working trees the validator cannot see.
const SchemaText = `# Source-control event payloads
(ChangeInfo):
  [id string min_length=1]
  [author string min_length=1]
  [date datetime]
  [description string ?]
  <added filename * ensure_exists=false>
  <modified filename * ensure_exists=false>
  <removed filename * ensure_exists=false>

<Commit ChangeInfo ?>:
  [branch string ?]

<Push ?>:
  [url uri]
  <changes ChangeInfo *>

<Pushed ?>:
  [url uri]
  <changes ChangeInfo *>
`

var (
	once  sync.Once
	model *simpleschema.Model
)

// Schema returns the parsed event-payload model, built once and shared.
func Schema() *simpleschema.Model {
	once.Do(func() {
		m, err := simpleschema.Parse(SchemaText)
		if err != nil {
			panic("hooks: embedded schema is invalid: " + err.Error())
		}
		model = m
	})
	return model
}

// Handler processes one validated event payload.
type Handler func(ctx context.Context, data map[string]any) error

// Registry maps events to handlers. It is populated at startup and looked up
// at dispatch time.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Event]Handler
	opts     []simpleschema.ValidateOption
}

// NewRegistry creates an empty registry. Validate options (for example
// WithOracle) apply to every dispatched payload.
func NewRegistry(opts ...simpleschema.ValidateOption) *Registry {
	return &Registry{handlers: make(map[Event]Handler), opts: opts}
}

// Register binds a handler to an event.
func (r *Registry) Register(ev Event, h Handler) error {
	if h == nil {
		return fmt.Errorf("hooks: cannot register nil handler for %q", ev)
	}
	if Schema().Element(string(ev)) == nil {
		return fmt.Errorf("hooks: unknown event %q", ev)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[ev]; exists {
		return fmt.Errorf("hooks: handler for %q already registered", ev)
	}
	r.handlers[ev] = h
	return nil
}

// Dispatch validates data against the event's schema and invokes the
// registered handler. A missing handler returns nil; an invalid payload
// returns the collected simpleschema.Violations without invoking anything.
func (r *Registry) Dispatch(ctx context.Context, ev Event, data map[string]any) error {
	node := Schema().Element(string(ev))
	if node == nil {
		return fmt.Errorf("hooks: unknown event %q", ev)
	}
	if err := simpleschema.ValidateNode(ctx, data, node, r.opts...); err != nil {
		return err
	}
	r.mu.RLock()
	h := r.handlers[ev]
	r.mu.RUnlock()
	if h == nil {
		return nil
	}
	return h(ctx, data)
}

// defaultRegistry backs the package-level convenience functions.
var defaultRegistry = NewRegistry()

// Register binds a handler to an event in the default registry.
func Register(ev Event, h Handler) error { return defaultRegistry.Register(ev, h) }

// Dispatch routes an event through the default registry.
func Dispatch(ctx context.Context, ev Event, data map[string]any) error {
	return defaultRegistry.Dispatch(ctx, ev, data)
}
