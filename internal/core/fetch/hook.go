// Package fetch runs backend calls on behalf of a consumer and keeps the
// outcome as a snapshot: which parameters were asked for, whether the call
// is still running, and its data or error message.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a copy of a hook's state at one point in time. Data keeps the
// last successful payload across later failures.
type Snapshot[P, T any] struct {
	State      State
	Data       T
	HasData    bool
	Err        string
	Params     P
	UpdatedAt  time.Time
	Generation uint64
}

func (s Snapshot[P, T]) Loading() bool {
	return s.State == StateLoading
}

// For reports whether the snapshot was taken for params
func (s Snapshot[P, T]) For(params P) bool {
	return paramsKey(s.Params) == paramsKey(params)
}

// Func performs the backend call
type Func[P, T any] func(ctx context.Context, params P) (T, error)

type Options[P, T any] struct {
	// Name identifies the hook in logs
	Name  string
	Fetch Func[P, T]
	// Ready reports whether params are complete enough to issue a call.
	// Nil means always ready.
	Ready func(P) bool
	// Fallback is the error text used when an error carries no message
	Fallback string
	// Observer receives every state transition
	Observer func(Snapshot[P, T])
	Logger   ports.Logger
}

// Hook tracks one resource. Only the latest run may update the snapshot.
// Set cancels the run it supersedes; Load lets it finish for its own caller.
// Callers asking for parameters that are already in flight wait for that
// run instead of starting another.
type Hook[P, T any] struct {
	opts Options[P, T]

	mu      sync.Mutex
	snap    Snapshot[P, T]
	key     string
	hasKey  bool
	gen     uint64
	current *flight[P, T]
	flights map[string]*flight[P, T]
}

// flight is one run in progress. snap is final once done is closed.
type flight[P, T any] struct {
	key       string
	cancel    context.CancelFunc
	cancelled bool
	done      chan struct{}
	snap      Snapshot[P, T]
}

func New[P, T any](opts Options[P, T]) *Hook[P, T] {
	if opts.Fallback == "" {
		opts.Fallback = errors.GenericMessage
	}
	return &Hook[P, T]{opts: opts, flights: map[string]*flight[P, T]{}}
}

func (h *Hook[P, T]) Name() string {
	return h.opts.Name
}

func (h *Hook[P, T]) Snapshot() Snapshot[P, T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Set runs the hook for params unless they equal the parameters of the
// previous Set. Parameters are compared by their JSON encoding. It blocks
// until the run ends and never returns an error; failures are part of the
// returned snapshot.
func (h *Hook[P, T]) Set(ctx context.Context, params P) Snapshot[P, T] {
	return h.start(ctx, params, true, false)
}

// Load is Set for consumers that share one hook, such as concurrent HTTP
// requests. A run for other parameters is not cancelled, and the returned
// snapshot always belongs to params, even when a newer run has replaced it
// as the hook's current state.
func (h *Hook[P, T]) Load(ctx context.Context, params P) Snapshot[P, T] {
	return h.start(ctx, params, false, false)
}

// Reload is Load that ignores a settled result for params and calls again
func (h *Hook[P, T]) Reload(ctx context.Context, params P) Snapshot[P, T] {
	return h.start(ctx, params, false, true)
}

// Refetch runs again with the current parameters
func (h *Hook[P, T]) Refetch(ctx context.Context) Snapshot[P, T] {
	h.mu.Lock()
	params := h.snap.Params
	h.mu.Unlock()

	return h.start(ctx, params, true, true)
}

// Cancel aborts every run in flight and leaves the hook Idle. The next Set
// runs again whatever its parameters.
func (h *Hook[P, T]) Cancel() {
	h.mu.Lock()
	h.hasKey = false
	for _, f := range h.flights {
		f.cancelled = true
		f.cancel()
	}
	if h.current == nil {
		h.mu.Unlock()
		return
	}
	h.current = nil
	h.gen++
	h.snap.State = StateIdle
	h.snap.Generation = h.gen
	snap := h.snap
	h.mu.Unlock()

	h.notify(snap)
}

func (h *Hook[P, T]) start(ctx context.Context, params P, supersede, force bool) Snapshot[P, T] {
	key := paramsKey(params)

	h.mu.Lock()
	if f, ok := h.flights[key]; ok {
		h.mu.Unlock()
		return h.wait(ctx, f)
	}
	if !force && h.hasKey && h.key == key && h.current == nil {
		snap := h.snap
		h.mu.Unlock()
		return snap
	}
	return h.run(ctx, key, params, supersede)
}

func (h *Hook[P, T]) wait(ctx context.Context, f *flight[P, T]) Snapshot[P, T] {
	select {
	case <-f.done:
		return f.snap
	case <-ctx.Done():
		return h.Snapshot()
	}
}

// run is entered with h.mu held
func (h *Hook[P, T]) run(ctx context.Context, key string, params P, supersede bool) Snapshot[P, T] {
	if supersede && h.current != nil {
		h.current.cancelled = true
		h.current.cancel()
	}
	h.current = nil
	h.gen++
	gen := h.gen
	h.key = key
	h.hasKey = true
	h.snap.Params = params
	h.snap.Generation = gen

	if h.opts.Ready != nil && !h.opts.Ready(params) {
		changed := h.snap.State != StateIdle
		h.snap.State = StateIdle
		snap := h.snap
		h.mu.Unlock()
		if changed {
			h.notify(snap)
		}
		return snap
	}

	runCtx, cancel := context.WithCancel(ctx)
	f := &flight[P, T]{key: key, cancel: cancel, done: make(chan struct{})}
	h.current = f
	h.flights[key] = f
	h.snap.State = StateLoading
	h.snap.Err = ""
	loading := h.snap
	h.mu.Unlock()

	h.notify(loading)

	data, err := h.call(runCtx, params)
	cancel()

	own := Snapshot[P, T]{Params: params, UpdatedAt: time.Now(), Generation: gen}
	if err != nil {
		own.State = StateFailed
		own.Err = errors.UserMessage(err, h.opts.Fallback)
	} else {
		own.State = StateSuccess
		own.Data = data
		own.HasData = true
	}

	h.mu.Lock()
	if h.flights[key] == f {
		delete(h.flights, key)
	}
	if gen != h.gen {
		// superseded while in flight
		result := own
		if f.cancelled {
			result = h.snap
		}
		h.mu.Unlock()
		h.finish(f, result)
		return result
	}
	h.current = nil
	h.snap.UpdatedAt = own.UpdatedAt
	h.snap.State = own.State
	h.snap.Err = own.Err
	if err == nil {
		h.snap.Data = data
		h.snap.HasData = true
	}
	snap := h.snap
	h.mu.Unlock()

	h.finish(f, snap)
	if err != nil && h.opts.Logger != nil {
		h.opts.Logger.Warn("Fetch failed",
			ports.F("hook", h.opts.Name),
			ports.F("error", err.Error()))
	}
	h.notify(snap)
	return snap
}

func (h *Hook[P, T]) finish(f *flight[P, T], snap Snapshot[P, T]) {
	f.snap = snap
	close(f.done)
}

// call shields the hook from a panicking fetch function
func (h *Hook[P, T]) call(ctx context.Context, params P) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch %s panicked: %v", h.opts.Name, r)
		}
	}()
	return h.opts.Fetch(ctx, params)
}

func (h *Hook[P, T]) notify(snap Snapshot[P, T]) {
	if h.opts.Observer != nil {
		h.opts.Observer(snap)
	}
}

func paramsKey(params interface{}) string {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%#v", params)
	}
	return string(raw)
}
