package bridge

import (
	"encoding/json"
	"sync"
)

// Call is one in-flight request seen from the page side. It settles
// exactly once, when the host delivers a matching response envelope.
type Call struct {
	ID uint64

	done   chan struct{}
	result json.RawMessage
	err    *RPCError
}

// Done is closed once the call has settled
func (c *Call) Done() <-chan struct{} { return c.done }

// Settled reports whether the call already has an outcome
func (c *Call) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Outcome returns the result or error. Only valid after Done is closed.
func (c *Call) Outcome() (json.RawMessage, *RPCError) {
	return c.result, c.err
}

// Listener receives provider events fanned out by the host
type Listener func(data json.RawMessage)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Provider is the page-side half of the bridge: the wallet-shaped object a
// sandboxed dApp page talks to. One Provider exists per page lifetime; ids
// start at 1 and increase strictly, and the correlation table is private to
// the instance so concurrent pages never share state.
type Provider struct {
	mu         sync.Mutex
	nextID     uint64
	nextListen uint64
	pending    map[uint64]*Call
	listeners  map[string][]listenerEntry
	outbound   func(RequestEnvelope)
}

// NewProvider creates a provider shipping requests through outbound
func NewProvider(outbound func(RequestEnvelope)) *Provider {
	return &Provider{
		pending:   make(map[uint64]*Call),
		listeners: make(map[string][]listenerEntry),
		outbound:  outbound,
	}
}

// Request issues a JSON-RPC request to the host and returns the pending
// call. Params are marshaled into the envelope; a marshal failure settles
// the call immediately instead of shipping a broken envelope.
func (p *Provider) Request(method string, params ...interface{}) *Call {
	p.mu.Lock()
	p.nextID++
	call := &Call{ID: p.nextID, done: make(chan struct{})}
	p.pending[call.ID] = call
	p.mu.Unlock()

	env := RequestEnvelope{
		Type: TypeEthereumRequest,
		ID:   call.ID,
		Payload: RequestPayload{
			Method: method,
		},
	}
	for _, param := range params {
		raw, err := json.Marshal(param)
		if err != nil {
			p.HandleResponse(Fail(call.ID, Errf(CodeUnsupported, "unserializable param: %v", err)))
			return call
		}
		env.Payload.Params = append(env.Payload.Params, raw)
	}

	p.outbound(env)
	return call
}

// HandleResponse settles the pending call matching the envelope id and
// drops it from the table. An unknown id is a silent no-op: the call was
// already resolved, or belongs to a previous page lifetime.
func (p *Provider) HandleResponse(env ResponseEnvelope) {
	p.mu.Lock()
	call, ok := p.pending[env.ID]
	if ok {
		delete(p.pending, env.ID)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	call.result = env.Result
	call.err = env.Error
	close(call.done)
}

// On registers an event listener and returns a removal func
func (p *Provider) On(event string, fn Listener) (remove func()) {
	p.mu.Lock()
	p.nextListen++
	id := p.nextListen
	p.listeners[event] = append(p.listeners[event], listenerEntry{id: id, fn: fn})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		entries := p.listeners[event]
		for i, e := range entries {
			if e.id == id {
				p.listeners[event] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// HandleEvent fans an event envelope out to every registered listener
func (p *Provider) HandleEvent(env EventEnvelope) {
	p.mu.Lock()
	entries := append([]listenerEntry{}, p.listeners[env.Event]...)
	p.mu.Unlock()
	for _, e := range entries {
		e.fn(env.Data)
	}
}

// PendingCount reports how many calls are still awaiting a response
func (p *Provider) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
