package approvals

import (
	"sync"

	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/txbuild"
)

// Kind tags what user decision a pending request is waiting on
type Kind int

const (
	KindConnect Kind = iota
	KindSignMessage
	KindSendTransaction
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindSignMessage:
		return "sign message"
	case KindSendTransaction:
		return "send transaction"
	}
	return "unknown"
}

// Responder carries terminal resolutions and events back into a page.
// The root app implements it by feeding the instance's provider.
type Responder interface {
	Deliver(instanceID string, env bridge.ResponseEnvelope)
	Emit(instanceID string, env bridge.EventEnvelope)
}

// Pending is the correlation record for one request suspended on user
// interaction. It resolves exactly once; later calls are no-ops.
type Pending struct {
	RequestID  uint64
	InstanceID string
	Method     string
	Kind       Kind

	// staged data, by kind
	Message   []byte          // sign-message: exact bytes to sign
	Display   string          // sign-message: human-readable form
	TypedData string          // typed-data payload, verbatim
	TxRequest txbuild.Request // send-transaction: raw dApp payload

	responder Responder
	queue     *Queue
	once      sync.Once
}

// Resolve answers the page with a result and advances the queue
func (p *Pending) Resolve(result interface{}) {
	p.once.Do(func() {
		p.responder.Deliver(p.InstanceID, bridge.OK(p.RequestID, result))
		if p.queue != nil {
			p.queue.remove(p)
		}
	})
}

// Reject answers the page with an error and advances the queue
func (p *Pending) Reject(code int, msg string) {
	p.once.Do(func() {
		p.responder.Deliver(p.InstanceID, bridge.Fail(p.RequestID, bridge.Errf(code, "%s", msg)))
		if p.queue != nil {
			p.queue.remove(p)
		}
	})
}

// RejectedByUser is the 4001 terminal every cancel path shares
func (p *Pending) RejectedByUser() {
	p.Reject(bridge.CodeUserRejected, "user rejected request")
}

// Emit fires a provider event into the originating page
func (p *Pending) Emit(env bridge.EventEnvelope) {
	p.responder.Emit(p.InstanceID, env)
}

// Queue is the process-wide FIFO of pending approvals. The approval
// sheet is modal and singular, so the UI binds to the head only; later
// arrivals wait their turn and surface when the head resolves.
type Queue struct {
	mu    sync.Mutex
	items []*Pending

	// OnChange fires with the new head (nil when drained) after every
	// push or terminal resolution
	OnChange func(head *Pending)
}

// NewQueue creates an empty approval queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push stages a pending request. Returns the staged record.
func (q *Queue) Push(p *Pending, responder Responder) *Pending {
	p.responder = responder
	p.queue = q

	q.mu.Lock()
	q.items = append(q.items, p)
	becameHead := len(q.items) == 1
	q.mu.Unlock()

	if becameHead {
		q.notify(p)
	}
	return p
}

// Head returns the request currently owed a user decision
func (q *Queue) Head() *Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Len reports how many requests are staged, the head included
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) remove(p *Pending) {
	q.mu.Lock()
	wasHead := len(q.items) > 0 && q.items[0] == p
	for i, item := range q.items {
		if item == p {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	var head *Pending
	if len(q.items) > 0 {
		head = q.items[0]
	}
	q.mu.Unlock()

	if wasHead {
		q.notify(head)
	}
}

func (q *Queue) notify(head *Pending) {
	if q.OnChange != nil {
		q.OnChange(head)
	}
}
