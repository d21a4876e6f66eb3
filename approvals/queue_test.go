package approvals

import (
	"testing"

	"dapp-wallet-tui/bridge"
)

// recorder captures what the responder delivered per instance
type recorder struct {
	responses map[string][]bridge.ResponseEnvelope
	events    map[string][]bridge.EventEnvelope
}

func newRecorder() *recorder {
	return &recorder{
		responses: make(map[string][]bridge.ResponseEnvelope),
		events:    make(map[string][]bridge.EventEnvelope),
	}
}

func (r *recorder) Deliver(instanceID string, env bridge.ResponseEnvelope) {
	r.responses[instanceID] = append(r.responses[instanceID], env)
}

func (r *recorder) Emit(instanceID string, env bridge.EventEnvelope) {
	r.events[instanceID] = append(r.events[instanceID], env)
}

func TestQueueFIFO(t *testing.T) {
	rec := newRecorder()
	q := NewQueue()

	var headChanges []*Pending
	q.OnChange = func(head *Pending) { headChanges = append(headChanges, head) }

	first := q.Push(&Pending{RequestID: 1, InstanceID: "a", Kind: KindSignMessage}, rec)
	second := q.Push(&Pending{RequestID: 2, InstanceID: "b", Kind: KindConnect}, rec)

	t.Run("second waits its turn", func(t *testing.T) {
		if q.Head() != first {
			t.Error("head is not the first staged request")
		}
		if len(headChanges) != 1 || headChanges[0] != first {
			t.Errorf("OnChange fired %d times, want once for the first push", len(headChanges))
		}
		if q.Len() != 2 {
			t.Errorf("Len = %d, want 2", q.Len())
		}
	})

	t.Run("resolution advances to the second", func(t *testing.T) {
		first.Resolve("0xsig")
		if q.Head() != second {
			t.Error("queue did not advance to the second request")
		}
		if len(headChanges) != 2 || headChanges[1] != second {
			t.Error("OnChange did not surface the new head")
		}
		if len(rec.responses["a"]) != 1 || rec.responses["a"][0].Error != nil {
			t.Errorf("instance a replies = %v", rec.responses["a"])
		}
	})

	t.Run("draining notifies with nil head", func(t *testing.T) {
		second.RejectedByUser()
		if q.Head() != nil {
			t.Error("queue not drained")
		}
		if headChanges[len(headChanges)-1] != nil {
			t.Error("final OnChange should carry a nil head")
		}
		errEnv := rec.responses["b"][0]
		if errEnv.Error == nil || errEnv.Error.Code != bridge.CodeUserRejected {
			t.Errorf("expected 4001 rejection, got %v", errEnv)
		}
	})
}

func TestPendingResolvesExactlyOnce(t *testing.T) {
	rec := newRecorder()
	q := NewQueue()

	p := q.Push(&Pending{RequestID: 9, InstanceID: "x", Kind: KindSignMessage}, rec)
	p.Resolve("first")
	p.Reject(bridge.CodeUserRejected, "late cancel")
	p.Resolve("third")

	if len(rec.responses["x"]) != 1 {
		t.Fatalf("delivered %d responses, want exactly 1", len(rec.responses["x"]))
	}
	if rec.responses["x"][0].Error != nil {
		t.Error("the first resolution should have won")
	}
}

func TestQueueRemovesNonHead(t *testing.T) {
	rec := newRecorder()
	q := NewQueue()

	first := q.Push(&Pending{RequestID: 1, InstanceID: "a"}, rec)
	second := q.Push(&Pending{RequestID: 2, InstanceID: "a"}, rec)
	third := q.Push(&Pending{RequestID: 3, InstanceID: "a"}, rec)

	// a non-head request resolving (e.g. its page navigated away) must
	// not disturb the head
	second.Reject(bridge.CodeDisconnected, "page gone")
	if q.Head() != first {
		t.Error("head changed when a middle item resolved")
	}
	first.Resolve(nil)
	if q.Head() != third {
		t.Error("queue did not skip the already-resolved middle item")
	}
}
