package bridge

import (
	"encoding/json"
	"testing"
)

func TestProviderRequestIDs(t *testing.T) {
	var sent []RequestEnvelope
	p := NewProvider(func(env RequestEnvelope) { sent = append(sent, env) })

	p.Request("eth_chainId")
	p.Request("eth_accounts")
	p.Request("eth_blockNumber")

	if len(sent) != 3 {
		t.Fatalf("Expected 3 envelopes, got %d", len(sent))
	}
	for i, env := range sent {
		if env.Type != TypeEthereumRequest {
			t.Errorf("envelope %d: type %q, want %q", i, env.Type, TypeEthereumRequest)
		}
		if env.ID != uint64(i+1) {
			t.Errorf("envelope %d: id %d, want %d", i, env.ID, i+1)
		}
	}
}

func TestProviderCorrelation(t *testing.T) {
	var sent []RequestEnvelope
	p := NewProvider(func(env RequestEnvelope) { sent = append(sent, env) })

	a := p.Request("eth_getBalance", "0xabc", "latest")
	b := p.Request("eth_blockNumber")
	c := p.Request("eth_chainId")

	// Resolve out of issuance order
	p.HandleResponse(OK(c.ID, "0x1"))
	p.HandleResponse(OK(a.ID, "0xde0b6b3a7640000"))
	p.HandleResponse(Fail(b.ID, Errf(CodeUnsupported, "boom")))

	t.Run("each reply lands on its own call", func(t *testing.T) {
		res, rpcErr := a.Outcome()
		if rpcErr != nil {
			t.Fatalf("call a errored: %v", rpcErr)
		}
		var bal string
		if err := json.Unmarshal(res, &bal); err != nil || bal != "0xde0b6b3a7640000" {
			t.Errorf("call a result = %s", res)
		}

		res, rpcErr = c.Outcome()
		if rpcErr != nil {
			t.Fatalf("call c errored: %v", rpcErr)
		}
		var chain string
		if err := json.Unmarshal(res, &chain); err != nil || chain != "0x1" {
			t.Errorf("call c result = %s", res)
		}

		if _, rpcErr = b.Outcome(); rpcErr == nil || rpcErr.Code != CodeUnsupported {
			t.Errorf("call b error = %v, want code %d", rpcErr, CodeUnsupported)
		}
	})

	t.Run("settled calls leave the table", func(t *testing.T) {
		if n := p.PendingCount(); n != 0 {
			t.Errorf("PendingCount = %d, want 0", n)
		}
	})

	t.Run("all calls report settled", func(t *testing.T) {
		for _, call := range []*Call{a, b, c} {
			if !call.Settled() {
				t.Errorf("call %d not settled", call.ID)
			}
		}
	})
}

func TestProviderUnknownIDIsNoOp(t *testing.T) {
	p := NewProvider(func(RequestEnvelope) {})
	call := p.Request("eth_chainId")

	// Stale id from a previous page lifetime: must not panic or settle anything
	p.HandleResponse(OK(9999, "0x1"))

	if call.Settled() {
		t.Error("live call settled by a stale response")
	}

	p.HandleResponse(OK(call.ID, "0x1"))
	// Double resolution of the same id is also a no-op
	p.HandleResponse(Fail(call.ID, Errf(CodeUserRejected, "late")))

	if _, rpcErr := call.Outcome(); rpcErr != nil {
		t.Errorf("second response overwrote the first: %v", rpcErr)
	}
}

func TestProviderEvents(t *testing.T) {
	p := NewProvider(func(RequestEnvelope) {})

	var got []string
	remove := p.On(EventChainChanged, func(data json.RawMessage) {
		var v string
		_ = json.Unmarshal(data, &v)
		got = append(got, v)
	})
	p.On(EventChainChanged, func(json.RawMessage) { got = append(got, "second") })

	p.HandleEvent(Event(EventChainChanged, "0xa"))
	if len(got) != 2 || got[0] != "0xa" || got[1] != "second" {
		t.Fatalf("fan-out got %v", got)
	}

	t.Run("removed listener stops firing", func(t *testing.T) {
		remove()
		got = nil
		p.HandleEvent(Event(EventChainChanged, "0x89"))
		if len(got) != 1 || got[0] != "second" {
			t.Errorf("after removal got %v", got)
		}
	})

	t.Run("unrelated events do not fire", func(t *testing.T) {
		got = nil
		p.HandleEvent(Event(EventDisconnect, nil))
		if len(got) != 0 {
			t.Errorf("disconnect fired chainChanged listeners: %v", got)
		}
	})
}

func TestProviderParamMarshalFailure(t *testing.T) {
	p := NewProvider(func(RequestEnvelope) {})

	call := p.Request("eth_call", func() {}) // funcs are not serializable
	if !call.Settled() {
		t.Fatal("expected immediate settlement on marshal failure")
	}
	if _, rpcErr := call.Outcome(); rpcErr == nil || rpcErr.Code != CodeUnsupported {
		t.Errorf("error = %v, want code %d", rpcErr, CodeUnsupported)
	}
}
