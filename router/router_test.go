package router

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"dapp-wallet-tui/approvals"
	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/wallets"
)

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

func (r *recorder) last(t *testing.T, instanceID string) bridge.ResponseEnvelope {
	t.Helper()
	rs := r.responses[instanceID]
	if len(rs) == 0 {
		t.Fatalf("no response delivered to %s", instanceID)
	}
	return rs[len(rs)-1]
}

func newTestRouter() (*Router, *recorder) {
	rec := newRecorder()
	return &Router{
		Queue:     approvals.NewQueue(),
		Responder: rec,
	}, rec
}

func request(id uint64, method string, params ...interface{}) bridge.RequestEnvelope {
	env := bridge.RequestEnvelope{
		Type:    bridge.TypeEthereumRequest,
		ID:      id,
		Payload: bridge.RequestPayload{Method: method},
	}
	for _, p := range params {
		raw, _ := json.Marshal(p)
		env.Payload.Params = append(env.Payload.Params, raw)
	}
	return env
}

func connectedInstance(kind wallets.Kind, addr string) *session.Instance {
	in := session.NewInstance("inst-1", "https://dapp.example.org", 1)
	in.Connect(wallets.Wallet{Kind: kind, Address: addr})
	return in
}

func TestChainIDReply(t *testing.T) {
	r, rec := newTestRouter()
	in := session.NewInstance("inst-1", "https://dapp.example.org", 137)

	r.Handle(context.Background(), in, request(1, "eth_chainId"))

	env := rec.last(t, "inst-1")
	if env.ID != 1 {
		t.Errorf("reply id %d, want 1", env.ID)
	}
	var chain string
	if err := json.Unmarshal(env.Result, &chain); err != nil || chain != "0x89" {
		t.Errorf("result %s, want \"0x89\"", env.Result)
	}
}

func TestAccountsNeverPrompts(t *testing.T) {
	r, rec := newTestRouter()

	t.Run("disconnected", func(t *testing.T) {
		in := session.NewInstance("inst-1", "https://dapp.example.org", 1)
		r.Handle(context.Background(), in, request(1, "eth_accounts"))
		var accounts []string
		if err := json.Unmarshal(rec.last(t, "inst-1").Result, &accounts); err != nil || len(accounts) != 0 {
			t.Errorf("result %s, want []", rec.last(t, "inst-1").Result)
		}
		if r.Queue.Len() != 0 {
			t.Error("eth_accounts staged an approval")
		}
	})

	t.Run("connected", func(t *testing.T) {
		in := connectedInstance(wallets.KindViewOnly, "0xABC")
		r.Handle(context.Background(), in, request(2, "eth_accounts"))
		var accounts []string
		if err := json.Unmarshal(rec.last(t, "inst-1").Result, &accounts); err != nil || len(accounts) != 1 || accounts[0] != "0xABC" {
			t.Errorf("result %s, want [0xABC]", rec.last(t, "inst-1").Result)
		}
	})
}

func TestRequestAccounts(t *testing.T) {
	t.Run("connected replies immediately", func(t *testing.T) {
		r, rec := newTestRouter()
		in := connectedInstance(wallets.KindWalletConnect, "0xABC")
		r.Handle(context.Background(), in, request(1, "eth_requestAccounts"))
		if rec.last(t, "inst-1").Error != nil {
			t.Fatalf("unexpected error %v", rec.last(t, "inst-1").Error)
		}
		if r.Queue.Len() != 0 {
			t.Error("connected request staged an approval anyway")
		}
	})

	t.Run("disconnected hands off to connect flow", func(t *testing.T) {
		r, rec := newTestRouter()
		in := session.NewInstance("inst-1", "https://dapp.example.org", 1)
		r.Handle(context.Background(), in, request(1, "eth_requestAccounts"))

		if len(rec.responses["inst-1"]) != 0 {
			t.Error("handed-off request must not be answered by the router")
		}
		head := r.Queue.Head()
		if head == nil || head.Kind != approvals.KindConnect || head.RequestID != 1 {
			t.Fatalf("queue head = %+v", head)
		}

		// user picks a wallet; flow resolves the original request
		flow := &approvals.Connect{P: head, Instance: in}
		flow.Approve(wallets.Wallet{Kind: wallets.KindViewOnly, Address: "0xDEF"})

		var accounts []string
		if err := json.Unmarshal(rec.last(t, "inst-1").Result, &accounts); err != nil || accounts[0] != "0xDEF" {
			t.Errorf("result %s, want [0xDEF]", rec.last(t, "inst-1").Result)
		}
		if !in.Connected() {
			t.Error("instance not connected after approval")
		}
	})
}

func TestSendTransactionRequiresConnection(t *testing.T) {
	r, rec := newTestRouter()
	in := session.NewInstance("inst-1", "https://dapp.example.org", 1)

	r.Handle(context.Background(), in, request(1, "eth_sendTransaction",
		map[string]string{"from": "0xABC", "to": "0xDEF"}))

	env := rec.last(t, "inst-1")
	if env.Error == nil || env.Error.Code != bridge.CodeUnauthorized {
		t.Errorf("error %v, want code 4100", env.Error)
	}
}

func TestSendTransactionStagesRawPayload(t *testing.T) {
	r, _ := newTestRouter()
	in := connectedInstance(wallets.KindHito, "0xABC")

	r.Handle(context.Background(), in, request(7, "eth_sendTransaction", map[string]string{
		"from":  "0xABC",
		"to":    "0xDEF",
		"value": "0x1",
	}))

	head := r.Queue.Head()
	if head == nil || head.Kind != approvals.KindSendTransaction {
		t.Fatalf("queue head = %+v", head)
	}
	if head.TxRequest.From != "0xABC" || head.TxRequest.Value != "0x1" {
		t.Errorf("staged tx request = %+v", head.TxRequest)
	}
}

func TestSignMessageExtraction(t *testing.T) {
	t.Run("personal_sign decodes hex to text", func(t *testing.T) {
		r, _ := newTestRouter()
		in := connectedInstance(wallets.KindWalletConnect, "0xABC")
		r.Handle(context.Background(), in, request(1, "personal_sign", "0x48656c6c6f", "0xABC"))

		head := r.Queue.Head()
		if head == nil {
			t.Fatal("nothing staged")
		}
		if head.Display != "Hello" {
			t.Errorf("display %q, want Hello", head.Display)
		}
		if string(head.Message) != "Hello" {
			t.Errorf("message bytes %q", head.Message)
		}
	})

	t.Run("eth_sign takes the second param", func(t *testing.T) {
		r, _ := newTestRouter()
		in := connectedInstance(wallets.KindWalletConnect, "0xABC")
		r.Handle(context.Background(), in, request(2, "eth_sign", "0xABC", "0x776f726c64"))

		head := r.Queue.Head()
		if head == nil || head.Display != "world" {
			t.Fatalf("head = %+v", head)
		}
	})

	t.Run("undecodable hex falls back to raw string", func(t *testing.T) {
		r, _ := newTestRouter()
		in := connectedInstance(wallets.KindWalletConnect, "0xABC")
		r.Handle(context.Background(), in, request(3, "personal_sign", "plain text", "0xABC"))

		head := r.Queue.Head()
		if head == nil || head.Display != "plain text" {
			t.Fatalf("head = %+v", head)
		}
	})

	t.Run("typed data staged verbatim", func(t *testing.T) {
		r, _ := newTestRouter()
		in := connectedInstance(wallets.KindWalletConnect, "0xABC")
		typed := map[string]interface{}{"types": map[string]interface{}{}, "primaryType": "Mail"}
		r.Handle(context.Background(), in, request(4, "eth_signTypedData_v4", "0xABC", typed))

		head := r.Queue.Head()
		if head == nil || head.TypedData == "" {
			t.Fatalf("head = %+v", head)
		}
	})

	t.Run("requires connection", func(t *testing.T) {
		r, rec := newTestRouter()
		in := session.NewInstance("inst-1", "https://dapp.example.org", 1)
		r.Handle(context.Background(), in, request(5, "personal_sign", "0x00", "0xABC"))
		if env := rec.last(t, "inst-1"); env.Error == nil || env.Error.Code != bridge.CodeUnauthorized {
			t.Errorf("error %v, want 4100", env.Error)
		}
	})
}

func TestSwitchChain(t *testing.T) {
	t.Run("known chain", func(t *testing.T) {
		r, rec := newTestRouter()
		in := connectedInstance(wallets.KindViewOnly, "0xABC")
		r.Handle(context.Background(), in, request(1, "wallet_switchEthereumChain",
			map[string]string{"chainId": "0xa"}))

		if in.ChainID() != 10 {
			t.Errorf("chain id %d, want 10", in.ChainID())
		}
		if rec.last(t, "inst-1").Error != nil {
			t.Errorf("unexpected error %v", rec.last(t, "inst-1").Error)
		}

		events := rec.events["inst-1"]
		if len(events) != 1 || events[0].Event != bridge.EventChainChanged {
			t.Fatalf("events = %v", events)
		}
		var hexID string
		if json.Unmarshal(events[0].Data, &hexID) != nil || hexID != "0xa" {
			t.Errorf("chainChanged payload %s", events[0].Data)
		}
	})

	t.Run("unknown chain is 4902", func(t *testing.T) {
		r, rec := newTestRouter()
		in := connectedInstance(wallets.KindViewOnly, "0xABC")
		r.Handle(context.Background(), in, request(2, "wallet_switchEthereumChain",
			map[string]string{"chainId": "0xdeadbeef"}))

		if env := rec.last(t, "inst-1"); env.Error == nil || env.Error.Code != bridge.CodeUnknownChain {
			t.Errorf("error %v, want 4902", env.Error)
		}
		if in.ChainID() != 1 {
			t.Error("chain id changed despite rejection")
		}
	})
}

func TestAddChainAcknowledgedNoOp(t *testing.T) {
	r, rec := newTestRouter()
	in := connectedInstance(wallets.KindViewOnly, "0xABC")

	t.Run("with chainId succeeds", func(t *testing.T) {
		r.Handle(context.Background(), in, request(1, "wallet_addEthereumChain",
			map[string]string{"chainId": "0x64"}))
		if rec.last(t, "inst-1").Error != nil {
			t.Errorf("unexpected error %v", rec.last(t, "inst-1").Error)
		}
	})

	t.Run("missing chainId is 4200", func(t *testing.T) {
		r.Handle(context.Background(), in, request(2, "wallet_addEthereumChain",
			map[string]string{}))
		if env := rec.last(t, "inst-1"); env.Error == nil || env.Error.Code != bridge.CodeUnsupported {
			t.Errorf("error %v, want 4200", env.Error)
		}
	})
}

func TestPassthroughParamValidation(t *testing.T) {
	r, rec := newTestRouter() // nil registry: a network call would panic

	in := connectedInstance(wallets.KindViewOnly, "0xABC")
	r.Handle(context.Background(), in, request(1, "eth_getBalance"))

	env := rec.last(t, "inst-1")
	if env.Error == nil || env.Error.Code != bridge.CodeUnsupported {
		t.Fatalf("error %v, want 4200", env.Error)
	}
	if env.Error.Message != "eth_getBalance requires address parameter" {
		t.Errorf("message %q", env.Error.Message)
	}
}

func TestUnsupportedMethod(t *testing.T) {
	r, rec := newTestRouter()
	in := session.NewInstance("inst-1", "https://dapp.example.org", 1)

	r.Handle(context.Background(), in, request(1, "eth_coinbase"))

	env := rec.last(t, "inst-1")
	if env.Error == nil || env.Error.Code != bridge.CodeUnsupported {
		t.Fatalf("error %v, want 4200", env.Error)
	}
}

func TestNoSilentHang(t *testing.T) {
	// Every classified method must either answer or stage an approval;
	// nothing may fall through unanswered.
	methods := []string{
		"eth_requestAccounts", "eth_accounts", "eth_chainId",
		"eth_sendTransaction", "eth_sign", "personal_sign",
		"eth_signTypedData_v4", "wallet_switchEthereumChain",
		"wallet_addEthereumChain", "eth_getBalance", "wallet_madeUpMethod",
	}

	for _, method := range methods {
		r, rec := newTestRouter()
		in := session.NewInstance("inst-1", "https://dapp.example.org", 1)
		// no params and no connection: worst case for every handler
		r.Handle(context.Background(), in, request(1, method))

		answered := len(rec.responses["inst-1"]) > 0
		staged := r.Queue.Len() > 0
		if !answered && !staged {
			t.Errorf("%s left the request hanging", method)
		}
		if answered && staged {
			t.Errorf("%s both answered and staged", method)
		}
	}
}

func TestDisconnect(t *testing.T) {
	r, rec := newTestRouter()
	in := connectedInstance(wallets.KindWalletConnect, "0xABC")

	r.Disconnect(in)

	if _, ok := in.Wallet(); in.Connected() || ok {
		t.Error("instance still connected")
	}
	events := rec.events["inst-1"]
	if len(events) != 2 || events[0].Event != bridge.EventAccountsChanged || events[1].Event != bridge.EventDisconnect {
		t.Errorf("events = %v", events)
	}
}

func TestHandleConcurrentWithRender(t *testing.T) {
	// requests are handled on their own goroutines while the UI loop
	// reads the same instance to render the status line; chain switches
	// must not tear under that interleaving
	r, _ := newTestRouter()
	in := connectedInstance(wallets.KindViewOnly, "0xABC")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			chainID := "0xa"
			if i%2 == 0 {
				chainID = "0x1"
			}
			r.Handle(context.Background(), in, request(uint64(i+1),
				"wallet_switchEthereumChain", map[string]string{"chainId": chainID}))
		}
	}()
	for i := 0; i < 200; i++ {
		_ = in.ChainID()
		_ = in.Accounts()
		_, _ = in.ConnectedWallet()
	}
	wg.Wait()

	if got := in.ChainID(); got != 1 && got != 10 {
		t.Errorf("chain id %d, want one of the switched targets", got)
	}
}
