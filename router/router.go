package router

import (
	"context"
	"encoding/json"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"dapp-wallet-tui/approvals"
	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/txbuild"
)

// Router is the host-side request state machine. Every inbound envelope
// ends in exactly one of: an immediate reply, a passthrough reply, or a
// staged approval whose flow controller owns the eventual resolution.
type Router struct {
	Registry  *chains.Registry
	Queue     *approvals.Queue
	Responder approvals.Responder

	mu  sync.Mutex
	log *log.Logger
}

// SetLog swaps the logger; Handle runs on request goroutines, so the
// field cannot be assigned directly while the router is live
func (r *Router) SetLog(l *log.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = l
}

func (r *Router) logger() *log.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log
}

// Handle classifies and drives one request from one app instance.
// Passthrough calls block on the remote RPC, so callers run Handle off
// the UI loop; everything else returns promptly.
func (r *Router) Handle(ctx context.Context, in *session.Instance, env bridge.RequestEnvelope) {
	if env.Type != bridge.TypeEthereumRequest {
		return
	}
	method := env.Payload.Method
	params := env.Payload.Params
	if l := r.logger(); l != nil {
		l.Debug("request", "instance", in.ID, "id", env.ID, "method", method)
	}

	switch classify(method) {
	case cmdRequestAccounts:
		r.requestAccounts(in, env.ID)
	case cmdAccounts:
		r.reply(in, bridge.OK(env.ID, in.Accounts()))
	case cmdChainID:
		r.reply(in, bridge.OK(env.ID, chains.HexChainID(in.ChainID())))
	case cmdSendTransaction:
		r.sendTransaction(in, env.ID, params)
	case cmdSignMessage:
		r.signMessage(in, env.ID, method, params)
	case cmdSignTypedData:
		r.signTypedData(in, env.ID, method, params)
	case cmdSwitchChain:
		r.switchChain(in, env.ID, params)
	case cmdAddChain:
		r.addChain(in, env.ID, params)
	case cmdPassthrough:
		r.passthrough(ctx, in, env.ID, method, params)
	case cmdUnsupported:
		r.reply(in, bridge.Fail(env.ID,
			bridge.Errf(bridge.CodeUnsupported, "method %s is not supported", method)))
	}
}

// Disconnect clears an instance's connection and tells its page
func (r *Router) Disconnect(in *session.Instance) {
	in.Disconnect()
	r.Responder.Emit(in.ID, bridge.Event(bridge.EventAccountsChanged, []string{}))
	r.Responder.Emit(in.ID, bridge.Event(bridge.EventDisconnect, nil))
}

func (r *Router) reply(in *session.Instance, env bridge.ResponseEnvelope) {
	r.Responder.Deliver(in.ID, env)
}

// requireConnected answers 4100 and returns false when the instance has
// no connected wallet
func (r *Router) requireConnected(in *session.Instance, id uint64) bool {
	if _, ok := in.ConnectedWallet(); ok {
		return true
	}
	r.reply(in, bridge.Fail(id,
		bridge.Errf(bridge.CodeUnauthorized, "please connect wallet first")))
	return false
}

func (r *Router) requestAccounts(in *session.Instance, id uint64) {
	if _, ok := in.ConnectedWallet(); ok {
		r.reply(in, bridge.OK(id, in.Accounts()))
		return
	}
	r.Queue.Push(&approvals.Pending{
		RequestID:  id,
		InstanceID: in.ID,
		Method:     "eth_requestAccounts",
		Kind:       approvals.KindConnect,
	}, r.Responder)
}

func (r *Router) sendTransaction(in *session.Instance, id uint64, params []json.RawMessage) {
	if !r.requireConnected(in, id) {
		return
	}
	if len(params) < 1 {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "eth_sendTransaction requires transaction parameter")))
		return
	}
	var req txbuild.Request
	if err := json.Unmarshal(params[0], &req); err != nil {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "invalid transaction parameter: %v", err)))
		return
	}
	r.Queue.Push(&approvals.Pending{
		RequestID:  id,
		InstanceID: in.ID,
		Method:     "eth_sendTransaction",
		Kind:       approvals.KindSendTransaction,
		TxRequest:  req,
	}, r.Responder)
}

func (r *Router) signMessage(in *session.Instance, id uint64, method string, params []json.RawMessage) {
	if !r.requireConnected(in, id) {
		return
	}

	// eth_sign is [address, message]; personal_sign is [message, address]
	idx := 0
	if method == "eth_sign" {
		idx = 1
	}
	raw, ok := paramString(params, idx)
	if !ok {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "%s requires message parameter", method)))
		return
	}

	msg, display := decodeMessage(raw)
	r.Queue.Push(&approvals.Pending{
		RequestID:  id,
		InstanceID: in.ID,
		Method:     method,
		Kind:       approvals.KindSignMessage,
		Message:    msg,
		Display:    display,
	}, r.Responder)
}

func (r *Router) signTypedData(in *session.Instance, id uint64, method string, params []json.RawMessage) {
	if !r.requireConnected(in, id) {
		return
	}
	if len(params) < 2 {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "%s requires typed data parameter", method)))
		return
	}

	// staged verbatim for display; the payload may be an object or an
	// already-serialized string
	typed := string(params[1])
	var asString string
	if err := json.Unmarshal(params[1], &asString); err == nil {
		typed = asString
	}

	r.Queue.Push(&approvals.Pending{
		RequestID:  id,
		InstanceID: in.ID,
		Method:     method,
		Kind:       approvals.KindSignMessage,
		Message:    []byte(typed),
		Display:    typed,
		TypedData:  typed,
	}, r.Responder)
}

type switchChainParam struct {
	ChainID string `json:"chainId"`
}

func (r *Router) switchChain(in *session.Instance, id uint64, params []json.RawMessage) {
	if !r.requireConnected(in, id) {
		return
	}
	var p switchChainParam
	if len(params) < 1 || json.Unmarshal(params[0], &p) != nil || p.ChainID == "" {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "wallet_switchEthereumChain requires chainId parameter")))
		return
	}
	chainID, err := chains.ParseChainID(p.ChainID)
	if err != nil {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "invalid chainId %q", p.ChainID)))
		return
	}
	if _, known := chains.ByID(chainID); !known {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnknownChain, "unrecognized chain id %s", p.ChainID)))
		return
	}

	in.SetChainID(chainID)
	r.reply(in, bridge.OK(id, nil))
	r.Responder.Emit(in.ID, bridge.Event(bridge.EventChainChanged, chains.HexChainID(chainID)))
}

func (r *Router) addChain(in *session.Instance, id uint64, params []json.RawMessage) {
	if !r.requireConnected(in, id) {
		return
	}
	var p switchChainParam
	if len(params) < 1 || json.Unmarshal(params[0], &p) != nil || p.ChainID == "" {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "wallet_addEthereumChain requires chainId parameter")))
		return
	}
	// acknowledged no-op: custom chains are not persisted
	r.reply(in, bridge.OK(id, nil))
}

func (r *Router) passthrough(ctx context.Context, in *session.Instance, id uint64, method string, params []json.RawMessage) {
	spec := passthroughMethods[method]
	if len(params) < spec.minParams {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeUnsupported, "%s requires %s", method, spec.paramHint)))
		return
	}

	client, err := r.Registry.ClientFor(ctx, in.ChainID())
	if err != nil {
		r.reply(in, bridge.Fail(id,
			bridge.Errf(bridge.CodeDisconnected, "%v", err)))
		return
	}

	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p
	}
	var result json.RawMessage
	if err := client.CallRaw(ctx, &result, method, args...); err != nil {
		code := -32603
		if rpcErr, ok := err.(gethrpc.Error); ok {
			code = rpcErr.ErrorCode()
		}
		r.reply(in, bridge.Fail(id, bridge.Errf(code, "%s", err.Error())))
		return
	}
	r.reply(in, bridge.ResponseEnvelope{ID: id, Result: result})
}

// paramString extracts params[i] as a JSON string
func paramString(params []json.RawMessage, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(params[i], &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeMessage turns the wire message into signing bytes plus a display
// string: hex-looking input is decoded to UTF-8 for the human, falling
// back to the raw string when the bytes aren't text
func decodeMessage(raw string) (msg []byte, display string) {
	if b, err := hexutil.Decode(raw); err == nil {
		if utf8.Valid(b) {
			return b, string(b)
		}
		return b, raw
	}
	return []byte(raw), raw
}
