package bridge

import (
	"encoding/json"
	"fmt"
)

// TypeEthereumRequest tags every page -> host request envelope
const TypeEthereumRequest = "ethereum_request"

// EIP-1193 provider error codes
const (
	CodeUserRejected = 4001 // user rejected the request
	CodeUnauthorized = 4100 // requires a connected wallet
	CodeUnsupported  = 4200 // unsupported method or bad params
	CodeDisconnected = 4900 // provider disconnected
	CodeUnknownChain = 4902 // chain id not recognized
)

// Provider event names delivered host -> page
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
	EventDisconnect      = "disconnect"
)

// RequestPayload is the JSON-RPC shaped body of a page request
type RequestPayload struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// RequestEnvelope is the page -> host wire message
type RequestEnvelope struct {
	Type    string         `json:"type"`
	ID      uint64         `json:"id"`
	Payload RequestPayload `json:"payload"`
}

// RPCError is the provider-visible error shape
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// Errf builds an RPCError with a formatted message
func Errf(code int, format string, args ...interface{}) *RPCError {
	return &RPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ResponseEnvelope is the host -> page resolution message. Exactly one of
// Result or Error is set.
type ResponseEnvelope struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// OK builds a success response, marshaling the result value
func OK(id uint64, result interface{}) ResponseEnvelope {
	raw, err := json.Marshal(result)
	if err != nil {
		return Fail(id, Errf(CodeUnsupported, "unserializable result: %v", err))
	}
	return ResponseEnvelope{ID: id, Result: raw}
}

// Fail builds an error response
func Fail(id uint64, rpcErr *RPCError) ResponseEnvelope {
	return ResponseEnvelope{ID: id, Error: rpcErr}
}

// EventEnvelope is a host -> page provider event
type EventEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event builds an event envelope, marshaling the data value
func Event(name string, data interface{}) EventEnvelope {
	raw, _ := json.Marshal(data)
	return EventEnvelope{Event: name, Data: raw}
}
