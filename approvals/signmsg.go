package approvals

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"dapp-wallet-tui/hito"
	"dapp-wallet-tui/wallets"
)

// SignMessage drives one staged message-signing request through a wallet
// backend. Backend failures land in Err and keep the flow open for retry;
// only Cancel and a successful signature are terminal.
//
// Approve runs off the UI loop while the sheet renders the flow, so the
// mutable fields sit behind mu and are read through accessors.
type SignMessage struct {
	P       *Pending
	Wallet  wallets.Wallet
	ChainID uint64

	Session   wallets.RemoteSession // wallet-connect backend
	Transport hito.Transport        // hito backend

	mu      sync.Mutex
	state   FlowState
	errText string
	payload string // outgoing device payload, for QR display
}

// NewSignMessage binds a staged sign request to its wallet backends
func NewSignMessage(p *Pending, w wallets.Wallet, chainID uint64, sess wallets.RemoteSession, tr hito.Transport) *SignMessage {
	return &SignMessage{
		P:         p,
		Wallet:    w,
		ChainID:   chainID,
		Session:   sess,
		Transport: tr,
		state:     StatePresenting,
	}
}

func (f *SignMessage) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *SignMessage) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errText
}

func (f *SignMessage) Payload() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload
}

// CanApprove reports whether the approve action is offered at all.
// View-only wallets show the sheet but can only cancel.
func (f *SignMessage) CanApprove() bool {
	return f.Wallet.CanSign()
}

// Approve runs the backend-specific signing step
func (f *SignMessage) Approve(ctx context.Context) {
	f.setErr("")
	switch f.Wallet.Kind {
	case wallets.KindWalletConnect:
		f.approveRemote(ctx)
	case wallets.KindHito:
		f.approveHardware(ctx)
	default:
		f.setErr("this wallet cannot sign")
	}
}

func (f *SignMessage) approveRemote(ctx context.Context) {
	if f.Session == nil {
		f.fail(errors.New("no live remote wallet session; reconnect the session"))
		return
	}
	addr := common.HexToAddress(f.Wallet.Address)

	live, err := f.Session.ConnectedAddress(ctx)
	if err != nil {
		f.fail(err)
		return
	}
	if live != addr {
		f.fail(errors.Errorf("session account %s does not match wallet; reconnect the session", live.Hex()))
		return
	}

	f.setState(StateHotPending)
	if err := f.Session.SwitchChain(ctx, f.ChainID); err != nil {
		f.fail(err)
		return
	}
	sig, err := f.Session.SignMessage(ctx, addr, f.P.Message)
	if err != nil {
		f.fail(err)
		return
	}

	f.setState(StateResolved)
	f.P.Resolve(hexutil.Encode(sig))
}

func (f *SignMessage) approveHardware(ctx context.Context) {
	if err := f.Transport.Available(); err != nil {
		f.fail(err)
		return
	}

	addr := common.HexToAddress(f.Wallet.Address)
	payload := hito.EncodeMessagePayload(addr, f.P.Message)

	f.mu.Lock()
	f.payload = payload
	f.state = StateAwaitingNFC
	f.mu.Unlock()

	if err := f.Transport.Write(ctx, payload); err != nil {
		f.fail(err)
		return
	}
	f.setState(StateAwaitingScan)
}

// CompleteScan consumes the signature QR scanned back from the device.
// A decode failure keeps the flow in StateAwaitingScan so the user can
// rescan without repeating the NFC write.
func (f *SignMessage) CompleteScan(payload string) {
	f.setErr("")
	scanned, err := hito.DecodeScan(payload)
	if err != nil {
		f.setErr(err.Error())
		return
	}
	if scanned.Signature == nil {
		f.setErr("scanned payload carries no signature")
		return
	}

	f.setState(StateResolved)
	f.P.Resolve(hexutil.Encode(scanned.Signature))
}

// Cancel is the only exit that does not produce a signature. Dismissing
// the sheet at any point before resolution must land here.
func (f *SignMessage) Cancel() {
	f.setState(StateResolved)
	f.P.RejectedByUser()
}

func (f *SignMessage) setState(s FlowState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

func (f *SignMessage) setErr(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errText = msg
}

func (f *SignMessage) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StatePresenting
	f.errText = strings.TrimSpace(err.Error())
}
