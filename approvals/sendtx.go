package approvals

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/hito"
	"dapp-wallet-tui/txbuild"
	"dapp-wallet-tui/wallets"
)

// SendTransaction drives one staged eth_sendTransaction through a wallet
// backend. Population always runs before anything is shown; a population
// failure removes the approve path entirely.
//
// Populate, Approve and CompleteScan run off the UI loop while the sheet
// renders the flow, so the mutable fields sit behind mu and are read
// through accessors.
type SendTransaction struct {
	P       *Pending
	Wallet  wallets.Wallet
	ChainID uint64

	Session   wallets.RemoteSession
	Transport hito.Transport
	Registry  *chains.Registry

	mu        sync.Mutex
	state     FlowState
	errText   string // retryable backend error
	popErr    string // fatal population error: cancel is the only exit
	populated *txbuild.Populated
	payload   string // outgoing device payload, for QR display
}

// NewSendTransaction binds a staged transaction request to its wallet
// backends. The flow starts populating; nothing is approvable until
// Populate finishes.
func NewSendTransaction(p *Pending, w wallets.Wallet, chainID uint64, sess wallets.RemoteSession, tr hito.Transport, reg *chains.Registry) *SendTransaction {
	return &SendTransaction{
		P:         p,
		Wallet:    w,
		ChainID:   chainID,
		Session:   sess,
		Transport: tr,
		Registry:  reg,
		state:     StatePopulating,
	}
}

func (f *SendTransaction) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *SendTransaction) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errText
}

func (f *SendTransaction) PopErr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.popErr
}

func (f *SendTransaction) Populated() *txbuild.Populated {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.populated
}

func (f *SendTransaction) Payload() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload
}

// Populate builds the fully specified transaction from the staged raw
// request. Must complete before the sheet offers approval. The request's
// own chainId wins over the instance's active chain, and every chain
// read comes from the resolved chain: when p.Reader is unset, a client
// for that chain is dialed through the flow's registry.
func (f *SendTransaction) Populate(ctx context.Context, p *txbuild.Populator) {
	f.setState(StatePopulating)
	active := common.HexToAddress(f.Wallet.Address)

	chainID, err := f.P.TxRequest.ResolveChainID(f.ChainID)
	if err != nil {
		f.failPopulate(err)
		return
	}
	if p.Reader == nil {
		if f.Registry == nil {
			f.failPopulate(errors.New("no chain client available"))
			return
		}
		client, err := f.Registry.ClientFor(ctx, chainID)
		if err != nil {
			f.failPopulate(err)
			return
		}
		p.Reader = client
	}

	pop, err := p.Populate(ctx, f.P.TxRequest, active, f.ChainID)
	if err != nil {
		f.failPopulate(err)
		return
	}

	f.mu.Lock()
	f.populated = pop
	f.state = StatePresenting
	f.mu.Unlock()
}

// CanApprove gates the approve action: a signable wallet and a
// successfully populated transaction
func (f *SendTransaction) CanApprove() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Wallet.CanSign() && f.populated != nil && f.popErr == ""
}

// Approve runs the backend-specific send step
func (f *SendTransaction) Approve(ctx context.Context) {
	if !f.CanApprove() {
		f.setErr("transaction cannot be approved")
		return
	}
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

func (f *SendTransaction) approveRemote(ctx context.Context) {
	if f.Session == nil {
		f.fail(errors.New("no live remote wallet session; reconnect the session"))
		return
	}
	addr := common.HexToAddress(f.Wallet.Address)
	pop := f.Populated()

	f.setState(StateHotPending)
	if err := f.Session.SwitchChain(ctx, f.ChainID); err != nil {
		f.fail(err)
		return
	}
	hash, err := f.Session.SendTransaction(ctx, pop.Tx, addr)
	if err != nil {
		f.fail(err)
		return
	}

	f.setState(StateResolved)
	f.P.Resolve(hash.Hex())
}

func (f *SendTransaction) approveHardware(ctx context.Context) {
	if err := f.Transport.Available(); err != nil {
		f.fail(err)
		return
	}

	pop := f.Populated()
	unsigned, err := hito.EncodeUnsignedTx(pop.Tx, pop.ChainID)
	if err != nil {
		f.fail(err)
		return
	}
	addr := common.HexToAddress(f.Wallet.Address)
	payload := hito.EncodeTxPayload(addr, unsigned)

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

// CompleteScan finishes the hardware path: decode the scanned signature,
// assemble the signed transaction, broadcast it raw, and reply with its
// hash. Step failures stay inline; the user may rescan or cancel.
func (f *SendTransaction) CompleteScan(ctx context.Context, payload string) {
	f.setErr("")
	pop := f.Populated()

	scanned, err := hito.DecodeScan(payload)
	if err != nil {
		f.setErr(err.Error())
		return
	}

	var signed *types.Transaction
	switch {
	case scanned.RawTransaction != nil:
		signed = new(types.Transaction)
		if err := signed.UnmarshalBinary(scanned.RawTransaction); err != nil {
			f.setErr(errors.Wrap(err, "invalid rawTransaction").Error())
			return
		}
	case scanned.Signature != nil:
		signed, err = hito.FinalizeTransaction(pop.Tx, pop.ChainID, scanned.Signature)
		if err != nil {
			f.setErr(err.Error())
			return
		}
	default:
		f.setErr("scanned payload carries no signature")
		return
	}

	client, err := f.Registry.ClientFor(ctx, pop.ChainID)
	if err != nil {
		f.setErr(err.Error())
		return
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		f.setErr(err.Error())
		return
	}

	f.setState(StateResolved)
	f.P.Resolve(signed.Hash().Hex())
}

// Cancel rejects the request; always available, population failures
// included
func (f *SendTransaction) Cancel() {
	f.setState(StateResolved)
	f.P.RejectedByUser()
}

func (f *SendTransaction) setState(s FlowState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

func (f *SendTransaction) setErr(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errText = msg
}

func (f *SendTransaction) failPopulate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popErr = strings.TrimSpace(err.Error())
	f.state = StatePresenting
}

func (f *SendTransaction) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StatePresenting
	f.errText = strings.TrimSpace(err.Error())
}
