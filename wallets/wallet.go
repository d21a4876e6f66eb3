package wallets

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Kind identifies a wallet backend
type Kind string

const (
	KindViewOnly      Kind = "view-only"
	KindWalletConnect Kind = "wallet-connect"
	KindHito          Kind = "hito"

	// Reserved backends, present in stored data but not wired to any flow
	KindLedger   Kind = "ledger"
	KindLattice1 Kind = "lattice1"
	KindEOA      Kind = "eoa"
)

// Wallet is one stored wallet record
type Wallet struct {
	Kind    Kind   `json:"kind"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// CanSign reports whether this wallet's backend can produce signatures.
// View-only wallets (and the reserved backends) can connect but never sign.
func (w Wallet) CanSign() bool {
	switch w.Kind {
	case KindWalletConnect, KindHito:
		return true
	}
	return false
}

// Key is the uniqueness key for the store: kind plus lower-cased address
func (w Wallet) Key() string {
	return string(w.Kind) + ":" + strings.ToLower(w.Address)
}

// ShortAddr shortens the address for display
func (w Wallet) ShortAddr() string {
	if len(w.Address) < 10 {
		return w.Address
	}
	return w.Address[:6] + "…" + w.Address[len(w.Address)-4:]
}

// RemoteSession is the opaque hot-wallet session capability. The session
// protocol itself is an external collaborator; flows only see this surface.
type RemoteSession interface {
	// ConnectedAddress returns the account the live session is bound to,
	// or the zero address when no session is up.
	ConnectedAddress(ctx context.Context) (common.Address, error)
	// SwitchChain moves the remote wallet to the given chain
	SwitchChain(ctx context.Context, chainID uint64) error
	// SignMessage asks the remote wallet to sign a personal message
	SignMessage(ctx context.Context, addr common.Address, msg []byte) ([]byte, error)
	// SendTransaction asks the remote wallet to sign and broadcast
	SendTransaction(ctx context.Context, tx *types.Transaction, from common.Address) (common.Hash, error)
}
