package approvals

import (
	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/wallets"
)

// Connect binds a staged eth_requestAccounts to the wallet picker. The
// picker offers every stored wallet, view-only included: connecting a
// wallet that cannot sign is allowed, only signing with it is not.
type Connect struct {
	P        *Pending
	Instance *session.Instance
}

// Approve connects the instance with the chosen wallet and replies with
// its address
func (f *Connect) Approve(w wallets.Wallet) {
	f.Instance.Connect(w)
	f.P.Emit(bridge.Event(bridge.EventAccountsChanged, f.Instance.Accounts()))
	f.P.Resolve([]string{w.Address})
}

// Cancel rejects the request without touching the instance state
func (f *Connect) Cancel() {
	f.P.RejectedByUser()
}
