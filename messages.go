package main

import (
	"encoding/json"

	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/walletinfo"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// activityMsg is one event line for an instance's provider feed
type activityMsg struct {
	instanceID string
	line       string
}

// headChangedMsg fires when the approval queue head changes
type headChangedMsg struct{}

// requestDispatchedMsg carries a page-side call the console staged
type requestDispatchedMsg struct {
	instanceID string
	method     string
	call       *bridge.Call
}

// callSettledMsg fires when a page-side call receives its reply
type callSettledMsg struct {
	instanceID string
	method     string
	result     json.RawMessage
	rpcErr     *bridge.RPCError
}

// populatedMsg signals that population for the head approval flow
// finished; the flow itself carries the outcome
type populatedMsg struct{}

// flowProgressedMsg signals that an approve or scan step returned and
// the sheet should re-render
type flowProgressedMsg struct{}

// detailsLoadedMsg contains wallet balance details after loading
type detailsLoadedMsg struct {
	d walletinfo.Details
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct{}

// clearCopiedMsg clears the clipboard feedback after a delay
type clearCopiedMsg struct{}

// logInitMsg signals that the log viewport should be initialized
type logInitMsg struct{}
