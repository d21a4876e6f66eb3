package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"dapp-wallet-tui/approvals"
	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/txbuild"
	"dapp-wallet-tui/walletinfo"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// waitActivity pumps one engine event into the program; re-armed after
// every delivery
func waitActivity(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// parseConsole splits a console line into a method and its JSON params.
// Format: method name, optionally followed by a JSON array.
func parseConsole(line string) (string, []json.RawMessage, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, errors.New("empty request")
	}
	parts := strings.SplitN(line, " ", 2)
	method := parts[0]
	if len(parts) == 1 || strings.TrimSpace(parts[1]) == "" {
		return method, nil, nil
	}
	var params []json.RawMessage
	if err := json.Unmarshal([]byte(parts[1]), &params); err != nil {
		return "", nil, errors.Wrap(err, "params must be a JSON array")
	}
	return method, params, nil
}

// dispatchRequest stages a page-side request through the instance's
// provider. The provider hands the envelope to the router off-loop.
func dispatchRequest(in *session.Instance, method string, params []json.RawMessage) tea.Cmd {
	return func() tea.Msg {
		args := make([]interface{}, len(params))
		for i, p := range params {
			args[i] = p
		}
		p := in.Provider()
		if p == nil {
			return nil
		}
		call := p.Request(method, args...)
		return requestDispatchedMsg{instanceID: in.ID, method: method, call: call}
	}
}

// awaitCall blocks until the page-side call settles
func awaitCall(instanceID, method string, call *bridge.Call) tea.Cmd {
	return func() tea.Msg {
		<-call.Done()
		result, rpcErr := call.Outcome()
		return callSettledMsg{instanceID: instanceID, method: method, result: result, rpcErr: rpcErr}
	}
}

// populateTx fills in the staged transaction for the head approval flow.
// The flow resolves the target chain and dials its client itself.
func populateTx(f *approvals.SendTransaction, p *txbuild.Populator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		f.Populate(ctx, p)
		return populatedMsg{}
	}
}

// runFlowStep runs one blocking approval step (remote signing, hardware
// write, broadcast) off the UI loop
func runFlowStep(step func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		step(ctx)
		return flowProgressedMsg{}
	}
}

// loadDetails fetches wallet balance details from the default chain
func loadDetails(reg *chains.Registry, addr common.Address) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := reg.ClientFor(ctx, chains.DefaultChainID)
		if err != nil {
			return detailsLoadedMsg{d: walletinfo.Details{
				Address:    addr.Hex(),
				ErrMessage: err.Error(),
			}}
		}
		return detailsLoadedMsg{d: walletinfo.Load(client, addr, walletinfo.Watchlist(chains.DefaultChainID))}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err == nil {
			return clipboardCopiedMsg{}
		}
		return nil
	}
}

// clearCopiedAfter clears the clipboard feedback after a delay
func clearCopiedAfter() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// -------------------- MODEL HELPER METHODS --------------------

// appendFeed records one provider activity line for an instance
func (m *model) appendFeed(instanceID, line string) {
	feed := append(m.feeds[instanceID], line)
	if len(feed) > feedLimit {
		feed = feed[len(feed)-feedLimit:]
	}
	m.feeds[instanceID] = feed
}

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if !m.logEnabled || !m.logReady || m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logReady || m.logBuffer == nil {
		return
	}
	m.logViewport.SetContent(m.logBuffer.String())
	m.logViewport.GotoBottom()
}

// loadSelectedWalletDetails loads balances for the selected wallet,
// serving repeat views from the cache
func (m *model) loadSelectedWalletDetails() tea.Cmd {
	w, ok := m.store.Get(m.selectedWallet)
	if !ok {
		return nil
	}

	if cached, hit := m.detailsCache[strings.ToLower(w.Address)]; hit {
		m.details = cached
		m.loading = false
		return nil
	}

	m.loading = true
	m.details = walletinfo.Details{Address: w.Address}
	return loadDetails(m.registry, common.HexToAddress(w.Address))
}

// feedReplyLine formats a settled call for the activity feed
func feedReplyLine(method string, result json.RawMessage, rpcErr *bridge.RPCError) string {
	if rpcErr != nil {
		return fmt.Sprintf("← %s error %d: %s", method, rpcErr.Code, rpcErr.Message)
	}
	text := string(result)
	if len(text) > 60 {
		text = text[:60] + "…"
	}
	return fmt.Sprintf("← %s %s", method, text)
}
