package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"dapp-wallet-tui/approvals"
	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/config"
	"dapp-wallet-tui/helpers"
	"dapp-wallet-tui/hito"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/txbuild"
	"dapp-wallet-tui/views/home"
	"dapp-wallet-tui/wallets"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempWalletKind    string
	tempWalletAddress string
	tempWalletName    string
	tempAppName       string
	tempAppURL        string
	tempAppIcon       string
	tempRPCURL        string
	tempConnectKey    string
)

func createHomeForm() *huh.Form {
	return home.CreateForm()
}

func (m *model) createAddWalletForm() {
	tempWalletKind = string(wallets.KindViewOnly)
	tempWalletAddress = ""
	tempWalletName = ""

	m.walletForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(
					huh.NewOption("View-only", string(wallets.KindViewOnly)),
					huh.NewOption("WalletConnect", string(wallets.KindWalletConnect)),
					huh.NewOption("Hito hardware", string(wallets.KindHito)),
				).
				Title("Wallet Type").
				Value(&tempWalletKind),

			huh.NewInput().
				Title("Address").
				Description("Enter a valid Ethereum address (Ctrl+v to paste)").
				Value(&tempWalletAddress).
				Placeholder("0x...").
				Validate(func(s string) error {
					if !helpers.IsValidEthAddress(s) {
						return fmt.Errorf("invalid ethereum address")
					}
					return nil
				}),

			huh.NewInput().
				Title("Nickname").
				Description("Optional").
				Value(&tempWalletName).
				Placeholder("cold storage"),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.walletForm.Init()
}

func (m *model) createRenameWalletForm(idx int) {
	w, ok := m.store.Get(idx)
	if !ok {
		return
	}
	tempWalletName = w.Name

	m.walletForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Nickname").
				Description("Leave empty to clear").
				Value(&tempWalletName).
				Placeholder("cold storage"),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.walletForm.Init()
}

func (m *model) createAppForm(edit bool) {
	if edit {
		idx := m.selectedApp - len(builtinCatalog)
		if idx < 0 || idx >= len(m.customApps) {
			return
		}
		app := m.customApps[idx]
		tempAppName = app.Name
		tempAppURL = app.URL
		tempAppIcon = app.Icon
	} else {
		tempAppName = ""
		tempAppURL = ""
		tempAppIcon = ""
	}

	m.appForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&tempAppName).
				Placeholder("My dApp"),

			huh.NewInput().
				Title("URL").
				Value(&tempAppURL).
				Placeholder("https://app.example.org").
				Validate(func(s string) error {
					if session.Hostname(s) == "" {
						return fmt.Errorf("invalid URL")
					}
					return nil
				}),

			huh.NewInput().
				Title("Icon").
				Description("Optional emoji").
				Value(&tempAppIcon).
				Placeholder("🌐"),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.appForm.Init()
}

func (m *model) createRPCForm(chainIdx int) {
	nets := chains.All()
	if chainIdx < 0 || chainIdx >= len(nets) {
		return
	}
	n := nets[chainIdx]
	tempRPCURL = m.overrides[n.ChainID]

	m.rpcForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(n.Name + " RPC URL").
				Description("Leave empty to use the built-in endpoint").
				Value(&tempRPCURL).
				Placeholder(n.RPCURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.rpcForm.Init()
}

func (m *model) createConnectForm(origin string) {
	tempConnectKey = ""

	entries := m.store.All()
	if len(entries) == 0 {
		m.connectForm = nil
		return
	}
	opts := make([]huh.Option[string], 0, len(entries))
	for _, w := range entries {
		label := w.ShortAddr()
		if w.Name != "" {
			label = w.Name + " - " + label
		}
		label += " [" + string(w.Kind) + "]"
		opts = append(opts, huh.NewOption(label, w.Key()))
	}

	m.connectForm = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Options(opts...).
				Title("Connect Wallet").
				Description(origin + " wants to see your address").
				Value(&tempConnectKey),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.connectForm.Init()
}

func (m *model) walletByKey(key string) (wallets.Wallet, bool) {
	for _, w := range m.store.All() {
		if w.Key() == key {
			return w, true
		}
	}
	return wallets.Wallet{}, false
}

// -------------------- APPROVAL SHEET --------------------

// syncSheet rebinds the modal sheet to the queue head. Called whenever
// the head changes; returns the population command for transaction
// requests.
func (m *model) syncSheet() tea.Cmd {
	head := m.queue.Head()
	m.sheet = head
	m.connectFlow = nil
	m.signFlow = nil
	m.sendFlow = nil
	m.connectForm = nil
	m.qrView = ""
	m.scanInput.SetValue("")
	m.scanInput.Blur()

	if head == nil {
		return nil
	}

	in, ok := m.manager.Get(head.InstanceID)
	if !ok {
		head.Reject(bridge.CodeDisconnected, "app instance is gone")
		return nil
	}

	switch head.Kind {
	case approvals.KindConnect:
		m.connectFlow = &approvals.Connect{P: head, Instance: in}
		m.createConnectForm(session.Hostname(in.URL()))
		m.addLog("info", fmt.Sprintf("connection request from %s", session.Hostname(in.URL())))
		return nil

	case approvals.KindSignMessage:
		w, ok := in.ConnectedWallet()
		if !ok {
			head.Reject(bridge.CodeUnauthorized, "wallet disconnected while request was queued")
			return nil
		}
		m.signFlow = approvals.NewSignMessage(head, w, in.ChainID(),
			m.remoteSession(w), hito.QRTransport{Show: func(string) {}})
		m.addLog("info", fmt.Sprintf("%s request from %s", head.Method, session.Hostname(in.URL())))
		return nil

	case approvals.KindSendTransaction:
		w, ok := in.ConnectedWallet()
		if !ok {
			head.Reject(bridge.CodeUnauthorized, "wallet disconnected while request was queued")
			return nil
		}
		f := approvals.NewSendTransaction(head, w, in.ChainID(),
			m.remoteSession(w), hito.QRTransport{Show: func(string) {}}, m.registry)
		m.sendFlow = f
		m.addLog("info", fmt.Sprintf("transaction request from %s", session.Hostname(in.URL())))
		return populateTx(f, &txbuild.Populator{Log: m.logger})
	}
	return nil
}

func (m *model) handleSheetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// connect: wallet picker form
	if f := m.connectFlow; f != nil {
		if msg.String() == "esc" {
			f.Cancel()
			m.addLog("info", "connection rejected")
			return m, nil
		}
		if m.connectForm == nil {
			return m, nil
		}
		form, cmd := m.connectForm.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			m.connectForm = hf
			if hf.State == huh.StateCompleted {
				if w, ok := m.walletByKey(tempConnectKey); ok {
					f.Approve(w)
					m.addLog("success", fmt.Sprintf("connected %s", w.ShortAddr()))
				} else {
					f.Cancel()
				}
				return m, nil
			}
			if hf.State == huh.StateAborted {
				f.Cancel()
				return m, nil
			}
		}
		return m, cmd
	}

	// sign message
	if f := m.signFlow; f != nil {
		if f.State() == approvals.StateAwaitingScan {
			switch msg.String() {
			case "esc":
				f.Cancel()
				return m, nil
			case "enter":
				f.CompleteScan(strings.TrimSpace(m.scanInput.Value()))
				if err := f.Err(); err != "" {
					m.addLog("warning", err)
					m.scanInput.SetValue("")
				}
				return m, nil
			default:
				var cmd tea.Cmd
				m.scanInput, cmd = m.scanInput.Update(msg)
				return m, cmd
			}
		}
		switch msg.String() {
		case "esc":
			f.Cancel()
			m.addLog("info", "signature request rejected")
			return m, nil
		case "enter":
			if f.CanApprove() && f.State() == approvals.StatePresenting {
				return m, runFlowStep(f.Approve)
			}
		}
		return m, nil
	}

	// send transaction
	if f := m.sendFlow; f != nil {
		if f.State() == approvals.StateAwaitingScan {
			switch msg.String() {
			case "esc":
				f.Cancel()
				return m, nil
			case "enter":
				payload := strings.TrimSpace(m.scanInput.Value())
				// broadcast happens here, keep it off the UI loop
				return m, runFlowStep(func(ctx context.Context) {
					f.CompleteScan(ctx, payload)
				})
			default:
				var cmd tea.Cmd
				m.scanInput, cmd = m.scanInput.Update(msg)
				return m, cmd
			}
		}
		switch msg.String() {
		case "esc":
			f.Cancel()
			m.addLog("info", "transaction rejected")
			return m, nil
		case "enter":
			if f.CanApprove() && f.State() == approvals.StatePresenting {
				return m, runFlowStep(f.Approve)
			}
		}
		return m, nil
	}

	// head without a flow (should not happen): reject to unblock the page
	if msg.String() == "esc" {
		m.sheet.RejectedByUser()
	}
	return m, nil
}

// -------------------- UPDATE --------------------

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		if m.logEnabled {
			m.logViewport.Width = helpers.Max(0, msg.Width-6)
			if m.logReady {
				m.updateLogViewport()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logger = log.NewWithOptions(m.logBuffer, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
		m.logger.SetLevel(log.DebugLevel)
		m.logger.SetStyles(&log.Styles{
			Timestamp: lipgloss.NewStyle().Foreground(cMuted),
			Caller:    lipgloss.NewStyle().Faint(true),
			Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
			Message:   lipgloss.NewStyle().Foreground(cText),
			Key:       lipgloss.NewStyle().Foreground(cAccent),
			Value:     lipgloss.NewStyle().Foreground(cText),
			Separator: lipgloss.NewStyle().Faint(true),
			Levels: map[log.Level]lipgloss.Style{
				log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
				log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
				log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
				log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
			},
		})
		m.router.SetLog(m.logger)
		m.logReady = true
		m.addLog("info", "Logger enabled")
		return m, nil

	case activityMsg:
		m.appendFeed(msg.instanceID, msg.line)
		return m, waitActivity(m.events)

	case headChangedMsg:
		cmd := m.syncSheet()
		return m, tea.Batch(cmd, waitActivity(m.events))

	case requestDispatchedMsg:
		m.appendFeed(msg.instanceID, "→ "+msg.method)
		m.addLog("debug", fmt.Sprintf("dispatched %s", msg.method))
		return m, awaitCall(msg.instanceID, msg.method, msg.call)

	case callSettledMsg:
		m.appendFeed(msg.instanceID, feedReplyLine(msg.method, msg.result, msg.rpcErr))
		if msg.rpcErr != nil {
			m.addLog("warning", fmt.Sprintf("%s failed: %d %s", msg.method, msg.rpcErr.Code, msg.rpcErr.Message))
		} else {
			m.addLog("debug", fmt.Sprintf("%s settled", msg.method))
		}
		return m, nil

	case populatedMsg:
		if f := m.sendFlow; f != nil {
			if err := f.PopErr(); err != "" {
				m.addLog("error", "population failed: "+err)
			}
		}
		return m, nil

	case flowProgressedMsg:
		if f := m.signFlow; f != nil {
			if f.State() == approvals.StateAwaitingScan && m.qrView == "" {
				m.qrView = hito.RenderQR(f.Payload())
				m.scanInput.Focus()
			}
			if err := f.Err(); err != "" {
				m.addLog("warning", err)
			}
		}
		if f := m.sendFlow; f != nil {
			if f.State() == approvals.StateAwaitingScan && m.qrView == "" {
				m.qrView = hito.RenderQR(f.Payload())
				m.scanInput.Focus()
			}
			if err := f.Err(); err != "" {
				m.addLog("warning", err)
			}
		}
		return m, nil

	case detailsLoadedMsg:
		m.loading = false
		m.details = msg.d
		if msg.d.ErrMessage == "" {
			m.detailsCache[strings.ToLower(msg.d.Address)] = msg.d
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "Copied!"
		return m, clearCopiedAfter()

	case clearCopiedMsg:
		m.copiedMsg = ""
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		// component internals (cursor blink etc.) go to whatever is
		// focused
		return m.forwardToActive(msg)
	}
}

func (m *model) forwardToActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.sheet != nil && m.connectForm != nil:
		form, c := m.connectForm.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			m.connectForm = hf
		}
		cmd = c
	case m.sheet != nil:
		m.scanInput, cmd = m.scanInput.Update(msg)
	case m.walletForm != nil:
		form, c := m.walletForm.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			m.walletForm = hf
		}
		cmd = c
	case m.appForm != nil:
		form, c := m.appForm.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			m.appForm = hf
		}
		cmd = c
	case m.rpcForm != nil:
		form, c := m.rpcForm.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			m.rpcForm = hf
		}
		cmd = c
	case m.activePage == config.PageHome && m.homeForm != nil:
		form, c := m.homeForm.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			m.homeForm = hf
		}
		cmd = c
	case m.appMode == "url":
		m.urlInput, cmd = m.urlInput.Update(msg)
	case m.consoleFocused:
		m.console, cmd = m.console.Update(msg)
	}
	return m, cmd
}

func (m *model) textInputActive() bool {
	return m.sheet != nil ||
		m.walletForm != nil ||
		m.appForm != nil ||
		m.rpcForm != nil ||
		m.appMode == "url" ||
		m.consoleFocused
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.MouseLeft {
		return m, nil
	}
	if m.activePage != config.PageWallets || m.textInputActive() {
		return m, nil
	}
	for i, area := range m.clickableAreas {
		if msg.X >= area.X && msg.X < area.X+area.Width &&
			msg.Y >= area.Y && msg.Y < area.Y+area.Height {
			m.selectedWallet = i
			return m, nil
		}
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// modal approval sheet first
	if m.sheet != nil {
		return m.handleSheetKey(msg)
	}

	// active forms
	if m.walletForm != nil {
		return m.handleWalletForm(msg)
	}
	if m.appForm != nil {
		return m.handleAppForm(msg)
	}
	if m.rpcForm != nil {
		return m.handleRPCForm(msg)
	}

	// URL bar
	if m.appMode == "url" {
		switch msg.String() {
		case "esc":
			m.appMode = "list"
			m.urlInput.Blur()
			return m, nil
		case "enter":
			raw := strings.TrimSpace(m.urlInput.Value())
			m.appMode = "list"
			m.urlInput.Blur()
			m.urlInput.SetValue("")
			if session.Hostname(raw) == "" {
				m.addLog("warning", "invalid URL")
				return m, nil
			}
			m.openApp(raw)
			return m, nil
		}
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(msg)
		return m, cmd
	}

	// browser console
	if m.activePage == config.PageBrowser && m.consoleFocused {
		switch msg.String() {
		case "esc":
			m.consoleFocused = false
			m.console.Blur()
			return m, nil
		case "enter":
			in := m.manager.Active()
			if in == nil {
				return m, nil
			}
			method, params, err := parseConsole(m.console.Value())
			if err != nil {
				m.appendFeed(in.ID, "✗ "+err.Error())
				return m, nil
			}
			m.console.SetValue("")
			return m, dispatchRequest(in, method, params)
		}
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(msg)
		return m, cmd
	}

	// global keys
	switch msg.String() {
	case "q":
		if m.activePage == config.PageHome {
			return m, tea.Quit
		}
	case "l", "L":
		m.logEnabled = !m.logEnabled
		if m.logEnabled {
			if m.w > 0 {
				m.logViewport.Width = m.w - 6
			}
			m.logReady = false
			m.saveConfig()
			return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
		}
		if m.logBuffer != nil {
			m.logBuffer.Reset()
		}
		m.logger = nil
		m.router.SetLog(nil)
		m.logReady = false
		m.saveConfig()
		return m, nil
	case "pgup", "pgdown", "pageup", "pagedown":
		if m.logEnabled && m.logReady {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
	}

	// page-specific behavior
	switch m.activePage {
	case config.PageHome:
		return m.handleHomeKey(msg)
	case config.PageApps:
		return m.handleAppsKey(msg)
	case config.PageBrowser:
		return m.handleBrowserKey(msg)
	case config.PageWallets:
		return m.handleWalletsKey(msg)
	case config.PageSettings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

// -------------------- PAGE KEY HANDLERS --------------------

func (m *model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		return m, tea.Quit
	}
	if m.homeForm == nil {
		m.homeForm = createHomeForm()
	}
	form, cmd := m.homeForm.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		m.homeForm = hf
		if hf.State == huh.StateCompleted {
			switch home.TempSelection {
			case "apps":
				m.activePage = config.PageApps
			case "wallets":
				m.activePage = config.PageWallets
			case "settings":
				m.activePage = config.PageSettings
			}
			m.homeForm = createHomeForm()
			return m, nil
		}
	}
	return m, cmd
}

func (m *model) openApp(raw string) {
	in := m.manager.Open(raw, m.catalog())
	m.manager.SetActive(in.ID)
	m.activePage = config.PageBrowser
	m.addLog("info", "opened "+session.Hostname(in.URL()))
}

func (m *model) handleAppsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	catalog := m.catalog()
	switch msg.String() {
	case "tab", "right":
		if len(catalog) > 0 {
			m.selectedApp = (m.selectedApp + 1) % len(catalog)
		}
	case "shift+tab", "left":
		if len(catalog) > 0 {
			m.selectedApp = (m.selectedApp - 1 + len(catalog)) % len(catalog)
		}
	case "down":
		if m.selectedApp+3 < len(catalog) {
			m.selectedApp += 3
		}
	case "up":
		if m.selectedApp-3 >= 0 {
			m.selectedApp -= 3
		}
	case "enter":
		if m.selectedApp < len(catalog) {
			m.openApp(catalog[m.selectedApp].URL)
		}
	case "o":
		m.appMode = "url"
		m.urlInput.Focus()
	case "a":
		m.appMode = "add"
		m.createAppForm(false)
	case "e":
		if m.selectedApp >= len(builtinCatalog) {
			m.appMode = "edit"
			m.createAppForm(true)
		}
	case "d":
		idx := m.selectedApp - len(builtinCatalog)
		if idx >= 0 && idx < len(m.customApps) {
			name := m.customApps[idx].Name
			m.customApps = append(m.customApps[:idx], m.customApps[idx+1:]...)
			if m.selectedApp >= len(m.catalog()) && m.selectedApp > 0 {
				m.selectedApp--
			}
			m.saveConfig()
			m.addLog("info", fmt.Sprintf("removed dApp `%s`", name))
		}
	case "h", "esc":
		m.activePage = config.PageHome
	case "b":
		m.activePage = config.PageBrowser
	}
	return m, nil
}

func (m *model) handleBrowserKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := m.manager.Active()
	switch msg.String() {
	case "i":
		if in != nil {
			m.consoleFocused = true
			m.console.Focus()
		}
	case "tab":
		all := m.manager.All()
		if len(all) > 1 && in != nil {
			for i, inst := range all {
				if inst.ID == in.ID {
					m.manager.SetActive(all[(i+1)%len(all)].ID)
					break
				}
			}
		}
	case "x":
		if in != nil && in.Connected() {
			m.router.Disconnect(in)
			m.addLog("info", "disconnected "+session.Hostname(in.URL()))
		}
	case "r":
		if in != nil {
			m.manager.ForceReload(in.ID, in.URL())
			m.appendFeed(in.ID, "↻ reloaded")
			m.addLog("info", "reloaded "+session.Hostname(in.URL()))
		}
	case "b", "esc":
		m.activePage = config.PageApps
	case "h":
		m.activePage = config.PageHome
	}
	return m, nil
}

func (m *model) handleWalletsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showDeleteDialog {
		switch msg.String() {
		case "left", "right", "tab":
			m.deleteDialogYesSelected = !m.deleteDialogYesSelected
		case "enter":
			if m.deleteDialogYesSelected {
				if err := m.store.Delete(m.deleteDialogIdx); err == nil {
					m.saveConfig()
					m.addLog("info", fmt.Sprintf("deleted wallet `%s`", helpers.ShortenAddr(m.deleteDialogAddr)))
					if m.selectedWallet >= m.store.Len() && m.selectedWallet > 0 {
						m.selectedWallet--
					}
				}
			}
			m.showDeleteDialog = false
		case "esc":
			m.showDeleteDialog = false
		}
		return m, nil
	}

	switch msg.String() {
	case "up":
		if m.selectedWallet > 0 {
			m.selectedWallet--
			if m.showDetails {
				return m, m.loadSelectedWalletDetails()
			}
		}
	case "down":
		if m.selectedWallet < m.store.Len()-1 {
			m.selectedWallet++
			if m.showDetails {
				return m, m.loadSelectedWalletDetails()
			}
		}
	case "K":
		if err := m.store.Move(m.selectedWallet, m.selectedWallet-1); err == nil {
			m.selectedWallet--
			m.saveConfig()
		}
	case "J":
		if err := m.store.Move(m.selectedWallet, m.selectedWallet+1); err == nil {
			m.selectedWallet++
			m.saveConfig()
		}
	case "enter":
		m.showDetails = !m.showDetails
		if m.showDetails {
			return m, m.loadSelectedWalletDetails()
		}
	case "r":
		if w, ok := m.store.Get(m.selectedWallet); ok {
			delete(m.detailsCache, strings.ToLower(w.Address))
			if m.showDetails {
				return m, m.loadSelectedWalletDetails()
			}
		}
	case "a":
		m.walletMode = "add"
		m.createAddWalletForm()
	case "n":
		if m.store.Len() > 0 {
			m.walletMode = "rename"
			m.createRenameWalletForm(m.selectedWallet)
		}
	case "d":
		if w, ok := m.store.Get(m.selectedWallet); ok {
			m.showDeleteDialog = true
			m.deleteDialogAddr = w.Address
			m.deleteDialogIdx = m.selectedWallet
			m.deleteDialogYesSelected = false
		}
	case "c":
		if w, ok := m.store.Get(m.selectedWallet); ok {
			return m, copyToClipboard(w.Address)
		}
	case "h", "esc":
		m.activePage = config.PageHome
	}
	return m, nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nets := chains.All()
	switch msg.String() {
	case "up":
		if m.selectedChain > 0 {
			m.selectedChain--
		}
	case "down":
		if m.selectedChain < len(nets)-1 {
			m.selectedChain++
		}
	case "e":
		m.settingsMode = "edit"
		m.createRPCForm(m.selectedChain)
	case "d":
		n := nets[m.selectedChain]
		if _, ok := m.overrides[n.ChainID]; ok {
			delete(m.overrides, n.ChainID)
			m.registry.Override(n.ChainID, "")
			m.saveConfig()
			m.addLog("info", fmt.Sprintf("cleared RPC override for %s", n.Name))
		}
	case "h", "esc":
		m.activePage = config.PageHome
	}
	return m, nil
}

// -------------------- FORM HANDLERS --------------------

func (m *model) handleWalletForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.walletMode = "list"
		m.walletForm = nil
		return m, nil
	}

	form, cmd := m.walletForm.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		m.walletForm = hf
		if hf.State == huh.StateCompleted {
			if m.walletMode == "add" {
				w := wallets.Wallet{
					Kind:    wallets.Kind(tempWalletKind),
					Address: tempWalletAddress,
					Name:    strings.TrimSpace(tempWalletName),
				}
				m.store.Upsert(w)
				m.saveConfig()
				m.addLog("success", fmt.Sprintf("added wallet `%s`", w.ShortAddr()))
			} else if m.walletMode == "rename" {
				if w, ok := m.store.Get(m.selectedWallet); ok {
					w.Name = strings.TrimSpace(tempWalletName)
					m.store.Upsert(w)
					m.saveConfig()
					m.addLog("success", fmt.Sprintf("renamed wallet `%s`", w.ShortAddr()))
				}
			}
			m.walletMode = "list"
			m.walletForm = nil
			return m, nil
		}
		if hf.State == huh.StateAborted {
			m.walletMode = "list"
			m.walletForm = nil
			return m, nil
		}
	}
	return m, cmd
}

func (m *model) handleAppForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.appMode = "list"
		m.appForm = nil
		return m, nil
	}

	form, cmd := m.appForm.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		m.appForm = hf
		if hf.State == huh.StateCompleted {
			if tempAppName != "" && tempAppURL != "" {
				app := session.App{
					Name: tempAppName,
					URL:  session.NormalizeURL(tempAppURL),
					Icon: tempAppIcon,
				}
				if m.appMode == "add" {
					m.customApps = append(m.customApps, app)
					m.addLog("success", fmt.Sprintf("added dApp `%s`", app.Name))
				} else if idx := m.selectedApp - len(builtinCatalog); idx >= 0 && idx < len(m.customApps) {
					m.customApps[idx] = app
					m.addLog("success", fmt.Sprintf("updated dApp `%s`", app.Name))
				}
				m.saveConfig()
			}
			m.appMode = "list"
			m.appForm = nil
			return m, nil
		}
		if hf.State == huh.StateAborted {
			m.appMode = "list"
			m.appForm = nil
			return m, nil
		}
	}
	return m, cmd
}

func (m *model) handleRPCForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.settingsMode = "list"
		m.rpcForm = nil
		return m, nil
	}

	form, cmd := m.rpcForm.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		m.rpcForm = hf
		if hf.State == huh.StateCompleted {
			n := chains.All()[m.selectedChain]
			url := strings.TrimSpace(tempRPCURL)
			if url == "" {
				delete(m.overrides, n.ChainID)
				m.addLog("info", fmt.Sprintf("cleared RPC override for %s", n.Name))
			} else {
				m.overrides[n.ChainID] = url
				m.addLog("success", fmt.Sprintf("set RPC override for %s", n.Name))
			}
			m.registry.Override(n.ChainID, url)
			m.saveConfig()
			m.settingsMode = "list"
			m.rpcForm = nil
			return m, nil
		}
		if hf.State == huh.StateAborted {
			m.settingsMode = "list"
			m.rpcForm = nil
			return m, nil
		}
	}
	return m, cmd
}
