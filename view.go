package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dapp-wallet-tui/config"
	"dapp-wallet-tui/helpers"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/views/approval"
	"dapp-wallet-tui/views/apps"
	"dapp-wallet-tui/views/browser"
	"dapp-wallet-tui/views/home"
	logview "dapp-wallet-tui/views/log"
	"dapp-wallet-tui/views/settings"
	"dapp-wallet-tui/views/walletlist"
)

// -------------------- VIEW --------------------

func (m *model) renderDeleteDialog() string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 0)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)
	msg := helpers.FadeString("Are you sure you want to delete the wallet "+helpers.ShortenAddr(m.deleteDialogAddr)+"?", "#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	var okButton, cancelButton string
	if m.deleteDialogYesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	dialog := dialogBoxStyle.Render(ui)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

// renderDetailsPanel shows balances for the selected wallet
func (m *model) renderDetailsPanel() string {
	d := m.details
	h := titleStyle.Render("Details")

	sub := mutedStyle.Underline(true).Render(d.Address)
	if m.copiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(cAccent).Render(m.copiedMsg)
	}

	if m.loading {
		return h + "\n" + sub + "\n\n" + m.spin.View() + " fetching balances…"
	}

	if d.ErrMessage != "" {
		msg := lipgloss.NewStyle().Foreground(cWarn).Render("⚠ " + d.ErrMessage)
		hint := mutedStyle.Render("Press ") + styleKey("r") + mutedStyle.Render(" to retry.")
		return h + "\n" + sub + "\n\n" + msg + "\n\n" + hint
	}

	ethLine := fmt.Sprintf("%s  %s",
		lipgloss.NewStyle().Foreground(cAccent2).Bold(true).Render("ETH"),
		lipgloss.NewStyle().Foreground(cText).Render(helpers.FormatETH(d.EthWei)),
	)

	lines := []string{h, sub, "", ethLine}

	if len(d.Tokens) > 0 {
		lines = append(lines, "", mutedStyle.Render("Tokens (watchlist)"))
		for _, t := range d.Tokens {
			row := fmt.Sprintf("%-6s  %s",
				lipgloss.NewStyle().Foreground(cAccent).Render(t.Symbol),
				lipgloss.NewStyle().Foreground(cText).Render(helpers.FormatToken(t.Balance, t.Decimals, t.Symbol)),
			)
			lines = append(lines, row)
		}
	}

	lines = append(lines, "", mutedStyle.Render("loaded "+helpers.LoadedAt(d.LoadedAt, m.loading)))
	return strings.Join(lines, "\n")
}

func styleKey(s string) string {
	return lipgloss.NewStyle().Foreground(cAccent).Bold(true).Render(s)
}

func (m *model) globalHeader() string {
	availableWidth := helpers.Max(0, m.w-8)

	// left: foreground instance
	var left string
	if in := m.manager.Active(); in != nil {
		host := session.Hostname(in.URL())
		dot := mutedStyle.Render("○ ")
		if in.Connected() {
			dot = lipgloss.NewStyle().Foreground(cAccent).Render("● ")
		}
		left = dot + lipgloss.NewStyle().Foreground(cAccent2).Bold(true).Render(host)
	} else {
		left = mutedStyle.Render("no dApp open")
	}

	// right: pending approvals and mounted instances
	var right string
	if n := m.queue.Len(); n > 0 {
		right = lipgloss.NewStyle().Foreground(cWarn).Bold(true).
			Render(fmt.Sprintf("⏳ %d pending", n))
	} else {
		right = mutedStyle.Render(fmt.Sprintf("%d instances", len(m.manager.All())))
	}

	titleText := lipgloss.NewStyle().Bold(true).
		Render(helpers.FadeString("dapp wallet", "#7EE787", "#82CFFD"))

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := leftWidth + rightWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		headerLine = left + "\n" + titleText + "\n" + right
	} else {
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding
		headerLine = left +
			strings.Repeat(" ", helpers.Max(1, leftPadding)) + titleText +
			strings.Repeat(" ", helpers.Max(1, rightPadding)) + right
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

// liveHosts maps the hostname of every mounted instance
func (m *model) liveHosts() map[string]bool {
	out := make(map[string]bool)
	for _, in := range m.manager.All() {
		out[session.Hostname(in.URL())] = true
	}
	return out
}

func (m *model) renderSheet() string {
	origin := ""
	if in, ok := m.manager.Get(m.sheet.InstanceID); ok {
		origin = session.Hostname(in.URL())
	}
	queued := m.queue.Len()

	switch {
	case m.connectFlow != nil:
		return approval.RenderConnect(m.w, m.h, origin, queued, m.connectForm)
	case m.signFlow != nil:
		return approval.RenderSignMessage(m.w, m.h, origin, queued, m.signFlow, m.qrView, m.scanInput.View())
	case m.sendFlow != nil:
		return approval.RenderSendTransaction(m.w, m.h, origin, queued, m.sendFlow, m.qrView, m.scanInput.View(), m.spin.View())
	}
	return ""
}

func (m *model) View() string {
	m.clickableAreas = nil

	headerPanel := panelStyle.Width(helpers.Max(0, m.w-2)).Render(m.globalHeader())

	var pageContent string
	var nav string

	switch m.activePage {

	case config.PageHome:
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(home.Render(m.homeForm))
		nav = home.Nav(m.w - 2)

	case config.PageApps:
		var body string
		switch {
		case m.appForm != nil:
			body = m.appForm.View()
		case m.appMode == "url":
			body = apps.RenderURLBar(m.urlInput.View())
		default:
			body = apps.Render(m.catalog(), m.selectedApp, m.liveHosts())
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(body)
		nav = apps.Nav(m.w-2, m.appMode)

	case config.PageBrowser:
		active := m.manager.Active()
		var feed []string
		if active != nil {
			feed = m.feeds[active.ID]
		}
		body := browser.Render(m.w, active, m.manager.All(), feed, m.console.View(), m.consoleFocused)
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(body)
		nav = browser.Nav(m.w-2, m.consoleFocused)

	case config.PageWallets:
		var body string
		if m.walletForm != nil {
			body = m.walletForm.View()
		} else {
			list, areas := walletlist.Render(m.store.All(), m.selectedWallet)
			m.clickableAreas = areas
			body = list
			if m.showDetails {
				body += "\n\n" + m.renderDetailsPanel()
			}
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(body)
		nav = walletlist.Nav(m.w-2, m.walletForm != nil)

	case config.PageSettings:
		var body string
		if m.rpcForm != nil {
			body = m.rpcForm.View()
		} else {
			body = settings.Render(m.overrides, m.selectedChain)
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(body)
		nav = settings.Nav(m.w-2, m.settingsMode)
	}

	// modal overlays replace the page entirely
	if m.sheet != nil {
		return m.renderSheet()
	}
	if m.showDeleteDialog {
		return m.renderDeleteDialog()
	}

	if m.logEnabled {
		reservedHeight := 10
		availableHeight := helpers.Max(5, m.h-reservedHeight)
		maxLogHeight := helpers.Min(m.h/3, 15)
		m.logViewport.Height = helpers.Min(availableHeight, maxLogHeight)

		logPanel := logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport)
		content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav, logPanel)
		return appStyle.Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, headerPanel, pageContent, nav)
	return appStyle.Render(content)
}
