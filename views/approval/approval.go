package approval

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"dapp-wallet-tui/approvals"
	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/helpers"
	"dapp-wallet-tui/styles"
	"dapp-wallet-tui/txbuild"
)

// sheet frames modal content and centers it on screen
func sheet(w, h int, content string) string {
	dialog := styles.SheetStyle.Render(content)
	return lipgloss.Place(
		w, h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

// header renders the sheet title with the requesting origin and the
// queue position when more requests are waiting behind this one
func header(title, origin string, queued int) string {
	t := styles.TitleStyle.Render(title)
	o := lipgloss.NewStyle().Foreground(styles.CMuted).Render(origin)
	line := t + "\n" + o
	if queued > 1 {
		line += "  " + lipgloss.NewStyle().Foreground(styles.CWarn).
			Render(fmt.Sprintf("(+%d waiting)", queued-1))
	}
	return line
}

func hints(canApprove bool) string {
	parts := []string{styles.Key("Esc") + " reject"}
	if canApprove {
		parts = append([]string{styles.Key("Enter") + " approve"}, parts...)
	}
	return lipgloss.NewStyle().Foreground(styles.CMuted).Render(strings.Join(parts, "   "))
}

func errLine(err string) string {
	if err == "" {
		return ""
	}
	return "\n" + styles.ErrStyle.Render("⚠ "+err)
}

// RenderConnect renders the connection request sheet with the wallet
// picker form
func RenderConnect(w, h int, origin string, queued int, form *huh.Form) string {
	body := header("Connection Request", origin, queued) + "\n\n"
	if form != nil {
		body += form.View()
	} else {
		body += lipgloss.NewStyle().Foreground(styles.CMuted).
			Render("No wallets available. Add a wallet first, then Esc to reject.")
	}
	body += "\n" + lipgloss.NewStyle().Foreground(styles.CMuted).
		Render(styles.Key("Esc")+" reject")
	return sheet(w, h, body)
}

// scanBlock renders the QR handoff portion of a hardware flow
func scanBlock(qr, payload, scanView string) string {
	caption := lipgloss.NewStyle().Foreground(styles.CMuted).
		Render("Scan with the device camera, then paste the response below:")
	payloadLine := lipgloss.NewStyle().Foreground(styles.CMuted).
		Render(truncate(payload, 60))
	return qr + "\n" + payloadLine + "\n\n" + caption + "\n" + scanView
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// RenderSignMessage renders the message-signing sheet through its states
func RenderSignMessage(w, h int, origin string, queued int, f *approvals.SignMessage, qr, scanView string) string {
	body := header("Signature Request", origin, queued) + "\n\n"

	signer := f.Wallet.Name
	if signer == "" {
		signer = f.Wallet.ShortAddr()
	}
	body += lipgloss.NewStyle().Foreground(styles.CText).Render("Signer: ") +
		lipgloss.NewStyle().Foreground(styles.CAccent2).Render(signer+" ["+string(f.Wallet.Kind)+"]") + "\n\n"

	display := f.P.Display
	if f.P.TypedData != "" {
		display = f.P.TypedData
	}
	msgPanel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(58).
		Render(display)
	body += msgPanel + "\n"

	state := f.State()
	switch state {
	case approvals.StateHotPending:
		body += "\n" + lipgloss.NewStyle().Foreground(styles.CWarn).
			Render("Waiting for the remote wallet…")
	case approvals.StateAwaitingNFC:
		body += "\n" + lipgloss.NewStyle().Foreground(styles.CWarn).
			Render("Hold the card against the device…")
	case approvals.StateAwaitingScan:
		body += "\n" + scanBlock(qr, f.Payload(), scanView)
	default:
		if !f.CanApprove() {
			body += "\n" + lipgloss.NewStyle().Foreground(styles.CMuted).
				Render("This wallet is view-only and cannot sign.")
		}
	}

	body += errLine(f.Err())
	body += "\n\n" + hints(f.CanApprove() && state == approvals.StatePresenting)
	return sheet(w, h, body)
}

// txSummary renders the populated transaction fields
func txSummary(pop *txbuild.Populated) string {
	tx := pop.Tx
	network := chains.HexChainID(pop.ChainID)
	if n, ok := chains.ByID(pop.ChainID); ok {
		network = n.Name
	}

	to := "(contract creation)"
	if tx.To() != nil {
		to = tx.To().Hex()
	}

	rows := []string{
		row("Chain", network),
		row("To", to),
		row("Value", helpers.FormatETH(tx.Value())),
		row("Gas", fmt.Sprintf("%d", tx.Gas())),
		row("Nonce", fmt.Sprintf("%d", tx.Nonce())),
	}
	if pop.DynamicFee {
		rows = append(rows,
			row("Max fee", helpers.FormatETH(tx.GasFeeCap())),
			row("Max tip", helpers.FormatETH(tx.GasTipCap())),
		)
	} else {
		rows = append(rows, row("Gas price", helpers.FormatETH(tx.GasPrice())))
	}
	if len(tx.Data()) > 0 {
		rows = append(rows, row("Data", fmt.Sprintf("%d bytes", len(tx.Data()))))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))
}

func row(key, val string) string {
	return lipgloss.NewStyle().Foreground(styles.CMuted).Render(fmt.Sprintf("%-10s", key)) +
		lipgloss.NewStyle().Foreground(styles.CText).Render(val)
}

// RenderSendTransaction renders the transaction sheet through its states
func RenderSendTransaction(w, h int, origin string, queued int, f *approvals.SendTransaction, qr, scanView, spinnerView string) string {
	body := header("Transaction Request", origin, queued) + "\n\n"

	signer := f.Wallet.Name
	if signer == "" {
		signer = f.Wallet.ShortAddr()
	}
	body += lipgloss.NewStyle().Foreground(styles.CText).Render("From: ") +
		lipgloss.NewStyle().Foreground(styles.CAccent2).Render(signer+" ["+string(f.Wallet.Kind)+"]") + "\n\n"

	state := f.State()
	pop := f.Populated()
	switch {
	case state == approvals.StatePopulating:
		body += spinnerView + " populating transaction…"
	case f.PopErr() != "":
		body += styles.ErrStyle.Render("⚠ "+f.PopErr()) + "\n\n" +
			lipgloss.NewStyle().Foreground(styles.CMuted).
				Render("The transaction could not be populated; reject to dismiss.")
	case pop != nil:
		body += txSummary(pop)
		switch state {
		case approvals.StateHotPending:
			body += "\n\n" + lipgloss.NewStyle().Foreground(styles.CWarn).
				Render("Waiting for the remote wallet…")
		case approvals.StateAwaitingNFC:
			body += "\n\n" + lipgloss.NewStyle().Foreground(styles.CWarn).
				Render("Hold the card against the device…")
		case approvals.StateAwaitingScan:
			body += "\n\n" + scanBlock(qr, f.Payload(), scanView)
		default:
			if !f.Wallet.CanSign() {
				body += "\n\n" + lipgloss.NewStyle().Foreground(styles.CMuted).
					Render("This wallet is view-only and cannot sign.")
			}
		}
	}

	body += errLine(f.Err())
	body += "\n\n" + hints(f.CanApprove() && state == approvals.StatePresenting)
	return sheet(w, h, body)
}
