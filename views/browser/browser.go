package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/helpers"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/styles"
)

// Nav returns the navigation bar for the browser view
func Nav(width int, consoleFocused bool) string {
	var left string
	if consoleFocused {
		left = strings.Join([]string{
			styles.Key("Enter") + " dispatch",
			styles.Key("Esc") + " leave console",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("i") + " console",
			styles.Key("Tab") + " next instance",
			styles.Key("x") + " disconnect",
			styles.Key("r") + " reload",
			styles.Key("b") + " catalog",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// tabs renders one label per mounted instance, the active one highlighted
func tabs(all []*session.Instance, activeID string) string {
	if len(all) == 0 {
		return ""
	}
	var parts []string
	for _, in := range all {
		label := in.Title()
		if label == "" {
			label = session.Hostname(in.URL())
		}
		dot := "○"
		if in.Connected() {
			dot = "●"
		}
		text := fmt.Sprintf(" %s %s ", dot, label)
		if in.ID == activeID {
			parts = append(parts, lipgloss.NewStyle().
				Foreground(styles.CBg).
				Background(styles.CAccent2).
				Bold(true).
				Render(text))
		} else {
			parts = append(parts, lipgloss.NewStyle().
				Foreground(styles.CMuted).
				Background(styles.CPanel).
				Render(text))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func statusLine(in *session.Instance) string {
	network := "unknown chain"
	if n, ok := chains.ByID(in.ChainID()); ok {
		network = n.Name
	}
	chainBadge := styles.BadgeStyle.Render(network)

	var conn string
	if w, ok := in.ConnectedWallet(); ok {
		label := w.Name
		if label == "" {
			label = helpers.ShortenAddr(w.Address)
		}
		conn = lipgloss.NewStyle().Foreground(styles.CAccent).
			Render("● " + label + " (" + string(w.Kind) + ")")
	} else {
		conn = lipgloss.NewStyle().Foreground(styles.CMuted).Render("○ not connected")
	}

	return chainBadge + "  " + conn
}

// Render renders the active instance surface: tab strip, page header,
// request activity feed and the dispatch console.
func Render(width int, active *session.Instance, all []*session.Instance, feed []string, consoleView string, consoleFocused bool) string {
	h := styles.TitleStyle.Render("dApp Browser")

	if active == nil {
		msg := lipgloss.NewStyle().Foreground(styles.CMuted).
			Render("No instance in the foreground. Open a dApp from the catalog.")
		return h + "\n\n" + tabs(all, "") + "\n\n" + msg
	}

	urlLine := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true).Render(active.URL())

	feedTitle := lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("Provider activity")
	var feedBody string
	if len(feed) == 0 {
		feedBody = lipgloss.NewStyle().Foreground(styles.CMuted).Render("(no requests yet)")
	} else {
		feedBody = strings.Join(feed, "\n")
	}
	feedPanel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-6)).
		Render(feedTitle + "\n" + feedBody)

	consoleTitle := lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("Console")
	if !consoleFocused {
		consoleTitle += lipgloss.NewStyle().Foreground(styles.CMuted).Render("  (press i)")
	}
	console := consoleTitle + "\n" + consoleView + "\n" +
		lipgloss.NewStyle().Foreground(styles.CMuted).
			Render(`method then JSON params, e.g. eth_getBalance ["0x…","latest"]`)

	return strings.Join([]string{
		h,
		"",
		tabs(all, active.ID),
		"",
		statusLine(active),
		urlLine,
		"",
		feedPanel,
		"",
		console,
	}, "\n")
}
