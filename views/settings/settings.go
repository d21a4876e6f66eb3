package settings

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/styles"
)

// Nav returns the navigation bar for the RPC settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "edit" {
		left = strings.Join([]string{
			styles.Key("l") + " logger",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("e") + " set override",
			styles.Key("d") + " clear override",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders one row per supported chain with its effective RPC URL.
// overrides maps chain id to a user-pinned URL.
func Render(overrides map[uint64]string, selectedIdx int) string {
	h := styles.TitleStyle.Render("RPC Settings")

	lines := []string{h, ""}
	lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).
		Render("Built-in endpoints are used unless a chain is overridden:"))
	lines = append(lines, "")

	for i, n := range chains.All() {
		var marker string
		if i == selectedIdx {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
		} else {
			marker = "  "
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
		urlStyle := lipgloss.NewStyle().Foreground(styles.CMuted)

		url, overridden := overrides[n.ChainID]
		tag := ""
		if overridden {
			tag = lipgloss.NewStyle().Foreground(styles.CAccent).Render(" (override)")
		} else {
			url = n.RPCURL
		}

		row := fmt.Sprintf("%s%s %s",
			marker,
			nameStyle.Render(fmt.Sprintf("%-18s", n.Name)),
			styles.BadgeStyle.Render(chains.HexChainID(n.ChainID)),
		)
		lines = append(lines, row)
		lines = append(lines, "    "+urlStyle.Render(url)+tag)
	}

	return strings.Join(lines, "\n")
}
