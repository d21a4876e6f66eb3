package walletlist

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dapp-wallet-tui/helpers"
	"dapp-wallet-tui/styles"
	"dapp-wallet-tui/wallets"
)

// ClickableArea represents a clickable region for mouse support
type ClickableArea struct {
	X, Y          int
	Width, Height int
	Address       string
}

// Nav returns the navigation bar for the wallet list view
func Nav(width int, adding bool) string {
	var left string
	if adding {
		left = strings.Join([]string{
			styles.Key("l") + " logger",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " move",
			styles.Key("K/J") + " reorder",
			styles.Key("Enter") + " details",
			styles.Key("a") + " add",
			styles.Key("n") + " rename",
			styles.Key("d") + " delete",
			styles.Key("c") + " copy address",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// kindBadge renders the wallet kind, signers highlighted
func kindBadge(w wallets.Wallet) string {
	if w.CanSign() {
		return lipgloss.NewStyle().Foreground(styles.CAccent).Render("[" + string(w.Kind) + "]")
	}
	return lipgloss.NewStyle().Foreground(styles.CMuted).Render("[" + string(w.Kind) + "]")
}

// RenderList renders the wallet list and reports clickable regions
func RenderList(entries []wallets.Wallet, selectedIdx int) (string, []ClickableArea, int) {
	var listItems []string
	var clickableAreas []ClickableArea
	currentY := 9 // Starting Y position

	if len(entries) == 0 {
		empty := lipgloss.NewStyle().Foreground(styles.CMuted).
			Render("No wallets added yet. Press 'a' to add one.")
		return empty, clickableAreas, currentY
	}

	for i, w := range entries {
		var itemStyle lipgloss.Style
		var marker string
		var fullAddr, label string

		if i == selectedIdx {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
			itemStyle = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true)
			fullAddr = lipgloss.NewStyle().Foreground(styles.CText).Render(w.Address)
			label = w.ShortAddr()
		} else {
			marker = "  "
			itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1a2aa"))
			fullAddr = lipgloss.NewStyle().Foreground(lipgloss.Color("#ba3fd7")).Render(helpers.FadeString(w.Address, "#7D5AFC", "#FF87D7"))
			label = helpers.FadeString(w.ShortAddr(), "#F25D94", "#EDFF82")
		}

		if w.Name != "" {
			label = w.Name + " - " + label
		}
		label = label + " " + kindBadge(w)

		listItems = append(listItems, marker+itemStyle.Render(label)+"\n  "+fullAddr)

		clickableAreas = append(clickableAreas, ClickableArea{
			X:       4,
			Y:       currentY,
			Width:   lipgloss.Width(label) + 2,
			Height:  2,
			Address: w.Address,
		})
		currentY += 3
	}

	return strings.Join(listItems, "\n\n"), clickableAreas, currentY
}

// Render renders the wallet list view with its title
func Render(entries []wallets.Wallet, selectedIdx int) (string, []ClickableArea) {
	h := styles.TitleStyle.Render("Wallets")
	list, areas, _ := RenderList(entries, selectedIdx)
	return h + "\n\n" + list, areas
}
