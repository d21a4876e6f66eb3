package apps

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dapp-wallet-tui/helpers"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/styles"
)

// Nav returns the navigation bar for the catalog view
func Nav(width int, mode string) string {
	var left string
	switch mode {
	case "add", "edit":
		left = strings.Join([]string{
			styles.Key("l") + " logger",
			styles.Key("Esc") + " cancel",
		}, "   ")
	case "url":
		left = strings.Join([]string{
			styles.Key("Enter") + " open",
			styles.Key("Esc") + " cancel",
		}, "   ")
	default:
		left = strings.Join([]string{
			styles.Key("Tab") + " select next",
			styles.Key("Enter") + " open",
			styles.Key("o") + " open URL",
			styles.Key("a") + " add",
			styles.Key("e") + " edit",
			styles.Key("d") + " delete",
			styles.Key("h") + " home",
			styles.Key("l") + " logger",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

func cardStyle(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().
		Width(28).
		Height(6).
		Align(lipgloss.Center, lipgloss.Center).
		Background(styles.CPanel).
		Padding(1, 2)
	if focused {
		return s.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("69"))
	}
	return s.BorderStyle(lipgloss.HiddenBorder())
}

// renderCard renders a single catalog card. live marks apps that already
// have a mounted instance.
func renderCard(app session.App, focused, live bool) string {
	icon := app.Icon
	if icon == "" {
		icon = "🌐"
	}

	host := session.Hostname(app.URL)
	fadedHost := helpers.FadeString(host, "#F25D94", "#EDFF82")

	nameStyle := lipgloss.NewStyle().
		Foreground(styles.CText).
		Bold(true).
		Align(lipgloss.Center)

	name := app.Name
	if live {
		name = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ") + name
	}

	content := icon + "\n\n" +
		nameStyle.Render(name) + "\n" +
		fadedHost

	return cardStyle(focused).Render(content)
}

// Render renders the catalog as a card grid. liveHosts maps hostnames of
// apps that have a mounted instance.
func Render(catalog []session.App, selectedIdx int, liveHosts map[string]bool) string {
	h := styles.TitleStyle.Render("dApp Catalog")

	if len(catalog) == 0 {
		emptyMsg := lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render("No dApps configured.")

		helpMsg := lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render("Press ") + styles.Key("a") +
			lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to add one, or ") + styles.Key("o") +
			lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to open a URL.")

		return h + "\n\n" + emptyMsg + "\n\n" + helpMsg
	}

	const columnsPerRow = 3
	var rows []string

	for i := 0; i < len(catalog); i += columnsPerRow {
		var rowCards []string
		for j := 0; j < columnsPerRow && i+j < len(catalog); j++ {
			idx := i + j
			app := catalog[idx]
			card := renderCard(app, idx == selectedIdx, liveHosts[session.Hostname(app.URL)])
			rowCards = append(rowCards, card)
			if j < columnsPerRow-1 && i+j+1 < len(catalog) {
				rowCards = append(rowCards, "  ")
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rowCards...))
	}

	return h + "\n\n" + strings.Join(rows, "\n")
}

// RenderURLBar renders the open-URL prompt shown above the grid
func RenderURLBar(inputView string) string {
	title := lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("Open dApp")
	hint := lipgloss.NewStyle().Foreground(styles.CMuted).
		Render("A catalog entry matching the hostname is reused, along with any mounted instance.")
	return title + "\n\n" + inputView + "\n" + hint
}
