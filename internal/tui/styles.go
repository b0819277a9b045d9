package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	help     lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	success  lipgloss.Style
	spinner  lipgloss.Style
	cursor   lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	badges   map[string]lipgloss.Style
}

type palette struct {
	accent, muted, text, red, yellow, green, blue string
}

var palettes = map[string]palette{
	"dark":  {accent: "205", muted: "245", text: "252", red: "9", yellow: "11", green: "10", blue: "12"},
	"light": {accent: "63", muted: "240", text: "235", red: "160", yellow: "136", green: "34", blue: "25"},
}

func newStyles(theme string) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["dark"]
	}
	color := func(c string) lipgloss.Color { return lipgloss.Color(c) }
	badge := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(color(c)).Bold(true).Width(12)
	}

	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(color(p.accent)).MarginLeft(1),
		help:     lipgloss.NewStyle().Foreground(color(p.muted)).MarginLeft(1),
		err:      lipgloss.NewStyle().Foreground(color(p.red)).Bold(true),
		warn:     lipgloss.NewStyle().Foreground(color(p.yellow)),
		success:  lipgloss.NewStyle().Foreground(color(p.green)).Bold(true),
		spinner:  lipgloss.NewStyle().Foreground(color(p.accent)),
		cursor:   lipgloss.NewStyle().Foreground(color(p.accent)).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(color(p.muted)),
		selected: lipgloss.NewStyle().Foreground(color(p.text)).Bold(true),
		badges: map[string]lipgloss.Style{
			"added":       badge(p.muted),
			"queued":      badge(p.yellow),
			"downloading": badge(p.blue),
			"complete":    badge(p.green),
		},
	}
}
