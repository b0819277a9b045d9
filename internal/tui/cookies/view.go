package cookies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/domain"
)

// Styles with adaptive colors for light/dark backgrounds
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"}).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "9"}).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "34", Dark: "10"}).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "63", Dark: "63"}).
			Padding(1, 2)

	activeInputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "63", Dark: "205"})

	inactiveInputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "250"})
)

// View renders the current view
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string

	switch m.currentView {
	case viewImport:
		content = m.viewImport()
	case viewValidation:
		content = m.viewValidation()
	case viewHelp:
		content = m.viewHelp()
	default:
		content = m.viewList()
	}

	if m.errorMessage != "" {
		content += "\n" + errorStyle.Render("Error: "+m.errorMessage)
	} else if m.statusMessage != "" {
		content += "\n" + successStyle.Render(m.statusMessage)
	}

	if m.loading {
		content += "\n" + m.spinner.View() + " Working..."
	}

	return content
}

// viewList renders accounts grouped by platform, in list order
func (m Model) viewList() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("Cookie Accounts") + "\n\n")

	if len(m.list) == 0 {
		content.WriteString("  No accounts found. Press 'i' to import cookies.\n")
	} else {
		groups := groupByPlatform(m.list)
		content.WriteString(fmt.Sprintf("  %d accounts across %d platforms\n\n", len(m.list), len(groups)))

		index := 0
		for _, group := range groups {
			content.WriteString(fmt.Sprintf("  %s (%d):\n", group.platform, len(group.accounts)))
			for _, acc := range group.accounts {
				content.WriteString(m.renderAccount(index, acc))
				index++
			}
			content.WriteString("\n")
		}
	}

	help := "\n" + helpStyle.Render(
		"  ↑/k up • ↓/j down • i import • v validate • a activate • d delete • e export • ? help • q quit",
	)

	return content.String() + help
}

func (m Model) renderAccount(index int, acc *domain.Account) string {
	cursor := "  "
	if index == m.cursor {
		cursor = "▸ "
	}

	active := " "
	if acc.IsActive {
		active = "*"
	}

	icon := "?"
	if result, ok := m.validationResults[acc.ID]; ok {
		icon = statusIcon(result.Status)
	}

	lastUsed := "never used"
	if acc.LastUsed != nil {
		lastUsed = "used " + humanize.Time(*acc.LastUsed)
	}

	line := fmt.Sprintf("  %s%s %s %-20s %s\n", cursor, active, icon, acc.Name, helpStyle.Render(lastUsed))
	if index == m.cursor {
		line += fmt.Sprintf("       %s\n", helpStyle.Render(acc.CookiePath))
	}
	return line
}

// viewImport renders the import form
func (m Model) viewImport() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Import Cookie File") + "\n\n")

	fields := []struct {
		label string
		input string
	}{
		{"Cookie File Path:", m.pathInput.View()},
		{"Platform (optional):", m.platformInput.View()},
		{"Account Name (optional):", m.nameInput.View()},
	}
	for i, f := range fields {
		b.WriteString(m.fieldLabel(i, "  "+f.label) + "\n")
		b.WriteString("  " + f.input + "\n\n")
	}

	b.WriteString(m.fieldLabel(fieldActivate, "  "+checkbox(m.importActivate)+" Set as active") + "\n")
	b.WriteString(m.fieldLabel(fieldForce, "  "+checkbox(m.importForce)+" Overwrite existing / accept expired") + "\n\n")

	help := helpStyle.Render("  Tab next field • Enter import • Esc cancel • Space toggle checkbox")

	return boxStyle.Render(b.String()) + "\n\n" + help
}

func (m Model) fieldLabel(field int, label string) string {
	if m.importFocusedField == field {
		return activeInputStyle.Render(label)
	}
	return inactiveInputStyle.Render(label)
}

// viewValidation renders the validation results
func (m Model) viewValidation() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Validation Results") + "\n\n")

	if len(m.validationResults) == 0 {
		b.WriteString("  No validation results available.\n")
	} else {
		counts := map[cookies.Status]int{}

		b.WriteString("  Platform     Account              Status    Message\n")
		b.WriteString("  " + strings.Repeat("─", 70) + "\n")

		for _, acc := range m.list {
			result, ok := m.validationResults[acc.ID]
			if !ok {
				continue
			}
			counts[result.Status]++

			b.WriteString(fmt.Sprintf("  %-12s %-20s %s %-8s %s\n",
				acc.Platform,
				acc.Name,
				statusIcon(result.Status),
				result.Status,
				result.Message,
			))
		}

		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Summary: %d valid, %d expired, %d invalid\n",
			counts[cookies.StatusValid], counts[cookies.StatusExpired], counts[cookies.StatusInvalid]))
	}

	help := "\n" + helpStyle.Render("  Press any key to return to list")

	return b.String() + help
}

// viewHelp renders the help screen
func (m Model) viewHelp() string {
	title := titleStyle.Render("Help")

	help := `
  Navigation:
    ↑/k        Move up
    ↓/j        Move down
    Esc        Go back / Cancel
    q          Quit

  Actions (from list view):
    i          Import new cookie file
    v          Check cookie expiration
    a          Activate selected
    d          Delete selected and its cookie file
    e          Export selected to the export directory
    ?          Show this help

  Import Form:
    Tab        Next field
    Shift+Tab  Previous field
    Space      Toggle checkbox
    Enter      Import

  Tips:
    - Platform is detected from cookie domains
    - Account names are generated if not provided
    - The active account of a platform is passed to yt-dlp
`

	return title + "\n" + help + "\n" + helpStyle.Render("  Press any key to return")
}

type platformGroup struct {
	platform string
	accounts []*domain.Account
}

// groupByPlatform keeps the order of accounts within each platform
func groupByPlatform(accounts []*domain.Account) []platformGroup {
	byPlatform := make(map[string][]*domain.Account)
	for _, acc := range accounts {
		byPlatform[acc.Platform] = append(byPlatform[acc.Platform], acc)
	}
	groups := make([]platformGroup, 0, len(byPlatform))
	for platform, accs := range byPlatform {
		groups = append(groups, platformGroup{platform: platform, accounts: accs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].platform < groups[j].platform })
	return groups
}

func statusIcon(status cookies.Status) string {
	switch status {
	case cookies.StatusValid:
		return "✓"
	case cookies.StatusExpired:
		return "⚠"
	case cookies.StatusInvalid:
		return "✗"
	default:
		return "?"
	}
}

func checkbox(checked bool) string {
	if checked {
		return "[✓]"
	}
	return "[ ]"
}
