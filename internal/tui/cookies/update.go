package cookies

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/internal/cookies"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Clear previous messages on keypress
		m.errorMessage = ""
		m.statusMessage = ""

		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case accountsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.list = msg.accounts
		if m.cursor >= len(m.list) {
			m.cursor = max(len(m.list)-1, 0)
		}
		return m, nil

	case importCompleteMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.statusMessage = "✓ Imported " + msg.account.Platform + "/" + msg.account.Name + " (" + msg.result.Message + ")"
		m.validationResults[msg.account.ID] = msg.result
		m.currentView = viewList
		m.resetImportForm()
		return m, loadAccounts(m.accounts)

	case validationCompleteMsg:
		m.loading = false
		m.validationResults = msg.results
		m.currentView = viewValidation
		return m, nil

	case changeCompleteMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.statusMessage = msg.status
		if msg.notifyErr != nil {
			m.statusMessage += " (daemon not reloaded)"
		}
		return m, loadAccounts(m.accounts)

	case exportCompleteMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.statusMessage = "✓ Exported to " + msg.path
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case viewList:
		return m.handleListKeys(msg)
	case viewImport:
		return m.handleImportKeys(msg)
	case viewValidation, viewHelp:
		return m.handleDialogKeys(msg)
	}
	return m, nil
}

// handleListKeys handles keys in the list view
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("i"))):
		m.currentView = viewImport
		m.importFocusedField = fieldPath
		m.updateImportFocus()
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("v"))):
		m.loading = true
		return m, validateAccounts(m.list)

	case key.Matches(msg, key.NewBinding(key.WithKeys("?"))):
		m.currentView = viewHelp
		return m, nil
	}

	acc, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("a"))):
		m.loading = true
		return m, activateAccount(m.accounts, acc, m.onChange)

	case key.Matches(msg, key.NewBinding(key.WithKeys("d"))):
		m.loading = true
		return m, deleteAccount(m.accounts, acc, m.onChange)

	case key.Matches(msg, key.NewBinding(key.WithKeys("e"))):
		m.loading = true
		return m, exportAccount(m.accounts, acc, m.exportDir)
	}

	return m, nil
}

// handleImportKeys handles keys in the import view
func (m Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.currentView = viewList
		m.resetImportForm()
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("tab"))):
		m.importFocusedField = (m.importFocusedField + 1) % fieldCount
		m.updateImportFocus()
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab"))):
		m.importFocusedField--
		if m.importFocusedField < 0 {
			m.importFocusedField = fieldCount - 1
		}
		m.updateImportFocus()
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys(" "))):
		// Space toggles checkboxes and is typed into text inputs
		switch m.importFocusedField {
		case fieldActivate:
			m.importActivate = !m.importActivate
			return m, nil
		case fieldForce:
			m.importForce = !m.importForce
			return m, nil
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.errorMessage = "Cookie file path is required"
			return m, nil
		}

		opts := cookies.ImportOptions{
			FilePath: path,
			Platform: strings.TrimSpace(m.platformInput.Value()),
			Name:     strings.TrimSpace(m.nameInput.Value()),
			Activate: m.importActivate,
			Force:    m.importForce,
		}

		m.loading = true
		return m, importCookie(m.importer, opts, m.onChange)
	}

	var cmd tea.Cmd
	switch m.importFocusedField {
	case fieldPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case fieldPlatform:
		m.platformInput, cmd = m.platformInput.Update(msg)
	case fieldName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

// handleDialogKeys handles keys in dialog views (validation, help)
func (m Model) handleDialogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key returns to list
	m.currentView = viewList
	return m, nil
}

// updateImportFocus updates which input field is focused
func (m *Model) updateImportFocus() {
	m.pathInput.Blur()
	m.platformInput.Blur()
	m.nameInput.Blur()
	switch m.importFocusedField {
	case fieldPath:
		m.pathInput.Focus()
	case fieldPlatform:
		m.platformInput.Focus()
	case fieldName:
		m.nameInput.Focus()
	}
}

func (m *Model) resetImportForm() {
	m.pathInput.SetValue("")
	m.platformInput.SetValue("")
	m.nameInput.SetValue("")
	m.importActivate = false
	m.importForce = false
}
