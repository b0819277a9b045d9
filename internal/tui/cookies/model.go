// Package cookies implements the interactive cookie account manager.
package cookies

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/repository"
)

// view represents different screens in the TUI
type view int

const (
	viewList view = iota
	viewImport
	viewValidation
	viewHelp
)

const (
	fieldPath = iota
	fieldPlatform
	fieldName
	fieldActivate
	fieldForce
	fieldCount
)

// Options wires the manager to storage.
type Options struct {
	Accounts repository.AccountRepository
	Importer *cookies.Importer
	// ExportDir receives files exported with e.
	ExportDir string
	// OnChange runs after the active account set may have changed.
	OnChange func(ctx context.Context) error
}

// Model is the Bubbletea model for the cookie manager
type Model struct {
	// Navigation
	currentView view
	width       int
	height      int
	quitting    bool

	// Dependencies
	accounts  repository.AccountRepository
	importer  *cookies.Importer
	exportDir string
	onChange  func(ctx context.Context) error

	// State
	list   []*domain.Account
	cursor int

	// Components
	pathInput     textinput.Model
	platformInput textinput.Model
	nameInput     textinput.Model
	spinner       spinner.Model

	// Import state
	importActivate     bool
	importForce        bool
	importFocusedField int

	validationResults map[int64]cookies.ValidationResult

	// UI state
	loading       bool
	statusMessage string
	errorMessage  string
}

// NewModel creates a new cookie manager TUI model
func NewModel(opts Options) Model {
	pathInput := textinput.New()
	pathInput.Placeholder = "Path to cookie file"
	pathInput.Focus()
	pathInput.CharLimit = 256
	pathInput.Width = 60

	platformInput := textinput.New()
	platformInput.Placeholder = "Platform (auto-detect if empty)"
	platformInput.CharLimit = 50
	platformInput.Width = 40

	nameInput := textinput.New()
	nameInput.Placeholder = "Account name (auto-generate if empty)"
	nameInput.CharLimit = 50
	nameInput.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		currentView:       viewList,
		accounts:          opts.Accounts,
		importer:          opts.Importer,
		exportDir:         opts.ExportDir,
		onChange:          opts.OnChange,
		pathInput:         pathInput,
		platformInput:     platformInput,
		nameInput:         nameInput,
		spinner:           s,
		validationResults: make(map[int64]cookies.ValidationResult),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadAccounts(m.accounts),
		m.spinner.Tick,
	)
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) selected() (*domain.Account, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return nil, false
	}
	return m.list[m.cursor], true
}
