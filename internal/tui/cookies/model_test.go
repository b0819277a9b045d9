package cookies

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/repository/sqlite"
)

const youtubeCookies = `# Netscape HTTP Cookie File
.youtube.com	TRUE	/	TRUE	4102444800	SID	abc123
.youtube.com	TRUE	/	TRUE	4102444800	HSID	def456
`

type harness struct {
	db       *sqlite.Database
	source   string
	export   string
	notified int
}

func newHarness(t *testing.T) (*harness, Model) {
	t.Helper()
	db, err := sqlite.NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := &harness{db: db, export: t.TempDir()}
	h.source = filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(h.source, []byte(youtubeCookies), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewModel(Options{
		Accounts:  db.AccountRepo,
		Importer:  cookies.NewImporter(filepath.Join(t.TempDir(), "cookies"), db.AccountRepo),
		ExportDir: h.export,
		OnChange: func(context.Context) error {
			h.notified++
			return nil
		},
	})
	return h, m
}

// step applies msg and then feeds back what the command produced, the way
// the bubbletea runtime would
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		out := cmd()
		if out == nil {
			return m
		}
		if _, ok := out.(tea.BatchMsg); ok {
			return m
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func importThroughForm(t *testing.T, h *harness, m Model, activate bool) Model {
	t.Helper()
	m = step(t, m, keyPress("i"))
	if m.currentView != viewImport {
		t.Fatalf("expected import view, got %d", m.currentView)
	}
	m.pathInput.SetValue(h.source)
	if activate {
		for i := 0; i < fieldActivate; i++ {
			m = step(t, m, keyPress("tab"))
		}
		m = step(t, m, keyPress(" "))
		if !m.importActivate {
			t.Fatal("expected activate checkbox toggled")
		}
	}
	return step(t, m, keyPress("enter"))
}

func TestModel_ImportActivateDelete(t *testing.T) {
	h, m := newHarness(t)
	m = step(t, m, loadAccounts(h.db.AccountRepo)())

	m = importThroughForm(t, h, m, true)
	if m.errorMessage != "" {
		t.Fatalf("import failed: %s", m.errorMessage)
	}
	if m.currentView != viewList || len(m.list) != 1 {
		t.Fatalf("expected one account in list view, got view %d with %d accounts", m.currentView, len(m.list))
	}
	if acc := m.list[0]; acc.Platform != "youtube" || !acc.IsActive {
		t.Errorf("unexpected account %+v", acc)
	}
	if h.notified != 1 {
		t.Errorf("expected daemon notified once, got %d", h.notified)
	}

	m = importThroughForm(t, h, m, false)
	if len(m.list) != 2 {
		t.Fatalf("expected two accounts, got %d", len(m.list))
	}

	// Activate the account that is not active yet
	for i, acc := range m.list {
		if !acc.IsActive {
			m.cursor = i
		}
	}
	target := m.list[m.cursor]
	m = step(t, m, keyPress("a"))
	active, err := h.db.AccountRepo.GetActive(context.Background(), "youtube")
	if err != nil || active == nil || active.ID != target.ID {
		t.Fatalf("expected %s active, got %+v (%v)", target.Name, active, err)
	}

	m = step(t, m, keyPress("e"))
	exported := filepath.Join(h.export, "cookies_youtube_"+target.Name+".txt")
	if _, err := os.Stat(exported); err != nil {
		t.Errorf("expected export at %s: %v", exported, err)
	}

	for i, acc := range m.list {
		if acc.ID == target.ID {
			m.cursor = i
		}
	}
	m = step(t, m, keyPress("d"))
	if len(m.list) != 1 {
		t.Fatalf("expected one account after delete, got %d", len(m.list))
	}
	if _, err := os.Stat(target.CookiePath); !os.IsNotExist(err) {
		t.Errorf("expected cookie file removed, stat err %v", err)
	}
	if h.notified != 3 {
		t.Errorf("expected 3 notifications, got %d", h.notified)
	}
}

func TestModel_ValidateAndDialogs(t *testing.T) {
	h, m := newHarness(t)
	m = importThroughForm(t, h, m, false)

	m = step(t, m, keyPress("v"))
	if m.currentView != viewValidation {
		t.Fatalf("expected validation view, got %d", m.currentView)
	}
	result, ok := m.validationResults[m.list[0].ID]
	if !ok || result.Status != cookies.StatusValid {
		t.Errorf("expected valid result, got %+v", result)
	}
	if m.View() == "" {
		t.Error("expected rendered validation view")
	}

	m = step(t, m, keyPress("x"))
	if m.currentView != viewList {
		t.Error("any key must return to the list")
	}

	m = step(t, m, keyPress("?"))
	if m.currentView != viewHelp {
		t.Error("expected help view")
	}
}

func TestModel_ImportRequiresPath(t *testing.T) {
	_, m := newHarness(t)

	m = step(t, m, keyPress("i"))
	m = step(t, m, keyPress("enter"))
	if m.errorMessage == "" {
		t.Error("expected an error for an empty path")
	}

	m = step(t, m, keyPress("esc"))
	if m.currentView != viewList {
		t.Error("esc must return to the list")
	}
}
