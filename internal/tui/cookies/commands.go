package cookies

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/repository"
)

// Async commands that return tea.Msg

func loadAccounts(repo repository.AccountRepository) tea.Cmd {
	return func() tea.Msg {
		accounts, err := repo.List(context.Background(), "")
		// The list view groups by platform and the cursor indexes this slice
		sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].Platform < accounts[j].Platform })
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func importCookie(importer *cookies.Importer, opts cookies.ImportOptions, onChange func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		account, result, err := importer.Import(ctx, opts)
		if err == nil && opts.Activate && onChange != nil {
			// The account is stored either way; a stopped daemon reads it at startup
			_ = onChange(ctx)
		}
		return importCompleteMsg{account: account, result: result, err: err}
	}
}

func validateAccounts(accounts []*domain.Account) tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		results := make(map[int64]cookies.ValidationResult, len(accounts))
		for _, acc := range accounts {
			results[acc.ID] = cookies.ValidateFile(acc.CookiePath, now)
		}
		return validationCompleteMsg{results: results}
	}
}

func deleteAccount(repo repository.AccountRepository, acc *domain.Account, onChange func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := repo.Delete(ctx, acc.ID); err != nil {
			return changeCompleteMsg{err: err}
		}
		msg := changeCompleteMsg{status: fmt.Sprintf("✓ Deleted %s/%s", acc.Platform, acc.Name)}
		if err := os.Remove(acc.CookiePath); err != nil && !os.IsNotExist(err) {
			msg.status += " (cookie file kept: " + err.Error() + ")"
		}
		if onChange != nil {
			msg.notifyErr = onChange(ctx)
		}
		return msg
	}
}

func activateAccount(repo repository.AccountRepository, acc *domain.Account, onChange func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := repo.SetActive(ctx, acc.Platform, acc.Name); err != nil {
			return changeCompleteMsg{err: err}
		}
		msg := changeCompleteMsg{status: fmt.Sprintf("✓ %s/%s is now active", acc.Platform, acc.Name)}
		if onChange != nil {
			msg.notifyErr = onChange(ctx)
		}
		return msg
	}
}

func exportAccount(repo repository.AccountRepository, acc *domain.Account, dir string) tea.Cmd {
	return func() tea.Msg {
		outputPath := filepath.Join(dir, "cookies_"+acc.Platform+"_"+acc.Name+".txt")
		err := cookies.Export(context.Background(), repo, acc.Platform, acc.Name, outputPath)
		return exportCompleteMsg{path: outputPath, err: err}
	}
}
