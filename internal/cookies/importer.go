package cookies

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/repository"
)

// ImportOptions contains options for importing a cookie file
type ImportOptions struct {
	FilePath string
	Platform string // detected from cookie domains when empty
	Name     string // "account", "account_2", ... when empty
	Activate bool
	Force    bool // overwrite an existing account with the same name
}

// Importer copies cookie files into the cookies directory and registers them
// as accounts.
type Importer struct {
	dir      string
	accounts repository.AccountRepository
	now      func() time.Time
}

// NewImporter creates an importer that stores files under dir
func NewImporter(dir string, accounts repository.AccountRepository) *Importer {
	return &Importer{dir: dir, accounts: accounts, now: time.Now}
}

// Import validates, copies and registers the cookie file
func (i *Importer) Import(ctx context.Context, opts ImportOptions) (*domain.Account, ValidationResult, error) {
	cookies, err := ParseFile(opts.FilePath)
	if err != nil {
		return nil, ValidationResult{}, fmt.Errorf("parse cookie file: %w", err)
	}

	result := ValidateExpiration(cookies, i.now())
	if result.Status == StatusExpired && !opts.Force {
		return nil, result, fmt.Errorf("%s (use --force to import anyway)", result.Message)
	}

	platform := opts.Platform
	if platform == "" {
		platform = DetectPlatform(cookies)
		if platform == "" {
			return nil, result, fmt.Errorf("could not auto-detect platform, please specify --platform")
		}
	}

	name := opts.Name
	if name == "" {
		name, err = i.uniqueName(ctx, platform, "account")
		if err != nil {
			return nil, result, fmt.Errorf("generate account name: %w", err)
		}
	} else if !opts.Force {
		_, err := i.accounts.GetByName(ctx, platform, name)
		switch {
		case err == nil:
			return nil, result, fmt.Errorf("account already exists: %s/%s (use --force to overwrite)", platform, name)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, result, fmt.Errorf("check existing account: %w", err)
		}
	}

	if err := os.MkdirAll(i.dir, 0o700); err != nil {
		return nil, result, fmt.Errorf("create cookie directory: %w", err)
	}
	cookiePath := filepath.Join(i.dir, fmt.Sprintf("%s_%s.txt", platform, name))

	// Rewriting normalizes the file and drops world-readable permissions
	if err := WriteFile(cookiePath, cookies); err != nil {
		return nil, result, fmt.Errorf("write cookie file: %w", err)
	}

	account := &domain.Account{
		Platform:   platform,
		Name:       name,
		CookiePath: cookiePath,
	}
	id, err := i.accounts.Create(ctx, account)
	if err != nil {
		return nil, result, fmt.Errorf("create account: %w", err)
	}
	account.ID = id

	if opts.Activate {
		if err := i.accounts.SetActive(ctx, platform, name); err != nil {
			return nil, result, fmt.Errorf("set active: %w", err)
		}
		account.IsActive = true
	}

	return account, result, nil
}

func (i *Importer) uniqueName(ctx context.Context, platform, base string) (string, error) {
	existing, err := i.accounts.List(ctx, platform)
	if err != nil {
		return "", err
	}

	taken := make(map[string]bool, len(existing))
	for _, acc := range existing {
		taken[acc.Name] = true
	}

	if !taken[base] {
		return base, nil
	}
	for n := 2; n < 1000; n++ {
		name := fmt.Sprintf("%s_%d", base, n)
		if !taken[name] {
			return name, nil
		}
	}
	return "", fmt.Errorf("could not generate unique name after 1000 attempts")
}
