package cookies

import (
	"context"
	"fmt"
	"os"

	"github.com/elsanchez/vidqueue/internal/repository"
)

// Export copies the cookie file of platform/name to outputPath
func Export(ctx context.Context, accounts repository.AccountRepository, platform, name, outputPath string) error {
	account, err := accounts.GetByName(ctx, platform, name)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	data, err := os.ReadFile(account.CookiePath)
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
