package cookies

import (
	"github.com/elsanchez/vidqueue/internal/cookies"
	"github.com/elsanchez/vidqueue/internal/domain"
)

// Message types for async operations

type accountsLoadedMsg struct {
	accounts []*domain.Account
	err      error
}

type importCompleteMsg struct {
	account *domain.Account
	result  cookies.ValidationResult
	err     error
}

type validationCompleteMsg struct {
	results map[int64]cookies.ValidationResult
}

// changeCompleteMsg follows delete and activate
type changeCompleteMsg struct {
	status string
	err    error
	// notifyErr is set when the daemon could not be told about the change
	notifyErr error
}

type exportCompleteMsg struct {
	path string
	err  error
}
