package repository

import (
	"context"

	"github.com/elsanchez/vidqueue/internal/domain"
)

// AccountRepository define las operaciones sobre cuentas
type AccountRepository interface {
	// CRUD básico
	Create(ctx context.Context, acc *domain.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByName(ctx context.Context, platform, name string) (*domain.Account, error)
	Delete(ctx context.Context, id int64) error

	// GetActive devuelve nil, nil si la plataforma no tiene cuenta activa
	GetActive(ctx context.Context, platform string) (*domain.Account, error)
	List(ctx context.Context, platform string) ([]*domain.Account, error)
	ListActive(ctx context.Context) ([]*domain.Account, error)
	ListPlatforms(ctx context.Context) ([]string, error)

	// Gestión de cuenta activa
	SetActive(ctx context.Context, platform, name string) error
	UpdateLastUsed(ctx context.Context, id int64) error
}
