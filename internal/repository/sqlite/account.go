package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/repository"
)

// AccountRepository implementa repository.AccountRepository usando SQLite
type AccountRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository crea un nuevo repositorio de cuentas
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// accountRow mapea la tabla SQL a struct Go
type accountRow struct {
	ID         int64         `db:"id"`
	Platform   string        `db:"platform"`
	Name       string        `db:"name"`
	CookiePath string        `db:"cookie_path"`
	IsActive   int           `db:"is_active"`
	LastUsed   sql.NullInt64 `db:"last_used"`
	CreatedAt  int64         `db:"created_at"`
}

const selectAccounts = `
	SELECT id, platform, name, cookie_path, is_active, last_used, created_at
	FROM accounts
`

// Create inserta una nueva cuenta. Si ya existe (platform, name) se
// actualiza el archivo de cookies.
func (r *AccountRepository) Create(ctx context.Context, acc *domain.Account) (int64, error) {
	query := `
		INSERT INTO accounts (platform, name, cookie_path, is_active)
		VALUES (:platform, :name, :cookie_path, :is_active)
		ON CONFLICT (platform, name) DO UPDATE SET cookie_path = excluded.cookie_path
	`

	if _, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"platform":    acc.Platform,
		"name":        acc.Name,
		"cookie_path": acc.CookiePath,
		"is_active":   boolToInt(acc.IsActive),
	}); err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}

	// LastInsertId no es confiable en el camino del UPSERT
	existing, err := r.GetByName(ctx, acc.Platform, acc.Name)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// GetByID obtiene una cuenta por ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	var row accountRow

	if err := r.db.GetContext(ctx, &row, selectAccounts+`WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return accountRowToDomain(&row), nil
}

// GetByName obtiene una cuenta por plataforma y nombre
func (r *AccountRepository) GetByName(ctx context.Context, platform, name string) (*domain.Account, error) {
	var row accountRow

	query := selectAccounts + `WHERE platform = ? AND name = ?`
	if err := r.db.GetContext(ctx, &row, query, platform, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s/%s: %w", platform, name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return accountRowToDomain(&row), nil
}

// Delete elimina una cuenta
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("account %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

// GetActive obtiene la cuenta activa para una plataforma
func (r *AccountRepository) GetActive(ctx context.Context, platform string) (*domain.Account, error) {
	var row accountRow

	query := selectAccounts + `
		WHERE platform = ? AND is_active = 1
		LIMIT 1
	`

	if err := r.db.GetContext(ctx, &row, query, platform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No hay cuenta activa (no es error)
		}
		return nil, fmt.Errorf("get active account: %w", err)
	}

	return accountRowToDomain(&row), nil
}

// List obtiene las cuentas de una plataforma, o todas si platform es ""
func (r *AccountRepository) List(ctx context.Context, platform string) ([]*domain.Account, error) {
	var rows []accountRow

	query := selectAccounts + `
		WHERE (? = '' OR platform = ?)
		ORDER BY platform, is_active DESC, last_used DESC
	`

	if err := r.db.SelectContext(ctx, &rows, query, platform, platform); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accountRowsToDomain(rows), nil
}

// ListActive obtiene la cuenta activa de cada plataforma
func (r *AccountRepository) ListActive(ctx context.Context) ([]*domain.Account, error) {
	var rows []accountRow

	if err := r.db.SelectContext(ctx, &rows, selectAccounts+`WHERE is_active = 1 ORDER BY platform`); err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}

	return accountRowsToDomain(rows), nil
}

// ListPlatforms lista todas las plataformas con cuentas
func (r *AccountRepository) ListPlatforms(ctx context.Context) ([]string, error) {
	var platforms []string

	query := `SELECT DISTINCT platform FROM accounts ORDER BY platform`
	if err := r.db.SelectContext(ctx, &platforms, query); err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}

	return platforms, nil
}

// SetActive establece una cuenta como activa (desactiva las demás de la plataforma)
func (r *AccountRepository) SetActive(ctx context.Context, platform, name string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET is_active = 0 WHERE platform = ?
	`, platform); err != nil {
		return fmt.Errorf("deactivate accounts: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET is_active = 1, last_used = ?
		WHERE platform = ? AND name = ?
	`, time.Now().Unix(), platform, name)
	if err != nil {
		return fmt.Errorf("activate account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s/%s: %w", platform, name, repository.ErrNotFound)
	}

	return tx.Commit()
}

// UpdateLastUsed actualiza el timestamp de último uso
func (r *AccountRepository) UpdateLastUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_used = ? WHERE id = ?`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update last used: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Helper: conversión row → domain
func accountRowToDomain(row *accountRow) *domain.Account {
	acc := &domain.Account{
		ID:         row.ID,
		Platform:   row.Platform,
		Name:       row.Name,
		CookiePath: row.CookiePath,
		IsActive:   row.IsActive == 1,
		CreatedAt:  time.Unix(row.CreatedAt, 0),
	}

	if row.LastUsed.Valid {
		t := time.Unix(row.LastUsed.Int64, 0)
		acc.LastUsed = &t
	}

	return acc
}

func accountRowsToDomain(rows []accountRow) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, accountRowToDomain(&rows[i]))
	}
	return accounts
}
