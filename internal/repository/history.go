package repository

import (
	"context"

	"github.com/elsanchez/vidqueue/internal/domain"
)

// PageSize es el tamaño de cada página del historial
const PageSize = 20

// HistoryRepository persiste los videos descubiertos. Las páginas van de más
// nuevo a más viejo, ordenadas por (created_at, id).
type HistoryRepository interface {
	FetchFirstPage(ctx context.Context) ([]*domain.HistoryEntry, error)
	// FetchPageBefore continúa la paginación a partir de la última fila vista
	FetchPageBefore(ctx context.Context, lastID, lastCreatedAt int64) ([]*domain.HistoryEntry, error)

	// Persist asigna id y created_at; la fila nace en estado added
	Persist(ctx context.Context, info domain.VideoInfo) (*domain.HistoryEntry, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error

	UpdateState(ctx context.Context, id int64, state domain.DownloadState) error
	Count(ctx context.Context) (int, error)
}
