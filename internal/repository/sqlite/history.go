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

// HistoryRepository implementa repository.HistoryRepository usando SQLite
type HistoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository crea un nuevo repositorio de historial
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// videoRow mapea la tabla SQL a struct Go
type videoRow struct {
	ID             int64  `db:"id"`
	CreatedAt      int64  `db:"created_at"`
	VideoID        string `db:"video_id"`
	Title          string `db:"title"`
	Author         string `db:"author"`
	Seconds        int64  `db:"seconds"`
	Thumbnail      string `db:"thumbnail"`
	URL            string `db:"url"`
	AudioAvailable bool   `db:"audio_available"`
	State          string `db:"state"`
}

type formatRow struct {
	VideosID  int64   `db:"videos_id"`
	FormatID  string  `db:"format_id"`
	Container string  `db:"container"`
	Width     int64   `db:"width"`
	Height    int64   `db:"height"`
	FPS       float64 `db:"fps"`
}

const selectVideos = `
	SELECT id, created_at, video_id, title, author, seconds,
	       thumbnail, url, audio_available, state
	FROM videos
`

// FetchFirstPage obtiene las filas más recientes
func (r *HistoryRepository) FetchFirstPage(ctx context.Context) ([]*domain.HistoryEntry, error) {
	query := selectVideos + `
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, query, repository.PageSize); err != nil {
		return nil, fmt.Errorf("select first page: %w", err)
	}

	return r.withFormats(ctx, rows)
}

// FetchPageBefore obtiene la página siguiente a (lastID, lastCreatedAt)
func (r *HistoryRepository) FetchPageBefore(ctx context.Context, lastID, lastCreatedAt int64) ([]*domain.HistoryEntry, error) {
	query := selectVideos + `
		WHERE created_at < :last_created_at
		   OR (created_at = :last_created_at AND id < :last_id)
		ORDER BY created_at DESC, id DESC
		LIMIT :limit
	`

	query, args, err := sqlx.Named(query, map[string]interface{}{
		"last_id":         lastID,
		"last_created_at": lastCreatedAt,
		"limit":           repository.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("bind page query: %w", err)
	}

	var rows []videoRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select page: %w", err)
	}

	return r.withFormats(ctx, rows)
}

// Persist inserta el video y sus formatos en una transacción
func (r *HistoryRepository) Persist(ctx context.Context, info domain.VideoInfo) (*domain.HistoryEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := r.now().UnixMilli()

	result, err := tx.NamedExecContext(ctx, `
		INSERT INTO videos (created_at, video_id, title, author, seconds,
		                    thumbnail, url, audio_available, state)
		VALUES (:created_at, :video_id, :title, :author, :seconds,
		        :thumbnail, :url, :audio_available, :state)
	`, map[string]interface{}{
		"created_at":      createdAt,
		"video_id":        info.VideoID,
		"title":           info.Title,
		"author":          info.Author,
		"seconds":         info.DurationSeconds,
		"thumbnail":       info.ThumbnailURL,
		"url":             info.SourceURL,
		"audio_available": info.AudioAvailable,
		"state":           domain.StateAdded.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	for _, f := range info.Formats {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO formats (format_id, container, width, height, fps, videos_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, f.FormatID, f.Container, f.Width, f.Height, f.FPS, id); err != nil {
			return nil, fmt.Errorf("insert format %s: %w", f.FormatID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit video: %w", err)
	}

	return &domain.HistoryEntry{
		ID:        id,
		CreatedAt: createdAt,
		Info:      info,
		State:     domain.StateAdded,
	}, nil
}

// Delete elimina un video; los formatos caen en cascada
func (r *HistoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("video %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

// DeleteAll vacía el historial
func (r *HistoryRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM videos`); err != nil {
		return fmt.Errorf("delete all videos: %w", err)
	}
	return nil
}

// UpdateState guarda el estado persistible de un video
func (r *HistoryRepository) UpdateState(ctx context.Context, id int64, state domain.DownloadState) error {
	result, err := r.db.ExecContext(ctx, `UPDATE videos SET state = ? WHERE id = ?`, state.String(), id)
	if err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("video %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

// Count cuenta los videos del historial
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM videos`); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return count, nil
}

// withFormats carga los formatos de todas las filas con una sola query
func (r *HistoryRepository) withFormats(ctx context.Context, rows []videoRow) ([]*domain.HistoryEntry, error) {
	entries := make([]*domain.HistoryEntry, 0, len(rows))
	if len(rows) == 0 {
		return entries, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	query, args, err := sqlx.In(`
		SELECT videos_id, format_id, container, width, height, fps
		FROM formats
		WHERE videos_id IN (?)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("bind formats query: %w", err)
	}

	var formats []formatRow
	if err := r.db.SelectContext(ctx, &formats, r.db.Rebind(query), args...); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("select formats: %w", err)
	}

	byVideo := make(map[int64][]domain.VideoFormat, len(rows))
	for _, f := range formats {
		byVideo[f.VideosID] = append(byVideo[f.VideosID], domain.VideoFormat{
			FormatID:  f.FormatID,
			Container: f.Container,
			Width:     clampUint32(f.Width),
			Height:    clampUint32(f.Height),
			FPS:       f.FPS,
		})
	}

	for _, row := range rows {
		state, err := domain.ParseDownloadState(row.State)
		if err != nil {
			state = domain.StateAdded
		}
		entries = append(entries, &domain.HistoryEntry{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			State:     state,
			Info: domain.VideoInfo{
				VideoID:         row.VideoID,
				Title:           row.Title,
				Author:          row.Author,
				DurationSeconds: clampUint32(row.Seconds),
				ThumbnailURL:    row.Thumbnail,
				SourceURL:       row.URL,
				Formats:         byVideo[row.ID],
				AudioAvailable:  row.AudioAvailable,
			},
		})
	}

	return entries, nil
}

func clampUint32(v int64) uint32 {
	if v < 0 || v > int64(^uint32(0)) {
		return 0
	}
	return uint32(v)
}
