package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/videotube/internal/domain/entity"
	"github.com/oksasatya/videotube/internal/domain/repository"
)

const videoColumns = `id::text, video_file, thumbnail, title, description, duration, views,
	is_published, owner_id::text, created_at, updated_at`

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

func scanVideo(row pgx.Row) (*entity.Video, error) {
	v := &entity.Video{}
	if err := row.Scan(&v.ID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description, &v.Duration, &v.Views,
		&v.IsPublished, &v.OwnerID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*entity.Video, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
}

func (r *VideoRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Video, error) {
	ids = validIDs(ids)
	out := make(map[string]*entity.Video, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}

// Create is used by the seeder and tests; uploading videos is handled elsewhere.
func (r *VideoRepository) Create(ctx context.Context, v *entity.Video) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO videos (video_file, thumbnail, title, description, duration, views, is_published, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at, updated_at
	`, v.VideoFile, v.Thumbnail, v.Title, v.Description, v.Duration, v.Views, v.IsPublished, v.OwnerID)
	return translate(row.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt))
}

// Delete removes a video; watch histories keep the dangling id.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.VideoRepository = (*VideoRepository)(nil)
