package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/videotube/internal/domain/entity"
	"github.com/oksasatya/videotube/internal/domain/repository"
)

const userColumns = `id::text, username, email, full_name, password_hash, avatar_url,
	cover_image_url, refresh_token_hash, watch_history::text[], created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.AvatarURL,
		&u.CoverImageURL, &u.RefreshTokenHash, &u.WatchHistory, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, full_name, password_hash, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, u.Username, u.Email, u.FullName, u.PasswordHash, u.AvatarURL, u.CoverImageURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return translate(err)
	}
	u.WatchHistory = []string{}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	ids = validIDs(ids)
	out := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// GetByUsernameOrEmail prefers the username match when both identifiers hit different rows.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		ORDER BY (username = $1) DESC
		LIMIT 1
	`, username, email))
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
	`, username, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) EmailTakenByOther(ctx context.Context, email, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id::text <> $2)
	`, email, userID).Scan(&exists)
	return exists, err
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token_hash = NULL, updated_at = now() WHERE id = $1`, id)
}

func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token_hash = $3, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2
	`, id, presented, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *UserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error) {
	return r.updateReturning(ctx, `UPDATE users SET full_name = $2, email = $3, updated_at = now() WHERE id = $1`, id, fullName, strings.ToLower(email))
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url string) (*entity.User, error) {
	return r.updateReturning(ctx, `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`, id, url)
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url string) (*entity.User, error) {
	return r.updateReturning(ctx, `UPDATE users SET cover_image_url = $2, updated_at = now() WHERE id = $1`, id, url)
}

func (r *UserRepository) AppendWatchHistory(ctx context.Context, id, videoID string) error {
	if !validID(videoID) {
		return repository.ErrNotFound
	}
	return r.exec(ctx, `
		UPDATE users SET watch_history = array_append(watch_history, $2::uuid), updated_at = now()
		WHERE id = $1
	`, id, videoID)
}

func (r *UserRepository) exec(ctx context.Context, sql string, id string, args ...any) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) updateReturning(ctx context.Context, sql string, id string, args ...any) (*entity.User, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, sql+` RETURNING `+userColumns, append([]any{id}, args...)...))
}

var _ repository.UserRepository = (*UserRepository)(nil)
