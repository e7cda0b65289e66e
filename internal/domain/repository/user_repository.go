package repository

import (
	"context"

	"github.com/oksasatya/videotube/internal/domain/entity"
)

// UserRepository defines the credential store and channel reads.
// Lookups that find nothing return ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIDs returns the users that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// GetByUsernameOrEmail matches either column; empty arguments never match.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	EmailTakenByOther(ctx context.Context, email, userID string) (bool, error)

	// SetRefreshToken overwrites the stored digest unconditionally (login).
	SetRefreshToken(ctx context.Context, id, hash string) error
	ClearRefreshToken(ctx context.Context, id string) error
	// SwapRefreshToken replaces presented with next only if presented is still
	// the stored digest. It returns false when another request rotated first.
	SwapRefreshToken(ctx context.Context, id, presented, next string) (bool, error)

	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (*entity.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (*entity.User, error)
	AppendWatchHistory(ctx context.Context, id, videoID string) error
}
