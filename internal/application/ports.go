package application

import (
	"context"
	"time"

	"github.com/oksasatya/videotube/internal/domain/entity"
	"github.com/oksasatya/videotube/pkg/helpers"
)

// TokenIssuer is satisfied by *helpers.JWTManager.
type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, time.Time, error)
	GenerateRefreshToken(userID string) (string, time.Time, error)
	ParseRefreshToken(token string) (*helpers.Claims, error)
}

// MediaUploader turns a local temp file into a hosted URL.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// EmailQueue is satisfied by *helpers.RabbitPublisher.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

// ChannelIndexer keeps the search index in step with user writes.
type ChannelIndexer interface {
	IndexChannel(ctx context.Context, u *entity.User) error
}
