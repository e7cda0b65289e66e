package repository

import (
	"context"

	"github.com/oksasatya/videotube/internal/domain/entity"
)

type VideoRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Video, error)
	// GetByIDs returns the videos that exist, keyed by id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Video, error)
}
