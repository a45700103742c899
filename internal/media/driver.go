package media

import (
	"context"
	"fmt"

	"servicehub/internal/config"
)

// NewStore builds the store selected by MEDIA_DRIVER
func NewStore(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Driver {
	case config.MediaDriverCloudinary:
		return NewCloudinaryStore(cfg.Cloudinary)
	case config.MediaDriverS3:
		return NewS3Store(ctx, cfg.S3)
	case config.MediaDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("media: unsupported driver %q", cfg.Driver)
	}
}
