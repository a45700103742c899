package media

import (
	"context"
	"errors"
	"fmt"

	"servicehub/internal/config"
	"servicehub/internal/domain"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	destroyOK       = "ok"
	destroyNotFound = "not found"
)

// CloudinaryStore stores images with Cloudinary
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore creates a store from account credentials
func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("media/cloudinary: CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("media/cloudinary: init: %w", err)
	}

	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, f File, opts UploadOptions) (domain.MediaRef, error) {
	if f.Content == nil {
		return domain.MediaRef{}, ErrNoContent
	}

	params := uploader.UploadParams{
		Folder: opts.Folder,
	}
	if opts.MaxWidth > 0 && opts.MaxHeight > 0 {
		params.Transformation = fmt.Sprintf("c_limit,w_%d,h_%d", opts.MaxWidth, opts.MaxHeight)
	}

	resp, err := s.cld.Upload.Upload(ctx, f.Content, params)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("media/cloudinary: upload %s: %w", f.Filename, err)
	}
	if resp.Error.Message != "" {
		return domain.MediaRef{}, fmt.Errorf("media/cloudinary: upload %s: %s", f.Filename, resp.Error.Message)
	}

	return domain.MediaRef{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("media/cloudinary: destroy %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("media/cloudinary: destroy %s: %s", publicID, resp.Error.Message)
	}
	if resp.Result != destroyOK && resp.Result != destroyNotFound {
		return fmt.Errorf("media/cloudinary: destroy %s: unexpected result %q", publicID, resp.Result)
	}
	return nil
}
