package repo

import (
	"context"

	"github.com/strmhub/account-service/internal/domain/account/model"
)

// MediaStore is the external object host for avatars and cover images.
type MediaStore interface {
	Upload(ctx context.Context, file model.FileUpload) (model.Media, error)

	// Delete failures are the caller's to swallow: losing an orphaned
	// object is preferable to failing the request that triggered cleanup.
	Delete(ctx context.Context, key string) error
}
