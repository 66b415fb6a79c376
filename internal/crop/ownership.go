package crop

import (
	"context"
	"errors"

	"agri-backend/internal/repository"
	"agri-backend/internal/validation"
)

// RequireOwned rejects a crop reference that is unknown or owned by someone else.
func RequireOwned(ctx context.Context, crops repository.CropRepository, farmerID, cropID uint) error {
	owner, err := crops.OwnerOf(ctx, cropID)
	if errors.Is(err, repository.ErrNotFound) {
		return validation.NewFieldError("crop_id", "crop does not exist")
	}
	if err != nil {
		return err
	}
	if owner != farmerID {
		return validation.NewFieldError("crop_id", "crop belongs to another farmer")
	}
	return nil
}
