// Package files persists file metadata records. The bytes themselves live in
// object storage under the record's storage key.
package files

import (
	"context"

	"filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id models.FileID) (*models.File, error)
	Rename(ctx context.Context, id models.FileID, filename string) error
	Delete(ctx context.Context, id models.FileID) error
	ListByOwner(ctx context.Context, owner models.UserID) ([]*models.File, error)
}
