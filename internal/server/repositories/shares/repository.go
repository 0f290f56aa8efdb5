// Package shares persists grant records: the single source of truth for who
// besides the owner may read a file.
package shares

import (
	"context"

	"filevault/internal/server/models"
)

type Repository interface {
	// Grant inserts a share for (fileID, granteeID). A second grant for the
	// same pair fails with common.ErrorAlreadyShared.
	Grant(ctx context.Context, fileID models.FileID, granteeID models.UserID) (*models.Share, error)

	// Revoke deletes the share for (fileID, granteeID). If none exists it
	// fails with common.ErrorNotShared.
	Revoke(ctx context.Context, fileID models.FileID, granteeID models.UserID) error

	IsShared(ctx context.Context, fileID models.FileID, granteeID models.UserID) (bool, error)

	// GranteesOf returns the users holding a share on fileID, without
	// credential digests.
	GranteesOf(ctx context.Context, fileID models.FileID) ([]*models.User, error)

	// FilesSharedWith returns the files shared with the given user, each
	// carrying its owner id.
	FilesSharedWith(ctx context.Context, granteeID models.UserID) ([]*models.File, error)

	// Purge deletes every share referencing fileID. Deleting zero rows is
	// not an error.
	Purge(ctx context.Context, fileID models.FileID) error
}
