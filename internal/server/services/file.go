package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/logging"
	"filevault/internal/server/blobstore"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

// FileService coordinates the file lifecycle across the metadata store, the
// sharing ledger and the blob store. It is the only component that performs
// cross-entity cascades (delete purging shares), so the ledger can never
// reference a file that no longer exists.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	access      *AccessPolicy
	logger      logging.Logger
}

// NewFileService constructs a FileService over the given stores.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, access *AccessPolicy, l logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		access:      access,
		logger:      l.With("module", "file_service"),
	}
}

// Upload streams the content into the blob store and records the metadata
// row with the caller as immutable owner. If the metadata insert fails the
// uploaded blob is removed again on a best-effort basis.
func (s *FileService) Upload(ctx context.Context, owner models.UserID, filename, contentType string, size int64, r io.Reader) (*models.File, error) {
	key := blobstore.RandomStorageKey()

	if err := s.blobs.Put(ctx, key, contentType, owner, size, r); err != nil {
		return nil, fmt.Errorf("error storing blob: %w", err)
	}

	file := &models.File{
		OwnerID:     owner,
		Filename:    filename,
		ContentType: contentType,
		StorageKey:  key,
		Size:        size,
	}

	file, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn(ctx, "could not remove blob after failed insert", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return file, nil
}

// Download returns the file metadata and an open reader over its content.
// Callable by the owner or a current grantee; everyone else gets
// common.ErrorForbidden.
func (s *FileService) Download(ctx context.Context, caller models.UserID, fileID models.FileID) (*models.File, io.ReadCloser, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.access.CanRead(ctx, file, caller)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, common.ErrorForbidden
	}

	rc, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening blob: %w", err)
	}
	return file, rc, nil
}

// Share grants granteeID read access to fileID. Only the owner may share;
// sharing with the owner is a conflict, an unknown grantee is not found, and
// a duplicate grant surfaces as common.ErrorAlreadyShared from the ledger's
// uniqueness guard (also under concurrency).
func (s *FileService) Share(ctx context.Context, caller models.UserID, fileID models.FileID, granteeID models.UserID) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if !s.access.CanManage(file, caller) {
		return common.ErrorForbidden
	}

	if err := s.access.CheckGrantee(ctx, file, granteeID); err != nil {
		return err
	}

	if _, err := s.repomanager.Shares(s.db).Grant(ctx, fileID, granteeID); err != nil {
		return err
	}
	return nil
}

// Revoke removes granteeID's read access to fileID. Only the owner may
// revoke; revoking from the owner is a conflict and revoking a share that
// does not exist fails with common.ErrorNotShared.
func (s *FileService) Revoke(ctx context.Context, caller models.UserID, fileID models.FileID, granteeID models.UserID) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if !s.access.CanManage(file, caller) {
		return common.ErrorForbidden
	}

	if err := s.access.CheckGrantee(ctx, file, granteeID); err != nil {
		return err
	}

	return s.repomanager.Shares(s.db).Revoke(ctx, fileID, granteeID)
}

// Rename updates the filename. Owner only.
func (s *FileService) Rename(ctx context.Context, caller models.UserID, fileID models.FileID, filename string) error {
	if filename == "" {
		return common.ErrorValidation
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if !s.access.CanManage(file, caller) {
		return common.ErrorForbidden
	}

	return s.repomanager.Files(s.db).Rename(ctx, fileID, filename)
}

// Delete removes the file and every share referencing it as one
// transaction: shares are purged first, then the metadata row goes, and the
// two commit or roll back together. An aborted delete therefore never leaves
// the ledger pointing at a half-deleted file. The blob itself is removed
// after commit on a best-effort basis; an orphaned blob is garbage, not a
// dangling reference.
func (s *FileService) Delete(ctx context.Context, caller models.UserID, fileID models.FileID) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if !s.access.CanManage(file, caller) {
		return common.ErrorForbidden
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Shares(tx).Purge(ctx, fileID); err != nil {
			return err
		}
		return s.repomanager.Files(tx).Delete(ctx, fileID)
	})
	if err != nil {
		return fmt.Errorf("error deleting file: %w", err)
	}

	if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn(ctx, "could not remove blob for deleted file", "key", file.StorageKey, "error", err)
	}
	return nil
}

// ListOwned returns the caller's files in store order.
func (s *FileService) ListOwned(ctx context.Context, caller models.UserID) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, caller)
}

// ListSharedWith returns the files shared with the caller, each annotated
// with its owner id.
func (s *FileService) ListSharedWith(ctx context.Context, caller models.UserID) ([]*models.File, error) {
	return s.repomanager.Shares(s.db).FilesSharedWith(ctx, caller)
}

// ListGrantees returns the users the file is shared with. Owner only.
func (s *FileService) ListGrantees(ctx context.Context, caller models.UserID, fileID models.FileID) ([]*models.User, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !s.access.CanManage(file, caller) {
		return nil, common.ErrorForbidden
	}

	return s.repomanager.Shares(s.db).GranteesOf(ctx, fileID)
}

// Details returns the file summary. Callable by the owner or any grantee.
func (s *FileService) Details(ctx context.Context, caller models.UserID, fileID models.FileID) (*models.File, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	ok, err := s.access.CanRead(ctx, file, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	return file, nil
}
