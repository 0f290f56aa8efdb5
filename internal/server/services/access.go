// Package services contains the server-side business logic: authorization
// decisions, account management and the file lifecycle.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

// AccessPolicy answers whether an identity may perform an operation on a
// file. Read access and management access are deliberately different
// predicates: a share grants read-only capability, never management, so a
// grantee can never re-share, rename or delete a file they do not own.
//
// The policy carries no HTTP semantics; callers translate a false decision
// into their own forbidden outcome. Every decision re-reads ground truth
// from the store, so revocation takes effect on the next request.
type AccessPolicy struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewAccessPolicy constructs an AccessPolicy over the given repositories.
func NewAccessPolicy(db *sql.DB, m repomanager.RepositoryManager) *AccessPolicy {
	return &AccessPolicy{db: db, repomanager: m}
}

// CanManage reports whether identity may rename, delete, share or revoke the
// file and list its grantees. Only the owner can.
func (p *AccessPolicy) CanManage(file *models.File, identity models.UserID) bool {
	return file.OwnerID == identity
}

// CanRead reports whether identity may download or view the file: the owner
// always can, anyone else needs a share record.
func (p *AccessPolicy) CanRead(ctx context.Context, file *models.File, identity models.UserID) (bool, error) {
	if p.CanManage(file, identity) {
		return true, nil
	}

	shared, err := p.repomanager.Shares(p.db).IsShared(ctx, file.ID, identity)
	if err != nil {
		return false, fmt.Errorf("error checking share: %w", err)
	}
	return shared, nil
}

// CheckGrantee validates a share/revoke target: the grantee must be an
// existing user distinct from the file's owner. Self-sharing is a conflict
// (common.ErrorSelfShare), an unknown grantee is common.ErrorNotFound.
func (p *AccessPolicy) CheckGrantee(ctx context.Context, file *models.File, grantee models.UserID) error {
	if grantee == file.OwnerID {
		return common.ErrorSelfShare
	}

	if _, err := p.repomanager.Users(p.db).GetByID(ctx, grantee); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error checking grantee: %w", err)
	}
	return nil
}
