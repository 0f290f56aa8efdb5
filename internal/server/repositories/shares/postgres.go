package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/models"
)

// PostgresRepository implements the sharing ledger over a dbx.DBTX. The
// UNIQUE (file_id, grantee_id) constraint is the atomic guard against
// concurrent duplicate grants.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Grant(ctx context.Context, fileID models.FileID, granteeID models.UserID) (*models.Share, error) {
	query :=
		`INSERT INTO shares (file_id, grantee_id)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	share := &models.Share{FileID: fileID, GranteeID: granteeID}
	err := r.db.QueryRowContext(ctx, query, fileID, granteeID).Scan(&share.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyShared
		}
		// Racing against a concurrent delete: the file row is gone.
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return share, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, fileID models.FileID, granteeID models.UserID) error {
	query := `DELETE FROM shares WHERE file_id = $1 AND grantee_id = $2`

	result, err := r.db.ExecContext(ctx, query, fileID, granteeID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotShared
	}
	return nil
}

func (r *PostgresRepository) IsShared(ctx context.Context, fileID models.FileID, granteeID models.UserID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM shares WHERE file_id = $1 AND grantee_id = $2)`

	var shared bool
	err := r.db.QueryRowContext(ctx, query, fileID, granteeID).Scan(&shared)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return shared, nil
}

func (r *PostgresRepository) GranteesOf(ctx context.Context, fileID models.FileID) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.username, u.fullname
		 FROM shares s
		 JOIN users u ON u.id = s.grantee_id
		 WHERE s.file_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		var item models.User
		if err := rows.Scan(&item.ID, &item.Username, &item.FullName); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) FilesSharedWith(ctx context.Context, granteeID models.UserID) ([]*models.File, error) {
	query :=
		`SELECT f.id, f.owner_id, f.filename, f.content_type, f.storage_key, f.size
		 FROM shares s
		 JOIN files f ON f.id = s.file_id
		 WHERE s.grantee_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, granteeID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Filename, &item.ContentType, &item.StorageKey, &item.Size); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Purge(ctx context.Context, fileID models.FileID) error {
	query := `DELETE FROM shares WHERE file_id = $1`

	if _, err := r.db.ExecContext(ctx, query, fileID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
