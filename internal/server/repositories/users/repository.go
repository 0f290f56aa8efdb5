// Package users persists account records and enforces username uniqueness.
package users

import (
	"context"

	"filevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id models.UserID) (*models.User, error)
	ListOthers(ctx context.Context, exclude models.UserID) ([]*models.User, error)
}
