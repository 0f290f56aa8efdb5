package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filevault/internal/common"
	"filevault/internal/server/auth"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

// UserService handles registration, login and user listings. Both Register
// and Login issue a session token on success, matching the public API.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new account and returns a session token. Blank fields
// fail with common.ErrorValidation; a taken username with
// common.ErrorConflict (the store's unique constraint decides, so two
// concurrent registrations cannot both win).
func (s *UserService) Register(ctx context.Context, username, fullname, password string) (string, error) {
	if username == "" || fullname == "" || password == "" {
		return "", common.ErrorValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", common.ErrorInternal
	}

	user := &models.User{Username: username, FullName: fullname, PasswordHash: hash}
	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return "", common.ErrorConflict
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return s.generateAccessToken(user.ID)
}

// Login verifies the credentials and returns a session token plus the
// account record. Unknown usernames and wrong passwords are indistinguishable
// to the caller (common.ErrorUnauthorized).
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, common.ErrorInternal
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, common.ErrorInternal
	}
	if !ok {
		return "", nil, common.ErrorUnauthorized
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetByID resolves an authenticated identity to its account record.
func (s *UserService) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// ListOthers returns every account except the caller's, without credential
// digests.
func (s *UserService) ListOthers(ctx context.Context, caller models.UserID) ([]*models.User, error) {
	return s.repomanager.Users(s.db).ListOthers(ctx, caller)
}

func (s *UserService) generateAccessToken(userID models.UserID) (string, error) {
	token, err := auth.GenerateToken(userID.String(), s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
