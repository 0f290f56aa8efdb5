package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/logging"
	"filevault/internal/server/models"
	filesrepo "filevault/internal/server/repositories/files"
	sharesrepo "filevault/internal/server/repositories/shares"
	usersrepo "filevault/internal/server/repositories/users"
)

// --- in-memory repository fakes ---

type fakeUsersRepo struct {
	byID   map[models.UserID]*models.User
	byName map[string]*models.User
	nextID int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byID:   map[models.UserID]*models.User{},
		byName: map[string]*models.User{},
	}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.byID[u.ID] = u
	f.byName[u.Username] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, taken := f.byName[u.Username]; taken {
		return nil, common.ErrorConflict
	}
	f.nextID++
	u.ID = models.UserID(fmt.Sprintf("u-%d", f.nextID))
	return f.add(u), nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) ListOthers(ctx context.Context, exclude models.UserID) ([]*models.User, error) {
	var out []*models.User
	for id, u := range f.byID {
		if id != exclude {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeFilesRepo struct {
	files     map[models.FileID]*models.File
	nextID    int
	createErr error
	deleteErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{files: map[models.FileID]*models.File{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	file.ID = models.FileID(fmt.Sprintf("f-%d", f.nextID))
	f.files[file.ID] = file
	return file, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id models.FileID) (*models.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFilesRepo) Rename(ctx context.Context, id models.FileID, filename string) error {
	file, ok := f.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	file.Filename = filename
	return nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id models.FileID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.files, id)
	return nil
}

func (f *fakeFilesRepo) ListByOwner(ctx context.Context, owner models.UserID) ([]*models.File, error) {
	var out []*models.File
	for _, file := range f.files {
		if file.OwnerID == owner {
			out = append(out, file)
		}
	}
	return out, nil
}

type sharePair struct {
	file    models.FileID
	grantee models.UserID
}

type fakeSharesRepo struct {
	grants map[sharePair]bool
	users  *fakeUsersRepo
	files  *fakeFilesRepo
	nextID int
}

func newFakeSharesRepo(users *fakeUsersRepo, files *fakeFilesRepo) *fakeSharesRepo {
	return &fakeSharesRepo{grants: map[sharePair]bool{}, users: users, files: files}
}

func (f *fakeSharesRepo) Grant(ctx context.Context, fileID models.FileID, granteeID models.UserID) (*models.Share, error) {
	p := sharePair{fileID, granteeID}
	if f.grants[p] {
		return nil, common.ErrorAlreadyShared
	}
	if _, ok := f.files.files[fileID]; !ok {
		return nil, common.ErrorNotFound
	}
	f.grants[p] = true
	f.nextID++
	return &models.Share{ID: fmt.Sprintf("s-%d", f.nextID), FileID: fileID, GranteeID: granteeID}, nil
}

func (f *fakeSharesRepo) Revoke(ctx context.Context, fileID models.FileID, granteeID models.UserID) error {
	p := sharePair{fileID, granteeID}
	if !f.grants[p] {
		return common.ErrorNotShared
	}
	delete(f.grants, p)
	return nil
}

func (f *fakeSharesRepo) IsShared(ctx context.Context, fileID models.FileID, granteeID models.UserID) (bool, error) {
	return f.grants[sharePair{fileID, granteeID}], nil
}

func (f *fakeSharesRepo) GranteesOf(ctx context.Context, fileID models.FileID) ([]*models.User, error) {
	out := []*models.User{}
	for p := range f.grants {
		if p.file == fileID {
			if u, ok := f.users.byID[p.grantee]; ok {
				out = append(out, &models.User{ID: u.ID, Username: u.Username, FullName: u.FullName})
			}
		}
	}
	return out, nil
}

func (f *fakeSharesRepo) FilesSharedWith(ctx context.Context, granteeID models.UserID) ([]*models.File, error) {
	var out []*models.File
	for p := range f.grants {
		if p.grantee == granteeID {
			if file, ok := f.files.files[p.file]; ok {
				out = append(out, file)
			}
		}
	}
	return out, nil
}

func (f *fakeSharesRepo) Purge(ctx context.Context, fileID models.FileID) error {
	for p := range f.grants {
		if p.file == fileID {
			delete(f.grants, p)
		}
	}
	return nil
}

// fakeRepoManager hands out the same fakes regardless of the DBTX, so
// transactional code paths run against shared in-memory state.
type fakeRepoManager struct {
	users  *fakeUsersRepo
	files  *fakeFilesRepo
	shares *fakeSharesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	users := newFakeUsersRepo()
	files := newFakeFilesRepo()
	return &fakeRepoManager{users: users, files: files, shares: newFakeSharesRepo(users, files)}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository              { return m.users }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository             { return m.files }
func (m *fakeRepoManager) Shares(db dbx.DBTX) sharesrepo.Repository           { return m.shares }

// --- blob store fake ---

type fakeBlobStore struct {
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key, contentType string, owner models.UserID, size int64, r io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

// --- helpers ---

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
