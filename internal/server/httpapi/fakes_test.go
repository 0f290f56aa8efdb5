package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/logging"
	"filevault/internal/server/auth"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	filesrepo "filevault/internal/server/repositories/files"
	"filevault/internal/server/repositories/repomanager"
	sharesrepo "filevault/internal/server/repositories/shares"
	usersrepo "filevault/internal/server/repositories/users"
	"filevault/internal/server/services"
)

const testSecret = "test-secret"

// Fixed identities so tokens and query parameters survive the uuid parsing
// at the API boundary.
var (
	aliceID = models.UserID("11111111-1111-4111-8111-111111111111")
	bobID   = models.UserID("22222222-2222-4222-8222-222222222222")
	carolID = models.UserID("33333333-3333-4333-8333-333333333333")
)

type fakeUsersRepo struct {
	byID   map[models.UserID]*models.User
	byName map[string]*models.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[models.UserID]*models.User{}, byName: map[string]*models.User{}}
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
	u.ID = models.UserID(uuid.NewString())
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
	files map[models.FileID]*models.File
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{files: map[models.FileID]*models.File{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	file.ID = models.FileID(uuid.NewString())
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
}

func (f *fakeSharesRepo) Grant(ctx context.Context, fileID models.FileID, granteeID models.UserID) (*models.Share, error) {
	p := sharePair{fileID, granteeID}
	if f.grants[p] {
		return nil, common.ErrorAlreadyShared
	}
	f.grants[p] = true
	return &models.Share{ID: uuid.NewString(), FileID: fileID, GranteeID: granteeID}, nil
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
				out = append(out, u)
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

type fakeRepoManager struct {
	users  *fakeUsersRepo
	files  *fakeFilesRepo
	shares *fakeSharesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	users := newFakeUsersRepo()
	files := newFakeFilesRepo()
	return &fakeRepoManager{
		users:  users,
		files:  files,
		shares: &fakeSharesRepo{grants: map[sharePair]bool{}, users: users, files: files},
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository              { return m.users }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository             { return m.files }
func (m *fakeRepoManager) Shares(db dbx.DBTX) sharesrepo.Repository           { return m.shares }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

type fakeBlobStore struct {
	objects map[string][]byte
}

func (f *fakeBlobStore) Put(ctx context.Context, key, contentType string, owner models.UserID, size int64, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

// harness wires a full Server over in-memory stores for request-level tests.
type harness struct {
	router *gin.Engine
	m      *fakeRepoManager
	blobs  *fakeBlobStore
	mock   sqlmock.Sqlmock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := newFakeRepoManager()
	blobs := &fakeBlobStore{objects: map[string][]byte{}}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg := &config.Config{SecretKey: testSecret, AccessTokenValidityDuration: time.Hour}
	us := services.NewUserService(db, m, cfg)
	access := services.NewAccessPolicy(db, m)
	fs := services.NewFileService(db, m, blobs, access, logger)

	srv, err := NewServer(":0", logger, us, fs, testSecret)
	require.NoError(t, err)

	return &harness{router: srv.Router(), m: m, blobs: blobs, mock: mock}
}

func (h *harness) seedUsers(t *testing.T) {
	t.Helper()
	h.m.users.add(&models.User{ID: aliceID, Username: "alice", FullName: "Alice A"})
	h.m.users.add(&models.User{ID: bobID, Username: "bob", FullName: "Bob B"})
	h.m.users.add(&models.User{ID: carolID, Username: "carol", FullName: "Carol C"})
}

func (h *harness) seedFile(t *testing.T, owner models.UserID) *models.File {
	t.Helper()
	file, err := h.m.files.Create(context.Background(), &models.File{
		OwnerID:     owner,
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		StorageKey:  "users/2026/8/28/key",
		Size:        4,
	})
	require.NoError(t, err)
	h.blobs.objects[file.StorageKey] = []byte("data")
	return file
}

func tokenFor(t *testing.T, id models.UserID) string {
	t.Helper()
	token, err := auth.GenerateToken(id.String(), []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, target, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) doJSON(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	return h.do(t, method, target, token, r)
}

func (h *harness) doMultipart(t *testing.T, target, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}
