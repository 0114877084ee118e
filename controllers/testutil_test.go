package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avkorolev/yatube/config"
	"github.com/avkorolev/yatube/migrations"
	"github.com/avkorolev/yatube/models"
	"github.com/avkorolev/yatube/repository"
	"github.com/avkorolev/yatube/routes"
)

// testEnv is a fresh application per test: its own in-memory database with the
// full migration history applied, the real router, and repository accessors
// for fixtures and table-state assertions.
type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:yatube_%s?mode=memory&cache=shared&_fk=1",
		strings.ReplaceAll(uuid.NewString(), "-", ""))
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: dsn,
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, migrations.Run(db, migrations.Steps()))

	return &testEnv{
		db:       db,
		router:   routes.SetupRouter(db),
		posts:    repository.NewPosts(db),
		comments: repository.NewComments(db),
		groups:   repository.NewGroups(db),
		users:    repository.NewUsers(db),
		follows:  repository.NewFollows(db),
	}
}

// registerUser creates an account through the real endpoint and returns the
// stored user row plus a bearer token.
func (e *testEnv) registerUser(t *testing.T, username string) (models.User, string) {
	t.Helper()

	body, _ := json.Marshal(gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse-battery",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "register %s: %s", username, w.Body.String())

	var resp struct {
		Data struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.User, resp.Data.Token
}

// postForm submits a urlencoded form, optionally authenticated.
func (e *testEnv) postForm(t *testing.T, path, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// postMultipart submits a multipart form with one file attached under the
// given field name.
func (e *testEnv) postMultipart(t *testing.T, path, token string, fields map[string]string, fileField, fileName string, fileContent []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = fw.Write(fileContent)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.posts.CountWhere(context.Background(), nil)
	require.NoError(t, err)
	return n
}

func (e *testEnv) commentCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.comments.CountWhere(context.Background(), nil)
	require.NoError(t, err)
	return n
}

func (e *testEnv) followCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.follows.CountWhere(context.Background(), nil)
	require.NoError(t, err)
	return n
}

// snapshotPosts returns all post rows ordered by id.
func (e *testEnv) snapshotPosts(t *testing.T) []models.Post {
	t.Helper()
	rows, err := e.posts.ListAll(context.Background())
	require.NoError(t, err)
	return rows
}

// requirePostsUnchanged asserts that every row captured in before is still
// present, field for field, regardless of what else was inserted since.
func (e *testEnv) requirePostsUnchanged(t *testing.T, before []models.Post) {
	t.Helper()

	after := e.snapshotPosts(t)
	byID := make(map[uint]models.Post, len(after))
	for _, row := range after {
		byID[row.ID] = row
	}

	for _, want := range before {
		got, ok := byID[want.ID]
		require.True(t, ok, "post %d disappeared", want.ID)
		require.Equal(t, want.Text, got.Text, "post %d text", want.ID)
		require.True(t, want.PubDate.Equal(got.PubDate), "post %d pub_date changed", want.ID)
		require.Equal(t, want.UserID, got.UserID, "post %d author", want.ID)
		require.Equal(t, want.GroupID, got.GroupID, "post %d group", want.ID)
		require.Equal(t, want.Image, got.Image, "post %d image", want.ID)
	}
}
