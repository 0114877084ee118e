package controllers_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avkorolev/yatube/config"
	"github.com/avkorolev/yatube/models"
)

// smallGIF is a valid 1x2 pixel GIF, the smallest attachment worth testing.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

// seedAuthorWithPosts registers user "auth", creates the "test-slug" group and
// fills it with 15 posts, mirroring the state every post-form scenario starts from.
func seedAuthorWithPosts(t *testing.T, env *testEnv) (models.User, string, models.Group) {
	t.Helper()
	ctx := context.Background()

	author, token := env.registerUser(t, "auth")

	group := models.Group{
		Title:       "Тестовая группа",
		Slug:        "test-slug",
		Description: "Тестовое описание",
	}
	require.NoError(t, env.groups.Insert(ctx, &group))

	for i := 0; i < 15; i++ {
		gid := group.ID
		post := models.Post{
			Text:    "Текстовый пост №" + strconv.Itoa(i),
			UserID:  author.ID,
			GroupID: &gid,
		}
		require.NoError(t, env.posts.Insert(ctx, &post))
	}

	return author, token, group
}

func TestCreatePostAddsExactlyOneRow(t *testing.T) {
	env := newTestEnv(t)
	author, token, _ := seedAuthorWithPosts(t, env)

	before := env.snapshotPosts(t)
	countBefore := env.postCount(t)

	w := env.postForm(t, "/api/v1/posts", token, map[string]string{
		"text": "Тестовый пост",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, countBefore+1, env.postCount(t))

	rows := env.snapshotPosts(t)
	latest := rows[len(rows)-1]
	assert.Equal(t, "Тестовый пост", latest.Text)
	assert.Equal(t, author.ID, latest.UserID)
	assert.Nil(t, latest.GroupID, "group must stay null when the form omits it")
	assert.Empty(t, latest.Image)

	env.requirePostsUnchanged(t, before)
}

func TestCreatePostAnonymousDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	seedAuthorWithPosts(t, env)

	before := env.snapshotPosts(t)
	countBefore := env.postCount(t)

	w := env.postForm(t, "/api/v1/posts", "", map[string]string{
		"text": "Тестовый пост от guest_client",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, countBefore, env.postCount(t))

	n, err := env.posts.CountWhere(context.Background(), "text = ?", "Тестовый пост от guest_client")
	require.NoError(t, err)
	assert.Zero(t, n, "anonymous submission must leave no trace")

	env.requirePostsUnchanged(t, before)
}

func TestEditPostUpdatesOnlyTheTargetRow(t *testing.T) {
	env := newTestEnv(t)
	author, token, oldGroup := seedAuthorWithPosts(t, env)
	ctx := context.Background()

	before := env.snapshotPosts(t)

	oldGID := oldGroup.ID
	post := models.Post{Text: "Тестовый пост", UserID: author.ID, GroupID: &oldGID}
	require.NoError(t, env.posts.Insert(ctx, &post))

	stored, err := env.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	pubDateBefore := stored.PubDate
	authorBefore := stored.UserID

	newGroup := models.Group{
		Title:       "Новая тестовая группа",
		Slug:        "test-slug-new",
		Description: "Тестовое описание новой группы",
	}
	require.NoError(t, env.groups.Insert(ctx, &newGroup))

	countBefore := env.postCount(t)

	w := env.postForm(t, "/api/v1/posts/"+strconv.Itoa(int(post.ID)), token, map[string]string{
		"text":  "Тестовый пост, обновленный!",
		"group": strconv.Itoa(int(newGroup.ID)),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, countBefore, env.postCount(t))

	edited, err := env.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Тестовый пост, обновленный!", edited.Text)
	require.NotNil(t, edited.GroupID)
	assert.Equal(t, newGroup.ID, *edited.GroupID)
	assert.True(t, pubDateBefore.Equal(edited.PubDate), "pub_date must never change on edit")
	assert.Equal(t, authorBefore, edited.UserID, "author must never change on edit")

	// The post left the old group's reverse relation.
	n, err := env.posts.CountWhere(ctx, "group_id = ? AND id = ?", oldGroup.ID, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.requirePostsUnchanged(t, before)
}

func TestEditPostByNonAuthorForbidden(t *testing.T) {
	env := newTestEnv(t)
	author, _, _ := seedAuthorWithPosts(t, env)
	ctx := context.Background()

	post := models.Post{Text: "Тестовый пост", UserID: author.ID}
	require.NoError(t, env.posts.Insert(ctx, &post))
	before := env.snapshotPosts(t)

	_, otherToken := env.registerUser(t, "intruder")
	w := env.postForm(t, "/api/v1/posts/"+strconv.Itoa(int(post.ID)), otherToken, map[string]string{
		"text": "чужой текст",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	env.requirePostsUnchanged(t, before)
}

func TestEditMissingPostNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, token, _ := seedAuthorWithPosts(t, env)

	w := env.postForm(t, "/api/v1/posts/999999", token, map[string]string{
		"text": "не важно",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostWithImage(t *testing.T) {
	env := newTestEnv(t)
	_, token, _ := seedAuthorWithPosts(t, env)

	before := env.snapshotPosts(t)
	countBefore := env.postCount(t)

	w := env.postMultipart(t, "/api/v1/posts", token,
		map[string]string{"text": "Тестовый текст"},
		"image", "small.gif", smallGIF,
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, countBefore+1, env.postCount(t))

	n, err := env.posts.CountWhere(context.Background(),
		"text = ? AND image = ?", "Тестовый текст", "posts/small.gif")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	saved := filepath.Join(config.Get().MediaRoot, "posts", "small.gif")
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, smallGIF, data)

	env.requirePostsUnchanged(t, before)
}

func TestEditPostKeepsImage(t *testing.T) {
	env := newTestEnv(t)
	_, token, _ := seedAuthorWithPosts(t, env)
	ctx := context.Background()

	w := env.postMultipart(t, "/api/v1/posts", token,
		map[string]string{"text": "Пост с картинкой"},
		"image", "keep.gif", smallGIF,
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created models.Post
	require.NoError(t, env.db.WithContext(ctx).
		Where("text = ?", "Пост с картинкой").First(&created).Error)
	require.NotEmpty(t, created.Image)

	w = env.postForm(t, "/api/v1/posts/"+strconv.Itoa(int(created.ID)), token, map[string]string{
		"text": "Пост с картинкой, обновленный!",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	edited, err := env.posts.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Пост с картинкой, обновленный!", edited.Text)
	assert.Equal(t, created.Image, edited.Image, "edit must leave the attachment untouched")
}
