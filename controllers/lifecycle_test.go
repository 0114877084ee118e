package controllers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avkorolev/yatube/models"
)

func TestDeletingUserRemovesTheirPostsAndComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author, _ := env.registerUser(t, "leaving")
	reader, _ := env.registerUser(t, "reader")

	post := models.Post{Text: "Пост уходящего автора", UserID: author.ID}
	require.NoError(t, env.posts.Insert(ctx, &post))

	// One comment by the author, one by another user on the same post.
	require.NoError(t, env.comments.Insert(ctx, &models.Comment{
		PostID: post.ID, UserID: author.ID, Text: "свой комментарий",
	}))
	require.NoError(t, env.comments.Insert(ctx, &models.Comment{
		PostID: post.ID, UserID: reader.ID, Text: "чужой комментарий",
	}))

	require.NoError(t, env.db.WithContext(ctx).Delete(&models.User{}, author.ID).Error)

	assert.Zero(t, env.postCount(t), "posts must cascade with their author")
	assert.Zero(t, env.commentCount(t), "comments must cascade with the author or the post")

	remaining, err := env.users.CountWhere(ctx, "id = ?", reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining, "unrelated users must survive the cascade")
}

func TestDeletingGroupDetachesPosts(t *testing.T) {
	env := newTestEnv(t)
	_, _, group := seedAuthorWithPosts(t, env)
	ctx := context.Background()

	countBefore := env.postCount(t)
	require.NoError(t, env.db.WithContext(ctx).Delete(&models.Group{}, group.ID).Error)

	assert.Equal(t, countBefore, env.postCount(t), "group removal must not delete posts")

	n, err := env.posts.CountWhere(ctx, "group_id IS NOT NULL")
	require.NoError(t, err)
	assert.Zero(t, n, "posts of a removed group must lose their group reference")
}
