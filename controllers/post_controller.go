package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avkorolev/yatube/config"
	"github.com/avkorolev/yatube/models"
	"github.com/avkorolev/yatube/utils"
)

// PostController manages posts, group pages and comments. Post creation and
// editing accept HTML form submissions (urlencoded or multipart with an image
// attachment) rather than JSON.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// CreatePost inserts one post for the authenticated caller. pub_date is fixed
// at insert time; group stays null when the form omits it.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40020, "text cannot be empty")
		return
	}

	groupID, err := p.resolveGroup(ctx.PostForm("group"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "unknown group")
		return
	}

	post := models.Post{
		Text:    text,
		UserID:  userID,
		GroupID: groupID,
	}

	if header, err := ctx.FormFile("image"); err == nil && header != nil {
		relPath, err := saveImage(ctx, header)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save image")
			return
		}
		post.Image = relPath
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create post")
		return
	}

	if err := p.db.Preload("User").Preload("Group").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load post")
		return
	}

	invalidatePostCaches(post, userID)

	utils.Success(ctx, gin.H{"post": post})
}

// EditPost overwrites text and group of the caller's own post. pub_date,
// author and image are never written here, so they cannot drift.
func (p *PostController) EditPost(ctx *gin.Context) {
	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only edit your own posts")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "text cannot be empty")
		return
	}

	groupID, err := p.resolveGroup(ctx.PostForm("group"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "unknown group")
		return
	}

	updates := map[string]interface{}{
		"text":     text,
		"group_id": groupID,
	}
	if err := p.db.Model(&post).Select("text", "group_id").Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}

	if err := p.db.Preload("User").Preload("Group").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load post")
		return
	}

	invalidatePostCaches(post, userID)

	utils.Success(ctx, gin.H{"post": post})
}

// GetPost returns a single post with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var post models.Post
	err := p.db.Preload("User").Preload("Group").Preload("Comments").Preload("Comments.User").
		First(&post, postID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	payload := gin.H{"post": post}
	cacheWrapped("cache:post:detail:"+postID, payload)
	utils.Success(ctx, payload)
}

// ListPosts returns paginated posts, newest first, including author information.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var posts []models.Post
	var total int64
	query := p.db.Preload("User").Preload("Group").Order("pub_date DESC, id DESC")
	if err := query.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to list posts")
		return
	}

	payload := paginatedPayload(posts, page, pageSize, total)
	cacheWrapped(cacheKey, payload)
	utils.Success(ctx, payload)
}

// ListGroups returns all groups.
func (p *PostController) ListGroups(ctx *gin.Context) {
	var groups []models.Group
	if err := p.db.Order("id").Find(&groups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to list groups")
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// ListGroupPosts returns the group's posts, the reverse side of post.group.
func (p *PostController) ListGroupPosts(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))
	var group models.Group
	if err := p.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "group not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to load group")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	var posts []models.Post
	var total int64
	q := p.db.Where("group_id = ?", group.ID).Preload("User").Order("pub_date DESC, id DESC")
	if err := q.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to count group posts")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list group posts")
		return
	}

	payload := paginatedPayload(posts, page, pageSize, total)
	payload["group"] = group
	utils.Success(ctx, payload)
}

// ListUserPosts returns posts authored by the named user (the profile page).
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	var author models.User
	if err := p.db.Where("username = ?", username).First(&author).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load user")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	var posts []models.Post
	var total int64
	q := p.db.Where("user_id = ?", author.ID).Preload("User").Preload("Group").Order("pub_date DESC, id DESC")
	if err := q.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to count user posts")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to list user posts")
		return
	}

	payload := paginatedPayload(posts, page, pageSize, total)
	payload["author"] = author
	utils.Success(ctx, payload)
}

// CreateComment inserts one comment on the target post for the authenticated caller.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40024, "text cannot be empty")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: userID,
		Text:   text,
	}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to create comment")
		return
	}

	if err := p.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load comment")
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(post.ID)))

	utils.Success(ctx, gin.H{"comment": comment})
}

// resolveGroup maps the optional form value to a group ID. Empty means no
// group; a value that is not a known group ID is a validation failure.
func (p *PostController) resolveGroup(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	var group models.Group
	if err := p.db.First(&group, uint(id)).Error; err != nil {
		return nil, err
	}
	gid := uint(id)
	return &gid, nil
}

// saveImage writes the uploaded file under <media root>/posts and returns the
// media-relative path stored on the post, e.g. "posts/small.gif".
func saveImage(ctx *gin.Context, header *multipart.FileHeader) (string, error) {
	cfg := config.Get()
	baseDir := filepath.Join(cfg.MediaRoot, "posts")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == "" {
		name = fmt.Sprintf("image_%d", time.Now().UnixNano())
	}
	dst := filepath.Join(baseDir, name)
	if _, err := os.Stat(dst); err == nil {
		// keep the original name unless it is already taken
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
		dst = filepath.Join(baseDir, name)
	}

	if err := ctx.SaveUploadedFile(header, dst); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join("posts", name)), nil
}

func invalidatePostCaches(post models.Post, userID uint) {
	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(post.ID)))
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":posts:")
	// Follower feeds include this author's posts; drop them wholesale.
	utils.InvalidateByPrefix("cache:feed:")
}

func paginatedPayload(items interface{}, page, pageSize int, total int64) gin.H {
	return gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func cacheWrapped(key string, payload gin.H) {
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(key, wrapper, time.Hour)
}
