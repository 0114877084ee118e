package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avkorolev/yatube/models"
	"github.com/avkorolev/yatube/utils"
)

// FollowController manages follow edges between users and the feed of
// followed authors.
type FollowController struct {
	db *gorm.DB
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{db: db}
}

// Follow creates a follow edge from the caller to the named author. Repeating
// an existing follow is a no-op; following yourself is rejected.
func (f *FollowController) Follow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	author, ok := f.lookupAuthor(ctx)
	if !ok {
		return
	}

	if author.ID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40040, "cannot follow yourself")
		return
	}

	follow := models.Follow{UserID: userID, AuthorID: author.ID}
	err := f.db.Where("user_id = ? AND author_id = ?", userID, author.ID).
		FirstOrCreate(&follow).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to follow")
		return
	}

	utils.InvalidateByPrefix(feedCachePrefix(userID))

	utils.Success(ctx, gin.H{"follow": follow})
}

// Unfollow removes the caller's follow edge to the named author, if any.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	author, ok := f.lookupAuthor(ctx)
	if !ok {
		return
	}

	err := f.db.Where("user_id = ? AND author_id = ?", userID, author.ID).
		Delete(&models.Follow{}).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to unfollow")
		return
	}

	utils.InvalidateByPrefix(feedCachePrefix(userID))

	utils.Success(ctx, gin.H{"message": "unfollowed"})
}

// Feed returns posts authored by users the caller follows, newest first.
func (f *FollowController) Feed(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	cacheKey := fmt.Sprintf("%spage=%d:size=%d", feedCachePrefix(userID), page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	followed := f.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)

	var posts []models.Post
	var total int64
	q := f.db.Where("user_id IN (?)", followed).Preload("User").Preload("Group").
		Order("pub_date DESC, id DESC")
	if err := q.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count feed")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list feed")
		return
	}

	payload := paginatedPayload(posts, page, pageSize, total)
	cacheWrapped(cacheKey, payload)
	utils.Success(ctx, payload)
}

func (f *FollowController) lookupAuthor(ctx *gin.Context) (models.User, bool) {
	username := strings.TrimSpace(ctx.Param("username"))
	var author models.User
	if err := f.db.Where("username = ?", username).First(&author).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "user not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load user")
		}
		return models.User{}, false
	}
	return author, true
}

func feedCachePrefix(userID uint) string {
	return fmt.Sprintf("cache:feed:user:%d:", userID)
}
