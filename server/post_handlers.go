package server

import (
	"time"

	"chaosnet/cache"
	"chaosnet/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	postListCacheKey = "posts:all"
	postListCacheTTL = 30 * time.Second
)

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	posts := []models.Post{}
	err := cache.CacheAside(ctx, postListCacheKey, &posts, postListCacheTTL, func() error {
		var err error
		posts, err = s.posts.List(ctx)
		return err
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Content string `json:"content"`
		Author  string `json:"author"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// Validate required fields
	if req.Content == "" || req.Author == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content and author are required"))
	}

	post, err := s.posts.Create(ctx, req.Content, req.Author)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	cache.Invalidate(ctx, postListCacheKey)

	return c.Status(fiber.StatusCreated).JSON(post)
}

// AddReply handles PATCH /api/posts. The body names the target post and,
// for a nested reply, the parent reply node anywhere in that post's tree.
func (s *Server) AddReply(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		PostID        string `json:"postId"`
		ParentReplyID string `json:"parentReplyId"`
		Content       string `json:"content"`
		Author        string `json:"author"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.PostID == "" || req.Content == "" || req.Author == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("PostId, content and author are required"))
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
	}

	var parentReplyID *primitive.ObjectID
	if req.ParentReplyID != "" {
		id, err := primitive.ObjectIDFromHex(req.ParentReplyID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid parent reply ID"))
		}
		parentReplyID = &id
	}

	post, err := s.posts.AddReply(ctx, postID, parentReplyID, req.Content, req.Author)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	cache.Invalidate(ctx, postListCacheKey)

	return c.JSON(post)
}
