package server

import (
	"bytes"
	"encoding/json"

	"stocktalk/internal/service"
	"stocktalk/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// tagList accepts tags as a JSON array or as one comma-separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*t = validation.SplitTags(raw)
		return nil
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*t = tags
	return nil
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{stockSymbol=string,title=string,description=string,tags=[]string} true "Post"
// @Success 201 {object} object{success=bool,postId=int,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		StockSymbol string  `json:"stockSymbol"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Tags        tagList `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:    currentUserID(c),
		StockSymbol: req.StockSymbol,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"postId":  post.ID,
		"message": "Post created successfully",
	})
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Filters combine with AND; tags match when a post has any of them
// @Tags posts
// @Produce json
// @Param stockSymbol query string false "Exact stock symbol"
// @Param tags query string false "Comma-separated tags"
// @Param sortBy query string false "likes or date (default)"
// @Success 200 {array} models.PostSummary
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		StockSymbol: c.Query("stockSymbol"),
		Tags:        validation.SplitTags(c.Query("tags")),
		SortBy:      c.Query("sortBy"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:postId
// @Summary Get a post with its comments
// @Tags posts
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:postId
// @Summary Delete a post
// @Description Only the author may delete. Comments and likes go with the post.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: postID,
	}); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Post deleted successfully",
	})
}
