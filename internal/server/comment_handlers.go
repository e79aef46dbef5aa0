package server

import (
	"stocktalk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:postId/comments
// @Summary List a post's comments
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:postId/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body object{comment=string} true "Comment"
// @Success 200 {object} object{success=bool,commentId=int,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID: currentUserID(c),
		PostID: postID,
		Text:   req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"commentId": comment.ID,
		"message":   "Comment added successfully",
	})
}

// DeleteComment handles DELETE /api/posts/:postId/comments/:commentId
// @Summary Delete a comment
// @Description Allowed for the comment's author and the post's author
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.RemoveComment(c.UserContext(), service.RemoveCommentInput{
		UserID:    currentUserID(c),
		PostID:    postID,
		CommentID: commentID,
	}); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
