package server

import (
	"stocktalk/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:postId/like
// @Summary Like a post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string,postId=int,liked=bool,likesCount=int}
// @Failure 400 {object} models.ErrorResponse "Already liked"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	state, err := s.likeService.Like(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likeResponse(state, "Post liked successfully"))
}

// UnlikePost handles DELETE /api/posts/:postId/like
// @Summary Remove a like
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string,postId=int,liked=bool,likesCount=int}
// @Failure 400 {object} models.ErrorResponse "Not liked"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	state, err := s.likeService.Unlike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likeResponse(state, "Post unliked successfully"))
}

func likeResponse(state *models.LikeState, message string) fiber.Map {
	return fiber.Map{
		"success":    true,
		"message":    message,
		"postId":     state.PostID,
		"liked":      state.Liked,
		"likesCount": state.LikesCount,
	}
}
