package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/pkg/response"
)

// FriendResponse carries the updated user after a friend-set change.
type FriendResponse struct {
	Message string      `json:"message" example:"Friend added successfully"`
	User    *model.User `json:"user"`
}

// AddFriend 添加好友（单向）
// @Summary Add friendId to the user's friend set
// @Description Directional and idempotent: B is not added to A's friends and a repeated add is a no-op.
// @Tags friends
// @Produce json
// @Param id path string true "User ID"
// @Param friendId path string true "Friend user ID"
// @Success 200 {object} FriendResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /users/{id}/friends/{friendId} [post]
func (h *Handler) AddFriend(c *gin.Context) {
	u, err := h.userService.AddFriend(c.Request.Context(), c.Param("id"), c.Param("friendId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, FriendResponse{Message: "Friend added successfully", User: u})
}

// RemoveFriend 删除好友
// @Summary Remove friendId from the user's friend set
// @Description Removing a non-member is a no-op.
// @Tags friends
// @Produce json
// @Param id path string true "User ID"
// @Param friendId path string true "Friend user ID"
// @Success 200 {object} FriendResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /users/{id}/friends/{friendId} [delete]
func (h *Handler) RemoveFriend(c *gin.Context) {
	u, err := h.userService.RemoveFriend(c.Request.Context(), c.Param("id"), c.Param("friendId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, FriendResponse{Message: "Friend removed successfully", User: u})
}
