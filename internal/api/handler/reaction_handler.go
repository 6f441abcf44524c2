package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/response"
)

// ReactionRemovedResponse carries the thought after a reaction removal.
type ReactionRemovedResponse struct {
	Message string         `json:"message" example:"Reaction removed successfully"`
	Thought *model.Thought `json:"thought"`
}

// AddReaction 添加回应
// @Summary Append a reaction to a thought
// @Description Identical body and username still produce a new reaction with its own id.
// @Tags reactions
// @Accept json
// @Produce json
// @Param id path string true "Thought ID"
// @Param request body service.AddReactionInput true "Reaction"
// @Success 201 {object} model.Thought
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts/{id}/reactions [post]
func (h *Handler) AddReaction(c *gin.Context) {
	var req service.AddReactionInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.thoughtService.AddReaction(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t)
}

// RemoveReaction 删除回应
// @Summary Remove a reaction by its id
// @Description An unknown reactionId leaves the thought unchanged and still returns 200.
// @Tags reactions
// @Produce json
// @Param id path string true "Thought ID"
// @Param reactionId path string true "Reaction ID"
// @Success 200 {object} ReactionRemovedResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts/{id}/reactions/{reactionId} [delete]
func (h *Handler) RemoveReaction(c *gin.Context) {
	t, err := h.thoughtService.RemoveReaction(c.Request.Context(), c.Param("id"), c.Param("reactionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ReactionRemovedResponse{Message: "Reaction removed successfully", Thought: t})
}
