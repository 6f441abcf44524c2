package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/response"
)

// ListThoughts 查询全部想法
// @Summary List thoughts with embedded reactions
// @Tags thoughts
// @Produce json
// @Success 200 {array} model.Thought
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts [get]
func (h *Handler) ListThoughts(c *gin.Context) {
	thoughts, err := h.thoughtService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if thoughts == nil {
		thoughts = []*model.Thought{}
	}
	response.Success(c, thoughts)
}

// GetThought 查询单个想法
// @Summary Get a thought
// @Tags thoughts
// @Produce json
// @Param id path string true "Thought ID"
// @Success 200 {object} model.Thought
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts/{id} [get]
func (h *Handler) GetThought(c *gin.Context) {
	t, err := h.thoughtService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// CreateThought 发布想法并挂到作者名下
// @Summary Create a thought and link it to its author
// @Tags thoughts
// @Accept json
// @Produce json
// @Param request body service.CreateThoughtInput true "Thought"
// @Success 201 {object} model.Thought
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts [post]
func (h *Handler) CreateThought(c *gin.Context) {
	var req service.CreateThoughtInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.thoughtService.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateThought 更新想法文本
// @Summary Update thoughtText and/or username
// @Tags thoughts
// @Accept json
// @Produce json
// @Param id path string true "Thought ID"
// @Param request body service.UpdateThoughtInput true "Fields to change"
// @Success 200 {object} model.Thought
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts/{id} [put]
func (h *Handler) UpdateThought(c *gin.Context) {
	var req service.UpdateThoughtInput
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.thoughtService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteThought 删除想法
// @Summary Delete a thought and detach it from its author
// @Tags thoughts
// @Produce json
// @Param id path string true "Thought ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /thoughts/{id} [delete]
func (h *Handler) DeleteThought(c *gin.Context) {
	if _, err := h.thoughtService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, response.Message{Message: "Thought successfully deleted"})
}
