package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-graph/internal/model"
	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/response"
)

// DeleteUserResponse confirms a cascade delete.
type DeleteUserResponse struct {
	Message         string `json:"message" example:"User and their thoughts deleted"`
	DeletedThoughts int64  `json:"deletedThoughts"`
}

// ListUsers 查询全部用户
// @Summary List users with thoughts and friends expanded
// @Tags users
// @Produce json
// @Success 200 {array} model.UserView
// @Failure 500 {object} response.ErrorBody
// @Router /users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if users == nil {
		users = []*model.UserView{}
	}
	response.Success(c, users)
}

// GetUser 查询单个用户
// @Summary Get a user with thoughts and friends expanded
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.UserView
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// CreateUser 创建用户
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.CreateUserInput true "User"
// @Success 201 {object} model.User
// @Failure 400 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req service.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}

// UpdateUser 部分更新用户
// @Summary Update username and/or email
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.userService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// DeleteUser 删除用户及其想法
// @Summary Delete a user and every thought it authored
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} DeleteUserResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	res, err := h.userService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, DeleteUserResponse{
		Message:         "User and their thoughts deleted",
		DeletedThoughts: res.DeletedThoughts,
	})
}
