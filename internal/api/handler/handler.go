package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/response"
)

// Handler 聚合所有 HTTP 处理器
type Handler struct {
	userService    service.UserService
	thoughtService service.ThoughtService
	ping           func(*gin.Context) error
}

// NewHandler wires the services. ping, if set, backs the readiness check.
func NewHandler(userService service.UserService, thoughtService service.ThoughtService, ping func(*gin.Context) error) *Handler {
	return &Handler{userService: userService, thoughtService: thoughtService, ping: ping}
}

// Health 健康检查
// @Summary 健康检查
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} response.ErrorBody
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.ErrorBody{Error: "store unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		response.BadRequest(c, "malformed JSON body")
		return false
	}
	return true
}
