package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/pkg/errs"
	"github.com/d60-Lab/social-graph/pkg/logger"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Error  string            `json:"error" example:"User not found"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Message is a confirmation body.
type Message struct {
	Message string `json:"message" example:"Thought successfully deleted"`
}

// Success writes data as a 200 response.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes data as a 201 response.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Error maps a coded error to its status. Store errors are logged and
// reported; their text never reaches the client.
func Error(c *gin.Context, err error) {
	code := errs.CodeOf(err)
	if code == errs.StoreError {
		InternalError(c, err)
		return
	}
	c.AbortWithStatusJSON(errs.HTTPStatus(code), ErrorBody{
		Error:  errs.MessageOf(err),
		Fields: errs.FieldsOf(err),
	})
}

func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: message})
}

func InternalError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: "Internal server error"})
}
