package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/pkg/logger"
	"github.com/d60-Lab/social-graph/pkg/response"
)

var errServerFailure = errors.New("server failure")

// BreakerConfig controls when the store-facing routes stop accepting load.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      10,
	}
}

// CircuitBreaker opens after a sustained share of 5xx responses and then
// answers 503 until the timeout lets probe requests through. 4xx responses
// count as successes.
func CircuitBreaker(cfg BreakerConfig) gin.HandlerFunc {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *gin.Context) {
		_, err := cb.Execute(func() (any, error) {
			c.Next()
			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errServerFailure
			}
			return nil, nil
		})
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			c.Header("Retry-After", "5")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.ErrorBody{Error: "Service temporarily unavailable"})
		}
	}
}
