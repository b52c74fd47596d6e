package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/service"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

// RateLimit 按客户端 IP 限流
func RateLimit(limiter service.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(c.Request.Context(), ip) {
			utils.Logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Detail: "Too many requests, please retry later",
			})
			return
		}
		c.Next()
	}
}
