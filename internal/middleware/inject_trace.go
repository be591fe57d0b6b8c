package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
)

func InjectTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := utils.GenerateTraceId()
		c.Set(utils.TraceIdKey.String(), traceId)
		c.Header("X-Trace-Id", traceId)
		c.Next()
	}
}
