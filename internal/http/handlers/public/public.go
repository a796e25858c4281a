package public

import (
	"strings"

	handlershared "github.com/walletkart/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

// buyerIP 取买家IP，剥离 IPv4 映射地址前缀
func buyerIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	return strings.TrimPrefix(ip, "::ffff:")
}
