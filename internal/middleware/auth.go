package middleware

import (
	"context"
	"net/http"
	"strings"

	"The_Connection/internal/pkg"

	"github.com/gin-gonic/gin"
)

const ContextUserIDKey = "user_id"

// SessionChecker 校验 token 是否为该用户最近一次登录签发的，由 redis.SessionStore 实现
type SessionChecker interface {
	Get(ctx context.Context, userID uint64) (string, error)
	Touch(ctx context.Context, userID uint64) error
}

// AuthMiddleware sessions 为 nil 时只校验 JWT 签名和有效期
func AuthMiddleware(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		if sessions != nil {
			// redis校验是否是正确的token
			origin, err := sessions.Get(c.Request.Context(), claims.UserID)
			if err != nil || origin != tokenStr {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Account has been logging elsewhere"})
				return
			}
			// 校验通过后更新过期时间
			if err := sessions.Touch(c.Request.Context(), claims.UserID); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
				return
			}
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
