package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/pkg/jwt"
	"github.com/thehallofegress/class-schedules/pkg/redis"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

// EditAuth 编辑模式认证中间件
// 从 Authorization: Bearer <token> 中提取并验证编辑 Token，
// 已退出编辑模式（jti 在吊销名单中）的 Token 同样拒绝。
// rdb 为 nil 时跳过吊销检查（测试环境）。
func EditAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != "edit" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsRevoked(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "已退出编辑模式")
				c.Abort()
				return
			}
			// Redis 出错时降级放行，Token 本身仍是有效凭证
		}

		c.Set("edit_jti", claims.ID)
		c.Set("edit_token", parts[1])

		c.Next()
	}
}
