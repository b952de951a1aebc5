package auth

import (
	"context"
	"errors"

	"smart-resume-analyzer/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// 请求上下文中保存的键
const (
	ContextKeyToken = "admin_token"
	ContextKeyUser  = "admin_user"
)

// Middleware 校验 Authorization: Bearer <token>，通过后把用户名写入 ContextKeyUser
func Middleware(store SessionStore) app.HandlerFunc {
	log := logger.Component("auth")
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithContextKey(ContextKeyToken),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, token string) (bool, error) {
			username, err := store.Validate(ctx, token)
			if err != nil {
				if !errors.Is(err, ErrSessionNotFound) {
					log.Error().Err(err).Msg("校验会话失败")
				}
				return false, err
			}
			c.Set(ContextKeyUser, username)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{
				"success": false,
				"error":   "未登录或会话已过期",
			})
		}),
	)
}

// TokenFromContext 返回中间件保存的 token
func TokenFromContext(c *app.RequestContext) string {
	return c.GetString(ContextKeyToken)
}

// UserFromContext 返回当前管理员用户名
func UserFromContext(c *app.RequestContext) string {
	return c.GetString(ContextKeyUser)
}
