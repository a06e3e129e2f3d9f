package middleware

import (
	"storefront/internal/responses"
	"storefront/internal/structs"
	"storefront/pkg/config"
	"storefront/pkg/logger"
	"storefront/pkg/reply"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	UserIDKey      = "user_id"
	BearerTokenKey = "bearer_token"

	requestIDHeader = "X-Request-ID"
)

var (
	Module = fx.Provide(NewMiddleware)
)

type (
	Middleware interface {
		CheckAuth() gin.HandlerFunc
		Ctx() gin.HandlerFunc
	}

	Params struct {
		fx.In

		Logger logger.Logger
		Config config.IConfig
	}

	mw struct {
		logger logger.Logger
		config config.IConfig
	}
)

func NewMiddleware(params Params) Middleware {
	return &mw{
		logger: params.Logger,
		config: params.Config,
	}
}

func (m *mw) CheckAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			response structs.Response
			ctx      = c.Request.Context()
		)

		authToken := c.GetHeader("Authorization")
		if utils.StrEmpty(authToken) {
			m.logger.Warn(ctx, " empty auth token")
			response = responses.Unauthorized

			c.Abort()
			reply.Json(c.Writer, responses.UnauthorizedCode, &response)
			return
		}

		claims, err := utils.ParseJWT(authToken, m.config.GetString("secret_key"))
		if err != nil {
			m.logger.Warn(ctx, " invalid auth token", zap.Error(err))
			response = responses.Unauthorized

			c.Abort()
			reply.Json(c.Writer, responses.UnauthorizedCode, &response)
			return
		}
		userID, ok := claims["id"].(string)
		if !ok || userID == "" {
			m.logger.Warn(ctx, " token without user id")
			response = responses.Unauthorized
			response.Message = "Invalid user ID in token"

			c.Abort()
			reply.Json(c.Writer, responses.UnauthorizedCode, &response)
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(BearerTokenKey, authToken)
		c.Request = c.Request.WithContext(m.logger.WithUser(ctx, userID))
		c.Next()
	}
}

// Ctx attaches a log context carrying the caller's request id, or a fresh
// one, and echoes it back.
func (m *mw) Ctx() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := m.logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// UserID is set by CheckAuth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// BearerToken returns the raw token without the "Bearer " prefix.
func BearerToken(c *gin.Context) string {
	return utils.TrimBearer(c.GetString(BearerTokenKey))
}
