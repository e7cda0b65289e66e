package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/videotube/internal/interface/http"
	"github.com/oksasatya/videotube/internal/interface/middleware"
)

// UserModule wires the authenticated account endpoints under /users.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     middleware.AccessTokenParser
	Users   middleware.UserLoader
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, jwt middleware.AccessTokenParser, users middleware.UserLoader, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Users: users, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users")
	auth.Use(middleware.Auth(m.JWT, m.Users))
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/change-password", m.Handler.ChangePassword)
		auth.GET("/current-user", m.Handler.CurrentUser)
		auth.PATCH("/update-account", m.Handler.UpdateAccount)
		auth.PATCH("/avatar", m.Handler.UpdateAvatar)
		auth.PATCH("/cover-image", m.Handler.UpdateCoverImage)
		auth.POST("/history/:videoId", m.Handler.RecordWatch)
	}
}
