package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/videotube/internal/interface/http"
	"github.com/oksasatya/videotube/internal/interface/middleware"
)

// ChannelModule wires channel profiles, watch history, subscriptions and search.
type ChannelModule struct {
	Handler *handlers.ChannelHandler
	JWT     middleware.AccessTokenParser
	Users   middleware.UserLoader
	Redis   *redis.Client
}

func NewChannelModule(h *handlers.ChannelHandler, jwt middleware.AccessTokenParser, users middleware.UserLoader, rdb *redis.Client) *ChannelModule {
	return &ChannelModule{Handler: h, JWT: jwt, Users: users, Redis: rdb}
}

func (m *ChannelModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("")
	auth.Use(middleware.Auth(m.JWT, m.Users))
	auth.Use(middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/users/c/:username", m.Handler.ChannelProfile)
		auth.GET("/users/history", m.Handler.WatchHistory)
		auth.POST("/subscriptions/c/:channelId", m.Handler.ToggleSubscription)
		auth.GET("/channels/search", middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil), m.Handler.SearchChannels)
	}
}
