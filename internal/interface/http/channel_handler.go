package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/videotube/internal/application"
	"github.com/oksasatya/videotube/pkg/response"
)

// ProfileReader is implemented by *application.ProfileService.
type ProfileReader interface {
	GetChannelProfile(ctx context.Context, username, viewerID string) (*app.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, viewerID string) ([]app.WatchedVideo, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// ChannelSearcher is implemented by *application.ChannelSearch.
type ChannelSearcher interface {
	Search(ctx context.Context, q string, size int) ([]app.ChannelDoc, error)
}

type ChannelHandler struct {
	Profiles ProfileReader
	Search   ChannelSearcher
	Logger   *logrus.Logger
}

func NewChannelHandler(profiles ProfileReader, search ChannelSearcher, logger *logrus.Logger) *ChannelHandler {
	return &ChannelHandler{Profiles: profiles, Search: search, Logger: logger}
}

func (h *ChannelHandler) ChannelProfile(c *gin.Context) {
	p, err := h.Profiles.GetChannelProfile(c.Request.Context(), c.Param("username"), c.GetString("userID"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "User channel fetched successfully")
}

func (h *ChannelHandler) WatchHistory(c *gin.Context) {
	history, err := h.Profiles.GetWatchHistory(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, history, "Watch history fetched successfully")
}

func (h *ChannelHandler) ToggleSubscription(c *gin.Context) {
	subscribed, err := h.Profiles.ToggleSubscription(c.Request.Context(), c.GetString("userID"), c.Param("channelId"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	msg := "Unsubscribed successfully"
	if subscribed {
		msg = "Subscribed successfully"
	}
	response.Success(c, http.StatusOK, gin.H{"subscribed": subscribed}, msg)
}

func (h *ChannelHandler) SearchChannels(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	docs, err := h.Search.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "Channels fetched successfully")
}
