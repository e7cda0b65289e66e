package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/videotube/internal/domain/repository"
	"github.com/oksasatya/videotube/pkg/apperror"
	"github.com/oksasatya/videotube/pkg/helpers"
)

// ProfileService computes the read models that join users, subscriptions and videos.
type ProfileService struct {
	Users  repo.UserRepository
	Subs   repo.SubscriptionRepository
	Videos repo.VideoRepository
	Logger *logrus.Logger
}

func NewProfileService(users repo.UserRepository, subs repo.SubscriptionRepository, videos repo.VideoRepository, logger *logrus.Logger) *ProfileService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &ProfileService{Users: users, Subs: subs, Videos: videos, Logger: logger}
}

func (s *ProfileService) internal(msg string, err error, fields logrus.Fields) error {
	helpers.LogError(s.Logger, msg, err, fields)
	return apperror.Internal(msg, err)
}

// GetChannelProfile resolves a channel by username. viewerID may be empty for anonymous viewers.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.BadRequest("Username is missing")
	}

	channel, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("Channel does not exist")
	}
	if err != nil {
		return nil, s.internal("Something went wrong while fetching the channel", err, logrus.Fields{"username": username})
	}

	subscribers, err := s.Subs.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return nil, s.internal("Something went wrong while fetching the channel", err, logrus.Fields{"channel_id": channel.ID})
	}
	subscribedTo, err := s.Subs.CountSubscribedTo(ctx, channel.ID)
	if err != nil {
		return nil, s.internal("Something went wrong while fetching the channel", err, logrus.Fields{"channel_id": channel.ID})
	}

	var isSubscribed bool
	if viewerID != "" {
		if isSubscribed, err = s.Subs.Exists(ctx, viewerID, channel.ID); err != nil {
			return nil, s.internal("Something went wrong while fetching the channel", err, logrus.Fields{"channel_id": channel.ID})
		}
	}

	return &ChannelProfile{
		FullName:                  channel.FullName,
		Username:                  channel.Username,
		SubscribersCount:          subscribers,
		ChannelsSubscribedToCount: subscribedTo,
		IsSubscribed:              isSubscribed,
		AvatarURL:                 channel.AvatarURL,
		CoverImageURL:             channel.CoverImageURL,
		Email:                     channel.Email,
	}, nil
}

// GetWatchHistory returns the viewer's watched videos in watch order.
// Ids whose video is gone are skipped; a missing owner yields a nil Owner.
func (s *ProfileService) GetWatchHistory(ctx context.Context, viewerID string) ([]WatchedVideo, error) {
	viewer, err := s.Users.GetByID(ctx, viewerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("User does not exist")
	}
	if err != nil {
		return nil, s.internal("Something went wrong while fetching watch history", err, logrus.Fields{"user_id": viewerID})
	}

	out := make([]WatchedVideo, 0, len(viewer.WatchHistory))
	if len(viewer.WatchHistory) == 0 {
		return out, nil
	}

	videos, err := s.Videos.GetByIDs(ctx, viewer.WatchHistory)
	if err != nil {
		return nil, s.internal("Something went wrong while fetching watch history", err, logrus.Fields{"user_id": viewerID})
	}

	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := s.Users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, s.internal("Something went wrong while fetching watch history", err, logrus.Fields{"user_id": viewerID})
	}

	for _, id := range viewer.WatchHistory {
		v, ok := videos[id]
		if !ok {
			continue
		}
		out = append(out, newWatchedVideo(v, owners[v.OwnerID]))
	}
	return out, nil
}

// ToggleSubscription follows the channel when not yet followed, unfollows otherwise.
// It reports whether the subscriber follows the channel afterwards.
func (s *ProfileService) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, apperror.BadRequest("Channel id is required")
	}
	id, err := uuid.Parse(channelID)
	if err != nil {
		return false, apperror.NotFound("Channel does not exist")
	}
	channelID = id.String()
	if sid, err := uuid.Parse(subscriberID); err == nil {
		subscriberID = sid.String()
	}
	if channelID == subscriberID {
		return false, apperror.BadRequest("You cannot subscribe to your own channel")
	}
	if _, err := s.Users.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, apperror.NotFound("Channel does not exist")
		}
		return false, s.internal("Something went wrong while toggling the subscription", err, logrus.Fields{"channel_id": channelID})
	}

	subscribed, err := s.Subs.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return false, s.internal("Something went wrong while toggling the subscription", err, logrus.Fields{"channel_id": channelID})
	}
	if subscribed {
		if err := s.Subs.Unsubscribe(ctx, subscriberID, channelID); err != nil {
			return false, s.internal("Something went wrong while toggling the subscription", err, logrus.Fields{"channel_id": channelID})
		}
		return false, nil
	}
	if err := s.Subs.Subscribe(ctx, subscriberID, channelID); err != nil {
		return false, s.internal("Something went wrong while toggling the subscription", err, logrus.Fields{"channel_id": channelID})
	}
	return true, nil
}
