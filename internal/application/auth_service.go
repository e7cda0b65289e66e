package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/videotube/internal/domain/entity"
	repo "github.com/oksasatya/videotube/internal/domain/repository"
	"github.com/oksasatya/videotube/pkg/apperror"
	"github.com/oksasatya/videotube/pkg/helpers"
	"github.com/oksasatya/videotube/pkg/mailer"
	mailtpl "github.com/oksasatya/videotube/pkg/mailer/templates"
)

// Service owns registration, the session lifecycle and account updates.
type Service struct {
	Users      repo.UserRepository
	Videos     repo.VideoRepository
	JWT        TokenIssuer
	Uploader   MediaUploader
	Emails     EmailQueue     // optional
	Index      ChannelIndexer // optional
	Logger     *logrus.Logger
	AppName    string
	BcryptCost int
}

func NewService(users repo.UserRepository, videos repo.VideoRepository, jwt TokenIssuer, uploader MediaUploader, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &Service{
		Users:    users,
		Videos:   videos,
		JWT:      jwt,
		Uploader: uploader,
		Logger:   logger,
		AppName:  "VideoTube",
	}
}

const passwordTooLong = "Password must be at most 72 bytes long"

type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

func (s *Service) internal(msg string, err error, fields logrus.Fields) error {
	helpers.LogError(s.Logger, msg, err, fields)
	return apperror.Internal(msg, err)
}

// Register creates the account. Temp files are handed to the uploader, which removes them.
func (s *Service) Register(ctx context.Context, in RegisterInput, avatarPath, coverPath string) (*UserView, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if in.FullName == "" || in.Email == "" || in.Username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperror.BadRequest("All fields are required")
	}
	if len(in.Password) > helpers.MaxPasswordBytes {
		return nil, apperror.BadRequest(passwordTooLong)
	}

	exists, err := s.Users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, s.internal("Something went wrong while registering the user", err, nil)
	}
	if exists {
		return nil, apperror.Conflict("User with email or username already exists")
	}

	if avatarPath == "" {
		return nil, apperror.BadRequest("Avatar file is required")
	}
	avatarURL, err := s.Uploader.Upload(ctx, avatarPath)
	if err != nil || avatarURL == "" {
		return nil, s.internal("Avatar file upload failed", err, logrus.Fields{"username": in.Username})
	}

	var coverURL string
	if coverPath != "" {
		if coverURL, err = s.Uploader.Upload(ctx, coverPath); err != nil {
			helpers.LogWarn(s.Logger, "cover image upload failed", err, logrus.Fields{"username": in.Username})
			coverURL = ""
		}
	}

	hash, err := helpers.HashPasswordWithCost(in.Password, s.BcryptCost)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return nil, apperror.BadRequest(passwordTooLong)
	}
	if err != nil {
		return nil, s.internal("Something went wrong while registering the user", err, nil)
	}

	u := &entity.User{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperror.Conflict("User with email or username already exists")
		}
		return nil, s.internal("Something went wrong while registering the user", err, nil)
	}

	s.afterWrite(ctx, u)
	s.enqueueEmail(ctx, mailtpl.Welcome, u)

	view := NewUserView(u)
	return &view, nil
}

// Login authenticates by username or email and starts a new session.
// Any refresh token issued earlier stops working.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" && email == "" {
		return nil, apperror.BadRequest("Username or email is required")
	}
	// username identifies the account when both are sent
	if username != "" {
		email = ""
	}

	u, err := s.Users.GetByUsernameOrEmail(ctx, username, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("User does not exist")
	}
	if err != nil {
		return nil, s.internal("Something went wrong while logging in", err, nil)
	}

	if !helpers.CompareHashAndPassword(u.PasswordHash, in.Password) {
		return nil, apperror.Unauthorized("Invalid user credentials")
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetRefreshToken(ctx, u.ID, helpers.HashRefreshToken(pair.RefreshToken)); err != nil {
		return nil, s.internal("Something went wrong while generating refresh and access token", err, logrus.Fields{"user_id": u.ID})
	}

	return &LoginResult{User: NewUserView(u), TokenPair: pair}, nil
}

// Logout revokes the stored refresh token. Logging out twice is fine.
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.Users.ClearRefreshToken(ctx, userID)
	if err == nil || errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	return s.internal("Something went wrong while logging out", err, logrus.Fields{"user_id": userID})
}

// Refresh rotates the session: the presented token must be the stored one,
// and it is atomically replaced so it can never be used again.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return TokenPair{}, apperror.Unauthorized("Unauthorized request")
	}

	claims, err := s.JWT.ParseRefreshToken(presented)
	if err != nil {
		return TokenPair{}, apperror.New(apperror.KindUnauthorized, "Invalid refresh token", err)
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return TokenPair{}, apperror.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, s.internal("Something went wrong while refreshing the session", err, nil)
	}

	presentedHash := helpers.HashRefreshToken(presented)
	if !u.HasRefreshToken(presentedHash) {
		return TokenPair{}, apperror.Unauthorized("Refresh token is expired or used")
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	swapped, err := s.Users.SwapRefreshToken(ctx, u.ID, presentedHash, helpers.HashRefreshToken(pair.RefreshToken))
	if err != nil {
		return TokenPair{}, s.internal("Something went wrong while refreshing the session", err, logrus.Fields{"user_id": u.ID})
	}
	if !swapped {
		return TokenPair{}, apperror.Unauthorized("Refresh token is expired or used")
	}
	return pair, nil
}

// ChangePassword replaces the password hash and nothing else.
func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return apperror.BadRequest("New password and confirm password must match")
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, in.OldPassword) {
		return apperror.Unauthorized("Invalid old password")
	}

	hash, err := helpers.HashPasswordWithCost(in.NewPassword, s.BcryptCost)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return apperror.BadRequest(passwordTooLong)
	}
	if err != nil {
		return s.internal("Something went wrong while changing the password", err, logrus.Fields{"user_id": userID})
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return s.internal("Something went wrong while changing the password", err, logrus.Fields{"user_id": userID})
	}

	s.enqueueEmail(ctx, mailtpl.PasswordChanged, u)
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*UserView, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := NewUserView(u)
	return &view, nil
}

func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (*UserView, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, apperror.BadRequest("All fields are required")
	}

	taken, err := s.Users.EmailTakenByOther(ctx, email, userID)
	if err != nil {
		return nil, s.internal("Something went wrong while updating the account", err, logrus.Fields{"user_id": userID})
	}
	if taken {
		return nil, apperror.Conflict("Email is already in use")
	}

	u, err := s.Users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, s.mapWriteErr("Something went wrong while updating the account", err, userID)
	}
	s.afterWrite(ctx, u)
	view := NewUserView(u)
	return &view, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (*UserView, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("Avatar file is missing")
	}
	url, err := s.Uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		return nil, s.internal("Error while uploading avatar", err, logrus.Fields{"user_id": userID})
	}
	u, err := s.Users.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return nil, s.mapWriteErr("Error while updating avatar", err, userID)
	}
	s.afterWrite(ctx, u)
	view := NewUserView(u)
	return &view, nil
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (*UserView, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("Cover image file is missing")
	}
	url, err := s.Uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		return nil, s.internal("Error while uploading cover image", err, logrus.Fields{"user_id": userID})
	}
	u, err := s.Users.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return nil, s.mapWriteErr("Error while updating cover image", err, userID)
	}
	s.afterWrite(ctx, u)
	view := NewUserView(u)
	return &view, nil
}

// RecordWatch appends videoID to the user's watch history.
func (s *Service) RecordWatch(ctx context.Context, userID, videoID string) error {
	if strings.TrimSpace(videoID) == "" {
		return apperror.BadRequest("Video id is required")
	}
	if _, err := s.Videos.GetByID(ctx, videoID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.NotFound("Video does not exist")
		}
		return s.internal("Something went wrong while recording the view", err, logrus.Fields{"video_id": videoID})
	}
	if err := s.Users.AppendWatchHistory(ctx, userID, videoID); err != nil {
		return s.mapWriteErr("Something went wrong while recording the view", err, userID)
	}
	return nil
}

func (s *Service) issuePair(userID string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, s.internal("Something went wrong while generating refresh and access token", err, logrus.Fields{"user_id": userID})
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, s.internal("Something went wrong while generating refresh and access token", err, logrus.Fields{"user_id": userID})
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.NotFound("User does not exist")
	}
	if err != nil {
		return nil, s.internal("Something went wrong while loading the user", err, logrus.Fields{"user_id": userID})
	}
	return u, nil
}

func (s *Service) mapWriteErr(msg string, err error, userID string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperror.NotFound("User does not exist")
	case errors.Is(err, repo.ErrDuplicate):
		return apperror.Conflict("Email is already in use")
	default:
		return s.internal(msg, err, logrus.Fields{"user_id": userID})
	}
}

// afterWrite refreshes the search document. Index failures are logged only.
func (s *Service) afterWrite(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexChannel(ctx, u); err != nil {
		helpers.LogWarn(s.Logger, "channel index failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (s *Service) enqueueEmail(ctx context.Context, template string, u *entity.User) {
	if s.Emails == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data:     mailtpl.ToMap(mailtpl.NewEmailData(s.AppName, u.FullName, u.Username, u.Email, time.Now())),
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Emails.PublishJSON(c, job); err != nil {
		helpers.LogWarn(s.Logger, "enqueue email failed", err, logrus.Fields{"user_id": u.ID, "template": template})
	}
}
