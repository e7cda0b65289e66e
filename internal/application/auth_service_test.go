package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/videotube/pkg/apperror"
	"github.com/oksasatya/videotube/pkg/helpers"
	"github.com/oksasatya/videotube/pkg/mailer"
	mailtpl "github.com/oksasatya/videotube/pkg/mailer/templates"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx      context.Context
	users    *memUsers
	videos   *memVideos
	uploader *mockUploader
	queue    *mockQueue
	index    *fakeIndex
	svc      *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = newMemUsers()
	s.videos = newMemVideos()
	s.uploader = new(mockUploader)
	s.queue = new(mockQueue)
	s.index = &fakeIndex{}

	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 240*time.Hour)
	s.svc = NewService(s.users, s.videos, jwt, s.uploader, helpers.NewNopLogger())
	s.svc.Emails = s.queue
	s.svc.Index = s.index
	s.svc.BcryptCost = bcrypt.MinCost
}

func (s *AuthServiceSuite) register(username, password string) *UserView {
	s.uploader.On("Upload", mock.Anything, "/tmp/"+username+"-avatar.png").Return("https://cdn.test/"+username+".png", nil).Once()
	s.queue.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
	u, err := s.svc.Register(s.ctx, RegisterInput{
		FullName: "User " + username,
		Email:    username + "@example.com",
		Username: username,
		Password: password,
	}, "/tmp/"+username+"-avatar.png", "")
	s.Require().NoError(err)
	return u
}

func (s *AuthServiceSuite) login(username, password string) *LoginResult {
	res, err := s.svc.Login(s.ctx, LoginInput{Username: username, Password: password})
	s.Require().NoError(err)
	return res
}

func (s *AuthServiceSuite) requireKind(err error, kind apperror.Kind) {
	s.Require().Error(err)
	s.Equal(kind, apperror.KindOf(err), err.Error())
}

func (s *AuthServiceSuite) TestRegisterNormalizesAndEnqueuesWelcome() {
	s.uploader.On("Upload", mock.Anything, "/tmp/a.png").Return("https://cdn.test/a.png", nil).Once()
	s.uploader.On("Upload", mock.Anything, "/tmp/c.png").Return("https://cdn.test/c.png", nil).Once()
	s.queue.On("PublishJSON", mock.Anything, mock.MatchedBy(func(job mailer.EmailJob) bool {
		return job.To == "alice@example.com" && job.Template == mailtpl.Welcome
	})).Return(nil).Once()

	u, err := s.svc.Register(s.ctx, RegisterInput{FullName: " Alice ", Email: "Alice@Example.com", Username: "  Alice ", Password: "password1"}, "/tmp/a.png", "/tmp/c.png")
	s.Require().NoError(err)

	s.Equal("alice", u.Username)
	s.Equal("alice@example.com", u.Email)
	s.Equal("Alice", u.FullName)
	s.Equal("https://cdn.test/c.png", u.CoverImageURL)
	s.Equal([]string{u.ID}, s.index.indexed)
	s.NotEqual("password1", s.users.raw(u.ID).PasswordHash)
	s.uploader.AssertExpectations(s.T())
	s.queue.AssertExpectations(s.T())
}

func (s *AuthServiceSuite) TestRegisterValidation() {
	_, err := s.svc.Register(s.ctx, RegisterInput{FullName: "x", Email: " ", Username: "bob", Password: "pw"}, "/tmp/a.png", "")
	s.requireKind(err, apperror.KindBadRequest)

	s.register("bob", "password1")

	_, err = s.svc.Register(s.ctx, RegisterInput{FullName: "x", Email: "BOB@example.com", Username: "other", Password: "pw"}, "/tmp/a.png", "")
	s.requireKind(err, apperror.KindConflict)

	_, err = s.svc.Register(s.ctx, RegisterInput{FullName: "x", Email: "new@example.com", Username: "new", Password: "pw"}, "", "")
	s.requireKind(err, apperror.KindBadRequest)
	s.Equal("Avatar file is required", apperror.MessageOf(err))
}

func (s *AuthServiceSuite) TestRegisterAvatarFailureIsInternalCoverFailureIsNot() {
	s.uploader.On("Upload", mock.Anything, "/tmp/bad.png").Return("", errors.New("bucket down")).Once()
	_, err := s.svc.Register(s.ctx, RegisterInput{FullName: "x", Email: "x@example.com", Username: "x", Password: "pw"}, "/tmp/bad.png", "")
	s.requireKind(err, apperror.KindInternal)

	s.uploader.On("Upload", mock.Anything, "/tmp/ok.png").Return("https://cdn.test/ok.png", nil).Once()
	s.uploader.On("Upload", mock.Anything, "/tmp/cover.png").Return("", errors.New("bucket down")).Once()
	s.queue.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	u, err := s.svc.Register(s.ctx, RegisterInput{FullName: "y", Email: "y@example.com", Username: "y", Password: "pw"}, "/tmp/ok.png", "/tmp/cover.png")
	s.Require().NoError(err)
	s.Empty(u.CoverImageURL)
}

func (s *AuthServiceSuite) TestLoginByUsernameOrEmail() {
	s.register("carol", "password1")

	byName := s.login("CAROL", "password1")
	s.NotEmpty(byName.AccessToken)
	s.NotEmpty(byName.RefreshToken)
	s.Equal("carol", byName.User.Username)

	byEmail, err := s.svc.Login(s.ctx, LoginInput{Email: "carol@example.com", Password: "password1"})
	s.Require().NoError(err)
	s.Equal(byName.User.ID, byEmail.User.ID)

	stored := s.users.raw(byEmail.User.ID)
	s.True(stored.HasRefreshToken(helpers.HashRefreshToken(byEmail.RefreshToken)))
	s.False(stored.HasRefreshToken(helpers.HashRefreshToken(byName.RefreshToken)), "second login replaces the first session")
}

func (s *AuthServiceSuite) TestLoginUsernameWinsOverEmail() {
	s.register("nina", "password1")
	s.register("omar", "password2")

	res, err := s.svc.Login(s.ctx, LoginInput{Username: "omar", Email: "nina@example.com", Password: "password2"})
	s.Require().NoError(err)
	s.Equal("omar", res.User.Username)

	_, err = s.svc.Login(s.ctx, LoginInput{Username: "omar", Email: "nina@example.com", Password: "password1"})
	s.requireKind(err, apperror.KindUnauthorized)

	_, err = s.svc.Login(s.ctx, LoginInput{Username: "ghost", Email: "nina@example.com", Password: "password1"})
	s.requireKind(err, apperror.KindNotFound)
}

func (s *AuthServiceSuite) TestLoginFailures() {
	s.register("dave", "password1")

	_, err := s.svc.Login(s.ctx, LoginInput{Password: "password1"})
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.svc.Login(s.ctx, LoginInput{Username: "nobody", Password: "password1"})
	s.requireKind(err, apperror.KindNotFound)
	s.Equal("User does not exist", apperror.MessageOf(err))

	_, err = s.svc.Login(s.ctx, LoginInput{Username: "dave", Password: "wrong"})
	s.requireKind(err, apperror.KindUnauthorized)
	s.Equal("Invalid user credentials", apperror.MessageOf(err))
}

func (s *AuthServiceSuite) TestRefreshRotatesAndRejectsReplay() {
	s.register("erin", "password1")
	first := s.login("erin", "password1")

	second, err := s.svc.Refresh(s.ctx, first.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(first.RefreshToken, second.RefreshToken)
	s.NotEqual(first.AccessToken, second.AccessToken)

	_, err = s.svc.Refresh(s.ctx, first.RefreshToken)
	s.requireKind(err, apperror.KindUnauthorized)
	s.Equal("Refresh token is expired or used", apperror.MessageOf(err))

	third, err := s.svc.Refresh(s.ctx, second.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(second.RefreshToken, third.RefreshToken)
}

func (s *AuthServiceSuite) TestRefreshAfterLogoutFails() {
	s.register("frank", "password1")
	res := s.login("frank", "password1")

	s.Require().NoError(s.svc.Logout(s.ctx, res.User.ID))
	s.Require().NoError(s.svc.Logout(s.ctx, res.User.ID))

	_, err := s.svc.Refresh(s.ctx, res.RefreshToken)
	s.requireKind(err, apperror.KindUnauthorized)
}

func (s *AuthServiceSuite) TestRefreshRejectsBadTokens() {
	_, err := s.svc.Refresh(s.ctx, "")
	s.requireKind(err, apperror.KindUnauthorized)
	s.Equal("Unauthorized request", apperror.MessageOf(err))

	_, err = s.svc.Refresh(s.ctx, "not-a-jwt")
	s.requireKind(err, apperror.KindUnauthorized)
	s.Equal("Invalid refresh token", apperror.MessageOf(err))

	s.register("gina", "password1")
	res := s.login("gina", "password1")
	_, err = s.svc.Refresh(s.ctx, res.AccessToken)
	s.requireKind(err, apperror.KindUnauthorized)

	expired := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, -time.Minute)
	token, _, err := expired.GenerateRefreshToken(res.User.ID)
	s.Require().NoError(err)
	_, err = s.svc.Refresh(s.ctx, token)
	s.requireKind(err, apperror.KindUnauthorized)

	ghost, _, err := s.svc.JWT.GenerateRefreshToken("00000000-0000-0000-0000-000000000000")
	s.Require().NoError(err)
	_, err = s.svc.Refresh(s.ctx, ghost)
	s.requireKind(err, apperror.KindUnauthorized)
}

func (s *AuthServiceSuite) TestConcurrentRefreshHasOneWinner() {
	s.register("hank", "password1")
	res := s.login("hank", "password1")

	const racers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.svc.Refresh(s.ctx, res.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)
}

func (s *AuthServiceSuite) TestTokenFailureIsInternal() {
	s.register("ivy", "password1")
	s.svc.JWT = helpers.NewJWTManager("", "refresh-secret", time.Hour, time.Hour)

	_, err := s.svc.Login(s.ctx, LoginInput{Username: "ivy", Password: "password1"})
	s.requireKind(err, apperror.KindInternal)
	s.NotContains(apperror.MessageOf(err), "secret")
}

func (s *AuthServiceSuite) TestChangePassword() {
	u := s.register("jack", "password1")
	before := s.users.raw(u.ID).PasswordHash

	err := s.svc.ChangePassword(s.ctx, u.ID, ChangePasswordInput{OldPassword: "password1", NewPassword: "newpass1", ConfirmPassword: "different"})
	s.requireKind(err, apperror.KindBadRequest)
	s.Equal(before, s.users.raw(u.ID).PasswordHash)

	err = s.svc.ChangePassword(s.ctx, u.ID, ChangePasswordInput{OldPassword: "wrong", NewPassword: "newpass1", ConfirmPassword: "newpass1"})
	s.requireKind(err, apperror.KindUnauthorized)
	s.Equal("Invalid old password", apperror.MessageOf(err))

	s.queue.On("PublishJSON", mock.Anything, mock.MatchedBy(func(job mailer.EmailJob) bool {
		return job.Template == mailtpl.PasswordChanged
	})).Return(nil).Once()
	s.Require().NoError(s.svc.ChangePassword(s.ctx, u.ID, ChangePasswordInput{OldPassword: "password1", NewPassword: "newpass1", ConfirmPassword: "newpass1"}))

	s.login("jack", "newpass1")
	_, err = s.svc.Login(s.ctx, LoginInput{Username: "jack", Password: "password1"})
	s.requireKind(err, apperror.KindUnauthorized)
	s.queue.AssertExpectations(s.T())
}

func (s *AuthServiceSuite) TestMultibytePasswordOverByteLimitIsBadRequest() {
	long := strings.Repeat("é", 40) // passes a rune-counted max=72, exceeds bcrypt's 72 bytes

	_, err := s.svc.Register(s.ctx, RegisterInput{FullName: "x", Email: "x@example.com", Username: "x", Password: long}, "/tmp/x.png", "")
	s.requireKind(err, apperror.KindBadRequest)
	s.Equal("Password must be at most 72 bytes long", apperror.MessageOf(err))
	s.uploader.AssertNotCalled(s.T(), "Upload", mock.Anything, "/tmp/x.png")

	u := s.register("mona", "password1")
	before := s.users.raw(u.ID).PasswordHash
	err = s.svc.ChangePassword(s.ctx, u.ID, ChangePasswordInput{OldPassword: "password1", NewPassword: long, ConfirmPassword: long})
	s.requireKind(err, apperror.KindBadRequest)
	s.Equal("Password must be at most 72 bytes long", apperror.MessageOf(err))
	s.Equal(before, s.users.raw(u.ID).PasswordHash)
}

func (s *AuthServiceSuite) TestUpdateAccount() {
	u := s.register("kate", "password1")
	s.register("liam", "password1")

	_, err := s.svc.UpdateAccount(s.ctx, u.ID, "", "x@example.com")
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.svc.UpdateAccount(s.ctx, u.ID, "Kate", "LIAM@example.com")
	s.requireKind(err, apperror.KindConflict)

	view, err := s.svc.UpdateAccount(s.ctx, u.ID, "Kate K", "Kate2@Example.com")
	s.Require().NoError(err)
	s.Equal("Kate K", view.FullName)
	s.Equal("kate2@example.com", view.Email)
}

func (s *AuthServiceSuite) TestUpdateAvatarAndCover() {
	u := s.register("mia", "password1")

	s.uploader.On("Upload", mock.Anything, "/tmp/new.png").Return("https://cdn.test/new.png", nil).Once()
	view, err := s.svc.UpdateAvatar(s.ctx, u.ID, "/tmp/new.png")
	s.Require().NoError(err)
	s.Equal("https://cdn.test/new.png", view.AvatarURL)

	s.uploader.On("Upload", mock.Anything, "/tmp/cover.png").Return("", errors.New("boom")).Once()
	_, err = s.svc.UpdateCoverImage(s.ctx, u.ID, "/tmp/cover.png")
	s.requireKind(err, apperror.KindInternal)

	_, err = s.svc.UpdateCoverImage(s.ctx, u.ID, "")
	s.requireKind(err, apperror.KindBadRequest)
}

func (s *AuthServiceSuite) TestRecordWatch() {
	u := s.register("noah", "password1")
	v := s.videos.add(u.ID, "clip")

	s.Require().NoError(s.svc.RecordWatch(s.ctx, u.ID, v.ID))
	s.Equal([]string{v.ID}, s.users.raw(u.ID).WatchHistory)

	err := s.svc.RecordWatch(s.ctx, u.ID, "missing")
	s.requireKind(err, apperror.KindNotFound)
}

func (s *AuthServiceSuite) TestCurrentUser() {
	u := s.register("olga", "password1")

	view, err := s.svc.CurrentUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.ID, view.ID)

	_, err = s.svc.CurrentUser(s.ctx, "missing")
	s.requireKind(err, apperror.KindNotFound)
}
