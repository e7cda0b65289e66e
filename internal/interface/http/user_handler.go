package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/videotube/internal/application"
	"github.com/oksasatya/videotube/pkg/helpers"
	"github.com/oksasatya/videotube/pkg/response"
	"github.com/oksasatya/videotube/pkg/validation"
)

// AccountService is implemented by *application.Service.
type AccountService interface {
	Register(ctx context.Context, in app.RegisterInput, avatarPath, coverPath string) (*app.UserView, error)
	Login(ctx context.Context, in app.LoginInput) (*app.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, presented string) (app.TokenPair, error)
	ChangePassword(ctx context.Context, userID string, in app.ChangePasswordInput) error
	CurrentUser(ctx context.Context, userID string) (*app.UserView, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*app.UserView, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*app.UserView, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*app.UserView, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
}

type UserHandler struct {
	Svc     AccountService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
	TmpDir  string
}

func NewUserHandler(svc AccountService, logger *logrus.Logger, cookieDomain string, cookieSecure bool, tmpDir string) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure), TmpDir: tmpDir}
}

type registerRequest struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,username"`
	Password string `form:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required_without=Email"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	avatar, err := saveTemp(c, "avatar", h.TmpDir)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid avatar file", []string{err.Error()})
		return
	}
	cover, err := saveTemp(c, "coverImage", h.TmpDir)
	if err != nil {
		removeTemp(avatar)
		response.Error(c, http.StatusBadRequest, "invalid cover image file", []string{err.Error()})
		return
	}
	defer removeTemp(avatar, cover)

	user, err := h.Svc.Register(c.Request.Context(), app.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}, avatar, cover)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, user, "User registered successfully")
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), app.LoginInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, res.AccessToken, res.AccessTokenExpiry, res.RefreshToken, res.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, res, "User logged in successfully")
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), c.GetString("userID")); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{}, "User logged out")
}

// Refresh takes the refresh token from the JSON body when one is sent and
// falls back to the refreshToken cookie otherwise.
func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token, _ = c.Cookie(helpers.RefreshTokenCookie)
	}

	pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, pair, "Access token refreshed")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ChangePassword(c.Request.Context(), c.GetString("userID"), app.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	u, err := h.Svc.CurrentUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "Current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateAccount(c.Request.Context(), c.GetString("userID"), req.FullName, req.Email)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "Account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.Svc.UpdateAvatar, "Avatar image updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.Svc.UpdateCoverImage, "Cover image updated successfully")
}

type imageUpdater func(ctx context.Context, userID, localPath string) (*app.UserView, error)

func (h *UserHandler) updateImage(c *gin.Context, field string, update imageUpdater, message string) {
	path, err := saveTemp(c, field, h.TmpDir)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid "+field+" file", []string{err.Error()})
		return
	}
	defer removeTemp(path)

	u, err := update(c.Request.Context(), c.GetString("userID"), path)
	if err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, message)
}

func (h *UserHandler) RecordWatch(c *gin.Context) {
	if err := h.Svc.RecordWatch(c.Request.Context(), c.GetString("userID"), c.Param("videoId")); err != nil {
		response.Fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Watch history updated")
}
