package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	app "github.com/oksasatya/videotube/internal/application"
	"github.com/oksasatya/videotube/pkg/helpers"
	"github.com/oksasatya/videotube/pkg/response"
)

const CtxUserIDKey = "userID"

// AccessTokenParser is satisfied by *helpers.JWTManager.
type AccessTokenParser interface {
	ParseAccessToken(token string) (*helpers.Claims, error)
}

// UserLoader is satisfied by *application.Service.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID string) (*app.UserView, error)
}

// Auth reads the access token from the accessToken cookie or an
// Authorization: Bearer header, verifies it, and checks the user still exists.
// It sets userID in the Gin context on success.
func Auth(jwt AccessTokenParser, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "Unauthorized request", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Invalid access token", nil)
			return
		}
		if users != nil {
			if _, err := users.CurrentUser(c.Request.Context(), claims.UserID); err != nil {
				response.Error(c, http.StatusUnauthorized, "Invalid access token", nil)
				return
			}
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil && token != "" {
		return token
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
