package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/videotube/pkg/apperror"
	"github.com/oksasatya/videotube/pkg/helpers"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccessWritesEnvelope(t *testing.T) {
	c, w := newContext()

	Success(c, http.StatusCreated, map[string]string{"id": "u1"}, "User registered successfully")

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, "u1", body["data"].(map[string]any)["id"])
}

func TestErrorListsFieldMessagesInOrder(t *testing.T) {
	c, w := newContext()

	Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"password": "is required", "email": "must be a valid email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].([]any)
	require.Len(t, errs, 2)
	assert.Equal(t, "email", errs[0].(map[string]any)["field"])
	assert.Equal(t, "password", errs[1].(map[string]any)["field"])
}

func TestErrorWithoutDetailsHasEmptyList(t *testing.T) {
	c, w := newContext()

	Error(c, http.StatusNotFound, "Channel does not exist", nil)

	body := decode(t, w)
	assert.Equal(t, []any{}, body["errors"])
}

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{apperror.BadRequest("All fields are required"), http.StatusBadRequest, "All fields are required"},
		{apperror.Unauthorized("Invalid refresh token"), http.StatusUnauthorized, "Invalid refresh token"},
		{apperror.NotFound("User does not exist"), http.StatusNotFound, "User does not exist"},
		{apperror.Conflict("taken"), http.StatusConflict, "taken"},
		{apperror.Internal("Something went wrong while generating tokens", errors.New("boom")), http.StatusInternalServerError, "Something went wrong while generating tokens"},
		{errors.New("raw"), http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tc := range cases {
		c, w := newContext()
		Fail(c, helpers.NewNopLogger(), tc.err)

		assert.Equal(t, tc.status, w.Code)
		body := decode(t, w)
		assert.Equal(t, tc.message, body["message"])
		assert.NotContains(t, w.Body.String(), "boom")
	}
}
