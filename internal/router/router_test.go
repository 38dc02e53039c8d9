package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"The_Connection/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type client struct {
	t *testing.T
	r *gin.Engine
}

func (c client) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

type loginResp struct {
	AccessToken  string
	RefreshToken string
	User         struct {
		ID       uint64 `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func (c client) signup(name string) loginResp {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/user/register", "", gin.H{"username": name, "password": "secret1", "email": name + "@example.com"})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	return c.login(name, "secret1")
}

func (c client) login(name, password string) loginResp {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/user/login", "", gin.H{"username": name, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var out loginResp
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthFlow(t *testing.T) {
	assert := assert.New(t)
	c := client{t: t, r: InitRouter(NewServices(memory.New(), nil), nil)}

	w := c.do(http.MethodPost, "/api/user/register", "", gin.H{"username": "x", "password": "secret1", "email": "not-an-email"})
	assert.Equal(http.StatusBadRequest, w.Code)
	w = c.do(http.MethodPost, "/api/user/register", "", gin.H{"username": "x", "password": "123", "email": "x@example.com"})
	assert.Equal(http.StatusBadRequest, w.Code)

	alice := c.signup("alice")
	assert.NotEmpty(alice.AccessToken)
	assert.Equal("alice", alice.User.Username)

	w = c.do(http.MethodPost, "/api/user/register", "", gin.H{"username": "alice", "password": "secret1", "email": "alice2@example.com"})
	assert.Equal(http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/user/login", "", gin.H{"username": "alice", "password": "wrong1"})
	assert.Equal(http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(http.StatusUnauthorized, w.Code)
	w = c.do(http.MethodGet, "/api/me", "not-a-jwt", nil)
	assert.Equal(http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodGet, "/api/me", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal("alice", me["username"])
	assert.NotContains(me, "password")

	w = c.do(http.MethodPost, "/api/token/refresh", "", gin.H{"refreshToken": alice.RefreshToken})
	assert.Equal(http.StatusOK, w.Code)
	w = c.do(http.MethodPost, "/api/token/refresh", "", gin.H{"refreshToken": alice.AccessToken})
	assert.Equal(http.StatusUnauthorized, w.Code)
}

func TestErrorMapping(t *testing.T) {
	assert := assert.New(t)
	c := client{t: t, r: InitRouter(NewServices(memory.New(), nil), nil)}
	alice := c.signup("alice")
	bob := c.signup("bob")

	w := c.do(http.MethodPost, "/api/communities", alice.AccessToken, gin.H{"name": "Inner Circle", "isPrivate": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var community struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &community))
	path := fmt.Sprintf("/api/communities/%d", community.ID)

	assert.Equal(http.StatusOK, c.do(http.MethodGet, path, alice.AccessToken, nil).Code)
	assert.Equal(http.StatusNotFound, c.do(http.MethodGet, path, bob.AccessToken, nil).Code)
	assert.Equal(http.StatusForbidden, c.do(http.MethodDelete, path, bob.AccessToken, nil).Code)
	assert.Equal(http.StatusBadRequest, c.do(http.MethodGet, "/api/communities/abc", bob.AccessToken, nil).Code)

	// dmPrivacy=nobody 时私信被拒
	w = c.do(http.MethodPatch, "/api/me", bob.AccessToken, gin.H{"dmPrivacy": "nobody"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = c.do(http.MethodPost, "/api/messages", alice.AccessToken, gin.H{"receiverId": bob.User.ID, "content": "hi"})
	assert.Equal(http.StatusForbidden, w.Code)
	w = c.do(http.MethodPost, "/api/messages", bob.AccessToken, gin.H{"receiverId": alice.User.ID, "content": "hi"})
	assert.Equal(http.StatusCreated, w.Code)
	w = c.do(http.MethodPost, "/api/messages", bob.AccessToken, gin.H{"receiverId": bob.User.ID, "content": "me"})
	assert.Equal(http.StatusBadRequest, w.Code)

	assert.Equal(http.StatusForbidden, c.do(http.MethodGet, "/api/admin/reports", alice.AccessToken, nil).Code)
	assert.Equal(http.StatusNotFound, c.do(http.MethodGet, "/api/users/987654", alice.AccessToken, nil).Code)
}

// fakeSessions 同时满足登录时写入和中间件校验两端
type fakeSessions struct {
	tokens map[uint64]string
}

func (f *fakeSessions) Save(_ context.Context, userID uint64, token string) error {
	f.tokens[userID] = token
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, userID uint64) error {
	delete(f.tokens, userID)
	return nil
}

func (f *fakeSessions) Get(_ context.Context, userID uint64) (string, error) {
	t, ok := f.tokens[userID]
	if !ok {
		return "", errors.New("session not found")
	}
	return t, nil
}

func (f *fakeSessions) Touch(context.Context, uint64) error { return nil }

func TestSingleSession(t *testing.T) {
	assert := assert.New(t)
	sessions := &fakeSessions{tokens: map[uint64]string{}}
	c := client{t: t, r: InitRouter(NewServices(memory.New(), sessions), sessions)}

	first := c.signup("carol")
	assert.Equal(http.StatusOK, c.do(http.MethodGet, "/api/me", first.AccessToken, nil).Code)

	// 在别处登录后旧 token 失效
	second := c.login("carol", "secret1")
	if first.AccessToken != second.AccessToken {
		assert.Equal(http.StatusUnauthorized, c.do(http.MethodGet, "/api/me", first.AccessToken, nil).Code)
	}
	assert.Equal(http.StatusOK, c.do(http.MethodGet, "/api/me", second.AccessToken, nil).Code)

	assert.Equal(http.StatusOK, c.do(http.MethodPost, "/api/auth/logout", second.AccessToken, nil).Code)
	assert.Equal(http.StatusUnauthorized, c.do(http.MethodGet, "/api/me", second.AccessToken, nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	c := client{t: t, r: InitRouter(NewServices(memory.New(), nil), nil)}
	w := c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
