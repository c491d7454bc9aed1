package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) Login(ctx context.Context, username, password string) (*upstream.AuthResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.AuthResult), args.Error(1)
}

func (m *MockAuthClient) Signup(ctx context.Context, username, password string) (*upstream.AuthResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.AuthResult), args.Error(1)
}

func newAuthRouter(client AuthClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(session.Name, cookie.NewStore([]byte("test-secret"))))
	h := NewAuthHandlers(client, zap.NewNop())
	r.POST("/auth/login", h.Login)
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/logout", h.Logout)
	r.GET("/token", func(c *gin.Context) {
		c.String(http.StatusOK, session.Token(c))
	})
	return r
}

func postJSON(r *gin.Engine, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	t.Run("persists the session and redirects to the dashboard", func(t *testing.T) {
		client := new(MockAuthClient)
		client.On("Login", mock.Anything, "alice", "pw").Return(&upstream.AuthResult{
			Token:    "tok-1",
			Username: "alice",
			Role:     "Admin",
			Raw:      []byte(`{"token":"tok-1","username":"alice","role":"Admin"}`),
		}, nil)
		r := newAuthRouter(client)

		w := postJSON(r, "/auth/login", `{"username":"alice","password":"pw"}`, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"alice","role":"Admin","redirect":"/dashboard"}`, w.Body.String())

		// The cookie from the response must carry the token.
		req := httptest.NewRequest(http.MethodGet, "/token", nil)
		for _, ck := range w.Result().Cookies() {
			req.AddCookie(ck)
		}
		w2 := httptest.NewRecorder()
		r.ServeHTTP(w2, req)
		assert.Equal(t, "tok-1", w2.Body.String())
	})

	t.Run("empty fields fail before any backend call", func(t *testing.T) {
		client := new(MockAuthClient)
		r := newAuthRouter(client)

		w := postJSON(r, "/auth/login", `{"username":"","password":""}`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Please fill in all fields")
		client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("backend rejection surfaces its message", func(t *testing.T) {
		client := new(MockAuthClient)
		client.On("Login", mock.Anything, "alice", "wrong").
			Return(nil, &models.UpstreamError{Status: 401, Message: "Invalid username or password"})
		r := newAuthRouter(client)

		w := postJSON(r, "/auth/login", `{"username":"alice","password":"wrong"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password")
	})

	t.Run("transport failure uses the generic message", func(t *testing.T) {
		client := new(MockAuthClient)
		client.On("Login", mock.Anything, "alice", "pw").Return(nil, models.ErrTransport)
		r := newAuthRouter(client)

		w := postJSON(r, "/auth/login", `{"username":"alice","password":"pw"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Login failed. Please try again.")
	})
}

func TestSignup(t *testing.T) {
	t.Run("missing role defaults to student", func(t *testing.T) {
		client := new(MockAuthClient)
		client.On("Signup", mock.Anything, "bob", "pw").Return(&upstream.AuthResult{
			Token:    "tok-2",
			Username: "bob",
		}, nil)
		r := newAuthRouter(client)

		w := postJSON(r, "/auth/signup", `{"username":"bob","password":"pw"}`, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"bob","role":"Student","redirect":"/dashboard"}`, w.Body.String())
	})

	t.Run("duplicate username surfaces the backend message", func(t *testing.T) {
		client := new(MockAuthClient)
		client.On("Signup", mock.Anything, "bob", "pw").
			Return(nil, &models.UpstreamError{Status: 409, Message: "Username already exists"})
		r := newAuthRouter(client)

		w := postJSON(r, "/auth/signup", `{"username":"bob","password":"pw"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Username already exists")
	})
}

func TestLogout(t *testing.T) {
	client := new(MockAuthClient)
	client.On("Login", mock.Anything, "alice", "pw").Return(&upstream.AuthResult{
		Token:    "tok-1",
		Username: "alice",
		Role:     "Student",
	}, nil)
	r := newAuthRouter(client)

	login := postJSON(r, "/auth/login", `{"username":"alice","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)

	logout := postJSON(r, "/auth/logout", "", login.Result().Cookies())
	require.Equal(t, http.StatusOK, logout.Code)
	assert.JSONEq(t, `{"redirect":"/login"}`, logout.Body.String())

	// After logout the token must be gone.
	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	for _, ck := range logout.Result().Cookies() {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Body.String())
}
