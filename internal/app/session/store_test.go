package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mess-suite/mess-web/internal/app/models"
)

func newSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(Name, cookie.NewStore([]byte("test-secret"))))
	return r
}

func TestPersistAndRead(t *testing.T) {
	r := newSessionRouter()
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, Persist(c, "tok-1", "alice", models.RoleAdmin, `{"id":1}`))
		c.Status(http.StatusOK)
	})
	r.GET("/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"token":    Token(c),
			"username": StoredUsername(c),
			"role":     StoredRole(c),
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"token":"tok-1","username":"alice","role":"Admin"}`, w.Body.String())
}

func TestClearRemovesEverything(t *testing.T) {
	r := newSessionRouter()
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, Persist(c, "tok-1", "alice", models.RoleStudent, ""))
		c.Status(http.StatusOK)
	})
	r.POST("/logout", func(c *gin.Context) {
		require.NoError(t, Clear(c))
		c.Status(http.StatusOK)
	})
	r.GET("/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": Token(c), "username": StoredUsername(c)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	loginCookies := w.Result().Cookies()
	require.NotEmpty(t, loginCookies)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, ck := range loginCookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	logoutCookies := w.Result().Cookies()

	req = httptest.NewRequest(http.MethodGet, "/check", nil)
	for _, ck := range logoutCookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"token":"","username":""}`, w.Body.String())
}

func TestMissingSessionReadsEmpty(t *testing.T) {
	r := newSessionRouter()
	r.GET("/check", func(c *gin.Context) {
		c.String(http.StatusOK, Token(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/check", nil))

	assert.Empty(t, w.Body.String())
}
