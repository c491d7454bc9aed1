package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

// Credentials is the login/signup form body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthClient is the slice of the upstream client the auth flows need.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (*upstream.AuthResult, error)
	Signup(ctx context.Context, username, password string) (*upstream.AuthResult, error)
}

type AuthHandlers struct {
	client AuthClient
	logger *zap.Logger
}

func NewAuthHandlers(client AuthClient, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{client: client, logger: logger}
}

// Login forwards credentials to the backend and, on success, persists the
// returned token, username, role and user payload in the cookie session.
func (h *AuthHandlers) Login(c *gin.Context) {
	h.handleCredentialFlow(c, h.client.Login, "Login failed. Please try again.")
}

// Signup creates an account; the backend signs the new user in directly, so
// the success path is identical to login.
func (h *AuthHandlers) Signup(c *gin.Context) {
	h.handleCredentialFlow(c, h.client.Signup, "Signup failed. Please try again.")
}

func (h *AuthHandlers) handleCredentialFlow(
	c *gin.Context,
	call func(ctx context.Context, username, password string) (*upstream.AuthResult, error),
	fallbackMsg string,
) {
	var req Credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Please fill in all fields"),
		})
		return
	}

	result, err := call(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("Credential flow failed",
			zap.String("username", req.Username),
			zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"banner": models.ErrorBanner(models.UpstreamMessage(err, fallbackMsg)),
		})
		return
	}

	role, err := models.ParseRole(result.Role)
	if err != nil {
		h.logger.Error("Backend returned an unknown role",
			zap.String("username", result.Username),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"banner": models.ErrorBanner(fallbackMsg),
		})
		return
	}

	if err := session.Persist(c, result.Token, result.Username, role, string(result.Raw)); err != nil {
		h.logger.Error("Failed to persist session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"banner": models.ErrorBanner(fallbackMsg),
		})
		return
	}

	h.logger.Info("Login successful",
		zap.String("username", result.Username),
		zap.String("role", role.String()))
	c.JSON(http.StatusOK, gin.H{
		"username": result.Username,
		"role":     role,
		"redirect": "/dashboard",
	})
}

// Logout clears the whole persisted session in one operation. There is no
// in-memory copy to reset: session state is rebuilt from the cookie on every
// request, so after this returns nothing stale can survive.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := session.Clear(c); err != nil {
		h.logger.Error("Failed to clear session on logout", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/login"})
}
