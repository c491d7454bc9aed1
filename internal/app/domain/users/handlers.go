package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/domain"
	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

// UsersClient is the slice of the upstream client the user admin views need.
// Account creation goes through signup, so that is part of the slice too.
type UsersClient interface {
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	UpdateUser(ctx context.Context, token string, userID int, update upstream.UserUpdate) error
	DeleteUser(ctx context.Context, token string, userID int) error
	Signup(ctx context.Context, username, password string) (*upstream.AuthResult, error)
}

type UsersHandlers struct {
	*domain.BaseHandler
	client UsersClient
}

func NewUsersHandlers(base *domain.BaseHandler, client UsersClient) *UsersHandlers {
	return &UsersHandlers{BaseHandler: base, client: client}
}

func (h *UsersHandlers) List(c *gin.Context) {
	users, err := h.client.ListUsers(c.Request.Context(), session.Token(c))
	if err != nil {
		h.RespondError(c, err, "Failed to load users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createForm struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Create registers the account through the signup endpoint, which always
// grants the default role, then promotes it when the admin asked for a
// different one. A failed promotion leaves a usable default-role account, so
// it is reported rather than rolled back.
func (h *UsersHandlers) Create(c *gin.Context) {
	var form createForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Username and password are required"),
		})
		return
	}

	role, err := models.ParseRole(form.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Invalid role"),
		})
		return
	}

	ctx := c.Request.Context()
	token := session.Token(c)

	if _, err := h.client.Signup(ctx, form.Username, form.Password); err != nil {
		h.RespondError(c, err, "Failed to create user")
		return
	}

	if role != models.RoleStudent {
		if err := h.promote(ctx, token, form.Username, role); err != nil {
			h.Logger.Warn("User created but role assignment failed",
				zap.String("username", form.Username),
				zap.String("role", role.String()),
				zap.Error(err))
			c.JSON(http.StatusOK, gin.H{
				"banner": models.ErrorBanner("User created, but assigning the role failed. Edit the user to retry."),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("User created successfully!"),
	})
}

// promote looks the fresh account up by name and sets its role. Signup does
// not return the new user's id, so the list is the only way to find it.
func (h *UsersHandlers) promote(ctx context.Context, token, username string, role models.Role) error {
	users, err := h.client.ListUsers(ctx, token)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == username {
			return h.client.UpdateUser(ctx, token, u.ID, upstream.UserUpdate{Role: role.String()})
		}
	}
	return models.ErrNotFound
}

type updateForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Update applies a partial edit. Empty fields are omitted from the upstream
// request so unchanged values stay untouched, the password especially.
func (h *UsersHandlers) Update(c *gin.Context) {
	id, ok := domain.IntParam(c, "id")
	if !ok {
		return
	}

	var form updateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Invalid request"),
		})
		return
	}

	update := upstream.UserUpdate{
		Username: form.Username,
		Password: form.Password,
	}
	if form.Role != "" {
		role, err := models.ParseRole(form.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"banner": models.ErrorBanner("Invalid role"),
			})
			return
		}
		update.Role = role.String()
	}

	if err := h.client.UpdateUser(c.Request.Context(), session.Token(c), id, update); err != nil {
		h.RespondError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("User updated successfully!"),
	})
}

func (h *UsersHandlers) Delete(c *gin.Context) {
	id, ok := domain.IntParam(c, "id")
	if !ok {
		return
	}

	if err := h.client.DeleteUser(c.Request.Context(), session.Token(c), id); err != nil {
		h.RespondError(c, err, "Failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("User deleted successfully!"),
	})
}
