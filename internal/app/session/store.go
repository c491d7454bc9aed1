// Package session wraps the cookie session that plays the role of the
// client's persisted key-value store: four string entries under fixed names.
package session

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/mess-suite/mess-web/internal/app/models"
)

const (
	// Name is the session cookie name.
	Name = "mess_session"

	KeyToken    = "mess_token"
	KeyUsername = "username"
	KeyRole     = "role"
	KeyUser     = "user"
)

// Token returns the persisted bearer token, or "" when absent.
func Token(c *gin.Context) string {
	return getString(c, KeyToken)
}

// StoredUsername returns the persisted username, or "".
func StoredUsername(c *gin.Context) string {
	return getString(c, KeyUsername)
}

// StoredRole returns the persisted role string, or "".
func StoredRole(c *gin.Context) string {
	return getString(c, KeyRole)
}

// Persist stores the credentials of a fresh login: the token, the username,
// the role, and the serialized user payload returned by the backend.
func Persist(c *gin.Context, token, username string, role models.Role, userBlob string) error {
	s := sessions.Default(c)
	s.Set(KeyToken, token)
	s.Set(KeyUsername, username)
	s.Set(KeyRole, role.String())
	s.Set(KeyUser, userBlob)
	return s.Save()
}

// Clear removes all four persisted entries in one operation. Used by logout
// and by the auth gate when verification rejects the token; after it returns
// there is no session state left to go stale.
func Clear(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(KeyToken)
	s.Delete(KeyUsername)
	s.Delete(KeyRole)
	s.Delete(KeyUser)
	return s.Save()
}

func getString(c *gin.Context, key string) string {
	if v, ok := sessions.Default(c).Get(key).(string); ok {
		return v
	}
	return ""
}
