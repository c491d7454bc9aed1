package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	t.Run("known roles parse case-insensitively", func(t *testing.T) {
		for input, want := range map[string]Role{
			"Student": RoleStudent,
			"student": RoleStudent,
			"STUDENT": RoleStudent,
			"Teacher": RoleTeacher,
			"teacher": RoleTeacher,
			"Admin":   RoleAdmin,
			"admin":   RoleAdmin,
		} {
			got, err := ParseRole(input)
			assert.NoError(t, err, input)
			assert.Equal(t, want, got, input)
		}
	})

	t.Run("empty role defaults to student", func(t *testing.T) {
		got, err := ParseRole("")
		assert.NoError(t, err)
		assert.Equal(t, RoleStudent, got)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := ParseRole("superuser")
		assert.Error(t, err)
	})
}

func TestRoleIsAdmin(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleTeacher.IsAdmin())
	assert.False(t, RoleStudent.IsAdmin())
}
