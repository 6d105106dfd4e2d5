package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveRole(t *testing.T) {
	cases := map[string]Role{
		"President":           RoleAdmin,
		"  general SECRETARY": RoleAdmin,
		"Secretary":           RoleAdmin,
		"Vice President":      RoleMember,
		"Treasurer":           RoleMember,
		"":                    RoleMember,
		"Joint Secretary":     RoleMember,
	}
	for position, want := range cases {
		assert.Equal(t, want, DeriveRole(position), position)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleMember.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, RoleAuthority.Valid())
	assert.False(t, Role("owner").Valid())
}
