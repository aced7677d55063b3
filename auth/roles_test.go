package auth

import (
	"testing"

	"github.com/DianaTao/solace/models"
	"github.com/stretchr/testify/assert"
)

func TestRoleLevels(t *testing.T) {
	assert.Equal(t, 0, RoleUser.Level())
	assert.Equal(t, 1, RoleSocialWorker.Level())
	assert.Equal(t, 2, RoleSupervisor.Level())
	assert.Equal(t, 3, RoleAdmin.Level())
	assert.Equal(t, 0, Role("intern").Level())
}

func TestRoleSatisfies(t *testing.T) {
	roles := []Role{RoleUser, RoleSocialWorker, RoleSupervisor, RoleAdmin}
	for _, have := range roles {
		for _, want := range roles {
			assert.Equal(t, have.Level() >= want.Level(), have.Satisfies(want), "%s vs %s", have, want)
		}
		assert.True(t, RoleAdmin.Satisfies(have))
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"supervisor", RoleSupervisor},
		{" ADMIN ", RoleAdmin},
		{"", RoleUser},
		{"superuser", RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in, RoleUser))
		})
	}
}

func TestPrincipalHasRole(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasRole(RoleUser))
	assert.True(t, (&Principal{Role: RoleSupervisor}).HasRole(RoleSocialWorker))
	assert.False(t, (&Principal{Role: RoleSocialWorker}).HasRole(RoleSupervisor))
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile(Identity{Subject: "U", Email: "jordan.lee@agency.org"})
	assert.Equal(t, &models.Profile{ID: "U", Email: "jordan.lee@agency.org", Name: "jordan.lee", Role: "social_worker"}, p)

	assert.Equal(t, "no-at-sign", DisplayNameFromEmail("no-at-sign"))
	assert.Equal(t, "", DisplayNameFromEmail(""))
}
