package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-clubs/backend/internal/models"
)

const (
	clubA int64 = 1
	clubB int64 = 2
)

var (
	authority   = Principal{ID: 1, Role: models.RoleAuthority, Kind: KindAuthority}
	adminA      = Principal{ID: 10, Role: models.RoleAdmin, ClubID: clubA, Kind: KindMember}
	adminB      = Principal{ID: 20, Role: models.RoleAdmin, ClubID: clubB, Kind: KindMember}
	memberA     = Principal{ID: 11, Role: models.RoleMember, ClubID: clubA, Kind: KindMember}
	memberB     = Principal{ID: 21, Role: models.RoleMember, ClubID: clubB, Kind: KindMember}
	forgedAdmin = Principal{ID: 1, Role: models.RoleAdmin, ClubID: clubA, Kind: KindAuthority}
)

// Target is always a member (or the club itself) in club A.
func TestCanManageClubMatrix(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		want bool
	}{
		{"authority", authority, true},
		{"admin same club", adminA, true},
		{"admin other club", adminB, false},
		{"member same club", memberA, false},
		{"member other club", memberB, false},
		{"authority kind with member role", forgedAdmin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanManageClub(tc.p, clubA))
			assert.Equal(t, tc.want, CanManageMember(tc.p, clubA))
		})
	}
}

func TestCanDeleteClubMatrix(t *testing.T) {
	assert.True(t, CanDeleteClub(authority))
	assert.False(t, CanDeleteClub(adminA))
	assert.False(t, CanDeleteClub(adminB))
	assert.False(t, CanDeleteClub(memberA))
	assert.False(t, CanDeleteClub(memberB))
}

func TestCanEditProfile(t *testing.T) {
	assert.True(t, CanEditProfile(memberA, memberA.ID, clubA))
	assert.False(t, CanEditProfile(memberA, 99, clubA))
	assert.True(t, CanEditProfile(adminA, 99, clubA))
	assert.False(t, CanEditProfile(adminB, 99, clubA))
	assert.True(t, CanEditProfile(authority, 99, clubA))
	// authority id 1 must not be mistaken for member id 1
	assert.False(t, CanEditProfile(Principal{ID: 1, Role: models.RoleMember, ClubID: clubB, Kind: KindMember}, 2, clubA))
}

func TestCanModerate(t *testing.T) {
	author := memberA.ID
	assert.True(t, CanModerate(memberA, clubA, &author))
	assert.False(t, CanModerate(memberB, clubA, &author))
	assert.True(t, CanModerate(adminA, clubA, &author))
	assert.True(t, CanModerate(authority, clubA, nil))
	assert.False(t, CanModerate(memberA, clubA, nil))

	// an authority whose id equals the author id is still allowed, but by role, not by identity
	authorityAuthor := authority.ID
	assert.True(t, CanModerate(authority, clubA, &authorityAuthor))
}

func TestCanPostAndUpload(t *testing.T) {
	assert.True(t, CanPostToClub(memberA, clubA))
	assert.False(t, CanPostToClub(memberB, clubA))
	assert.False(t, CanPostToClub(authority, clubA))

	assert.True(t, CanUploadToClub(authority, clubA))
	assert.True(t, CanUploadToClub(memberA, clubA))
	assert.False(t, CanUploadToClub(adminB, clubA))
}
