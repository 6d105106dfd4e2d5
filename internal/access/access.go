// Package access holds the authorization rules shared by every handler.
// Rules are pure functions of the caller's token identity and the target's club.
package access

import (
	"github.com/campus-clubs/backend/internal/models"
)

// Kind distinguishes the two principal tables.
type Kind string

const (
	KindMember    Kind = "member"
	KindAuthority Kind = "authority"
)

// Principal is the authenticated caller, as carried by the session token.
// Member and authority ids come from different tables, so Kind must be checked before comparing ids.
type Principal struct {
	ID     int64
	Email  string
	Role   models.Role
	ClubID int64
	Kind   Kind
}

// IsAuthority reports whether p is a site-wide authority.
func (p Principal) IsAuthority() bool {
	return p.Kind == KindAuthority && p.Role == models.RoleAuthority
}

// IsMember reports whether p is a club member (admin or not).
func (p Principal) IsMember() bool {
	return p.Kind == KindMember && p.ID > 0
}

// IsMemberOf reports whether p belongs to clubID.
func (p Principal) IsMemberOf(clubID int64) bool {
	return p.IsMember() && p.ClubID == clubID
}

// IsAdminOf reports whether p is an admin of clubID.
func (p Principal) IsAdminOf(clubID int64) bool {
	return p.IsMemberOf(clubID) && p.Role == models.RoleAdmin
}

// IsSelf reports whether p is the member with memberID.
func (p Principal) IsSelf(memberID int64) bool {
	return p.IsMember() && p.ID == memberID
}

// CanManageClub covers club edits, position reassignment, event creation,
// registration lists, exports and join-request decisions.
func CanManageClub(p Principal, clubID int64) bool {
	return p.IsAuthority() || p.IsAdminOf(clubID)
}

// CanDeleteClub is authority-only.
func CanDeleteClub(p Principal) bool {
	return p.IsAuthority()
}

// CanManageMember covers role changes and removal of a member in targetClubID.
func CanManageMember(p Principal, targetClubID int64) bool {
	return CanManageClub(p, targetClubID)
}

// CanEditProfile allows a member to edit themself, plus anyone who can manage the member.
func CanEditProfile(p Principal, targetID, targetClubID int64) bool {
	return p.IsSelf(targetID) || CanManageMember(p, targetClubID)
}

// CanModerate covers update/delete of club-owned content (announcements, gallery images):
// the author, an admin of the owning club, or an authority.
func CanModerate(p Principal, clubID int64, authorID *int64) bool {
	if authorID != nil && p.IsSelf(*authorID) {
		return true
	}
	return CanManageClub(p, clubID)
}

// CanPostToClub allows members of clubID to create club-scoped content.
func CanPostToClub(p Principal, clubID int64) bool {
	return p.IsMemberOf(clubID)
}

// CanUploadToClub allows members of clubID and authorities to add gallery images.
func CanUploadToClub(p Principal, clubID int64) bool {
	return p.IsAuthority() || p.IsMemberOf(clubID)
}
