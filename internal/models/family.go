package models

import (
	"strings"
	"time"
)

// Role identifies the kind of account a family member has
type Role string

const (
	RoleParent Role = "parent"
	RoleElder  Role = "elder"
	RoleTeen   Role = "teen"
	RoleChild  Role = "child"
)

// Valid reports whether the role is one of the supported roles
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleElder, RoleTeen, RoleChild:
		return true
	}
	return false
}

// MemberStatus tracks a member's lifecycle within a family
type MemberStatus string

const (
	StatusActive   MemberStatus = "active"
	StatusInvited  MemberStatus = "invited"
	StatusInactive MemberStatus = "inactive"
)

// PermissionSet holds the per-member permission flags
type PermissionSet struct {
	CanManageFamily   bool `json:"canManageFamily"`
	CanViewReports    bool `json:"canViewReports"`
	CanModifySettings bool `json:"canModifySettings"`
}

// DerivePermissions returns the default permissions for a role.
// Owners receive full permissions at family creation instead.
func DerivePermissions(role Role) PermissionSet {
	return PermissionSet{
		CanViewReports: role == RoleParent,
	}
}

// FamilySettings holds family-wide behavior flags
type FamilySettings struct {
	AllowChildRegistration  bool `json:"allowChildRegistration"`
	RequireParentalApproval bool `json:"requireParentalApproval"`
	ShareActivityReports    bool `json:"shareActivityReports"`
}

// DefaultFamilySettings returns the settings applied to a new family
func DefaultFamilySettings() FamilySettings {
	return FamilySettings{
		AllowChildRegistration:  false,
		RequireParentalApproval: true,
		ShareActivityReports:    true,
	}
}

// FamilyMember represents one person's membership within a family.
// UserID ties the membership to an account: set at creation for the
// owner, and at acceptance for invitees. Empty while an invitation is
// pending.
type FamilyMember struct {
	ID               string        `json:"id"`
	UserID           string        `json:"userId,omitempty"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Role             Role          `json:"role"`
	Status           MemberStatus  `json:"status"`
	IsOwner          bool          `json:"isOwner"`
	JoinedAt         time.Time     `json:"joinedAt"`
	LastActive       time.Time     `json:"lastActive"`
	Permissions      PermissionSet `json:"permissions"`
	InvitedBy        string        `json:"invitedBy,omitempty"`
	InvitationSentAt *time.Time    `json:"invitationSentAt,omitempty"`
}

// Family is a group of accounts sharing safety and activity visibility.
// Exactly one member carries the owner flag; the owner is set at creation
// and never changes.
type Family struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	OwnerID   string         `json:"ownerId"`
	Members   []FamilyMember `json:"members"`
	CreatedAt time.Time      `json:"createdAt"`
	Settings  FamilySettings `json:"settings"`
}

// Owner returns the member carrying the owner flag, or nil
func (f *Family) Owner() *FamilyMember {
	for i := range f.Members {
		if f.Members[i].IsOwner {
			return &f.Members[i]
		}
	}
	return nil
}

// Member returns the member with the given ID, or nil
func (f *Family) Member(memberID string) *FamilyMember {
	for i := range f.Members {
		if f.Members[i].ID == memberID {
			return &f.Members[i]
		}
	}
	return nil
}

// MemberByUserID returns the member whose account is userID, or nil
func (f *Family) MemberByUserID(userID string) *FamilyMember {
	for i := range f.Members {
		if f.Members[i].UserID == userID && userID != "" {
			return &f.Members[i]
		}
	}
	return nil
}

// MemberByEmail returns the member with the given email, matched
// case-insensitively, or nil
func (f *Family) MemberByEmail(email string) *FamilyMember {
	for i := range f.Members {
		if strings.EqualFold(f.Members[i].Email, email) {
			return &f.Members[i]
		}
	}
	return nil
}

// ActiveMemberCount returns the number of members in active status
func (f *Family) ActiveMemberCount() int {
	count := 0
	for i := range f.Members {
		if f.Members[i].Status == StatusActive {
			count++
		}
	}
	return count
}
