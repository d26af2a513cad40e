package models

import (
	"testing"
	"time"
)

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role  Role
		valid bool
	}{
		{RoleParent, true},
		{RoleElder, true},
		{RoleTeen, true},
		{RoleChild, true},
		{Role("admin"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.valid {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.valid)
			}
		})
	}
}

func TestAlertTypeValid(t *testing.T) {
	tests := []struct {
		alertType AlertType
		valid     bool
	}{
		{AlertScam, true},
		{AlertInappropriateContent, true},
		{AlertCyberbullying, true},
		{AlertPrivacyRisk, true},
		{AlertType("spam"), false},
		{AlertType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.alertType), func(t *testing.T) {
			if got := tt.alertType.Valid(); got != tt.valid {
				t.Errorf("AlertType(%q).Valid() = %v, want %v", tt.alertType, got, tt.valid)
			}
		})
	}
}

func TestAlertSeverityValid(t *testing.T) {
	for _, severity := range []AlertSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if !severity.Valid() {
			t.Errorf("Expected %q to be valid", severity)
		}
	}
	if AlertSeverity("extreme").Valid() {
		t.Error("Expected unknown severity to be invalid")
	}
}

func TestDerivePermissions(t *testing.T) {
	tests := []struct {
		role           Role
		canViewReports bool
	}{
		{RoleParent, true},
		{RoleElder, false},
		{RoleTeen, false},
		{RoleChild, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			perms := DerivePermissions(tt.role)
			if perms.CanViewReports != tt.canViewReports {
				t.Errorf("Expected CanViewReports=%v for %s", tt.canViewReports, tt.role)
			}
			if perms.CanManageFamily || perms.CanModifySettings {
				t.Errorf("No role derives management permissions, got %+v", perms)
			}
		})
	}
}

func TestFamilyMemberByEmail(t *testing.T) {
	family := &Family{
		Members: []FamilyMember{
			{ID: "m1", Email: "alice@example.com"},
			{ID: "m2", Email: "Bobby@Example.COM"},
		},
	}

	if m := family.MemberByEmail("ALICE@example.com"); m == nil || m.ID != "m1" {
		t.Error("Expected case-insensitive match for alice")
	}
	if m := family.MemberByEmail("bobby@example.com"); m == nil || m.ID != "m2" {
		t.Error("Expected case-insensitive match for bobby")
	}
	if family.MemberByEmail("carol@example.com") != nil {
		t.Error("Expected nil for unknown email")
	}
}

func TestFamilyMemberByUserID(t *testing.T) {
	family := &Family{
		Members: []FamilyMember{
			{ID: "m1", UserID: "u1"},
			{ID: "m2"}, // invitation still pending
		},
	}

	if m := family.MemberByUserID("u1"); m == nil || m.ID != "m1" {
		t.Error("Expected m1 for account u1")
	}
	if family.MemberByUserID("m2") != nil {
		t.Error("A member ID must not match as an account ID")
	}
	// An empty account ID must never match the pending member
	if family.MemberByUserID("") != nil {
		t.Error("Expected no match for an empty user ID")
	}
}

func TestFamilyOwner(t *testing.T) {
	family := &Family{
		Members: []FamilyMember{
			{ID: "m1"},
			{ID: "m2", IsOwner: true},
		},
	}
	if owner := family.Owner(); owner == nil || owner.ID != "m2" {
		t.Error("Expected m2 to be the owner")
	}

	empty := &Family{}
	if empty.Owner() != nil {
		t.Error("Expected nil owner for empty family")
	}
}

func TestActiveMemberCount(t *testing.T) {
	family := &Family{
		Members: []FamilyMember{
			{Status: StatusActive},
			{Status: StatusInvited},
			{Status: StatusActive},
			{Status: StatusInactive},
		},
	}
	if got := family.ActiveMemberCount(); got != 2 {
		t.Errorf("Expected 2 active members, got %d", got)
	}
}

func TestSessionIsExpired(t *testing.T) {
	fresh := &Session{ExpiresAt: time.Now().Add(time.Hour)}
	if fresh.IsExpired() {
		t.Error("Expected fresh session to not be expired")
	}

	stale := &Session{ExpiresAt: time.Now().Add(-time.Hour)}
	if !stale.IsExpired() {
		t.Error("Expected stale session to be expired")
	}
}

func TestDefaultFamilySettings(t *testing.T) {
	settings := DefaultFamilySettings()
	if settings.AllowChildRegistration {
		t.Error("Child registration must default to off")
	}
	if !settings.RequireParentalApproval {
		t.Error("Parental approval must default to on")
	}
	if !settings.ShareActivityReports {
		t.Error("Report sharing must default to on")
	}
}
