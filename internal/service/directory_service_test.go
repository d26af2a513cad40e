package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"guardianai/internal/kvstore"
	"guardianai/internal/models"
	"guardianai/internal/repository"
	"guardianai/internal/security"
)

type stubAlertFeed struct {
	alerts []models.SafetyAlert
}

func (s *stubAlertFeed) UnresolvedForUsers(userIDs []string) ([]models.SafetyAlert, error) {
	return s.alerts, nil
}

type stubReportFeed struct {
	reports []models.ActivityReport
}

func (s *stubReportFeed) ForUsers(userIDs []string) ([]models.ActivityReport, error) {
	return s.reports, nil
}

type stubInvitationSender struct {
	sent chan string
}

func (s *stubInvitationSender) SendInvitationEmail(ctx context.Context, toEmail, toName, familyName, token string) error {
	s.sent <- toEmail
	return nil
}

type stubAccountLinker struct {
	mu    sync.Mutex
	links map[string]string
}

func (s *stubAccountLinker) SetUserFamily(userID, familyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links == nil {
		s.links = make(map[string]string)
	}
	s.links[userID] = familyID
	return nil
}

func (s *stubAccountLinker) linked(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links[userID]
}

type directoryFixture struct {
	service  *DirectoryService
	families *repository.FamilyStore
	alerts   *stubAlertFeed
	reports  *stubReportFeed
	emails   *stubInvitationSender
	accounts *stubAccountLinker
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()

	families := repository.NewFamilyStore(kvstore.NewMemoryStore())
	alerts := &stubAlertFeed{}
	reports := &stubReportFeed{}
	emails := &stubInvitationSender{sent: make(chan string, 16)}
	accounts := &stubAccountLinker{}
	invites := security.NewInviteTokens("test-secret", time.Hour)

	return &directoryFixture{
		service:  NewDirectoryService(families, alerts, reports, emails, accounts, invites),
		families: families,
		alerts:   alerts,
		reports:  reports,
		emails:   emails,
		accounts: accounts,
	}
}

func (f *directoryFixture) waitForEmail(t *testing.T) string {
	t.Helper()
	select {
	case email := <-f.emails.sent:
		return email
	case <-time.After(2 * time.Second):
		t.Fatal("Expected invitation email to be dispatched")
		return ""
	}
}

func TestCreateFamily(t *testing.T) {
	f := newDirectoryFixture(t)

	family, err := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	if err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}

	if family.OwnerID != "user-1" {
		t.Errorf("Expected owner ID user-1, got %s", family.OwnerID)
	}
	if len(family.Members) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(family.Members))
	}

	owner := family.Owner()
	if owner == nil {
		t.Fatal("Expected an owner member")
	}
	if owner.ID != "user-1" {
		t.Errorf("Expected owner member ID user-1, got %s", owner.ID)
	}
	if owner.Status != models.StatusActive {
		t.Errorf("Expected owner to be active, got %s", owner.Status)
	}
	if !owner.Permissions.CanManageFamily || !owner.Permissions.CanViewReports || !owner.Permissions.CanModifySettings {
		t.Errorf("Expected owner to have full permissions, got %+v", owner.Permissions)
	}
	if !family.Settings.RequireParentalApproval {
		t.Error("Expected default settings to require parental approval")
	}

	// The record must be durable, not just returned
	loaded, err := f.families.Load(family.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected family to be persisted")
	}
}

func TestCreateFamilyValidation(t *testing.T) {
	f := newDirectoryFixture(t)

	tests := []struct {
		name        string
		familyName  string
		ownerEmail  string
		expectError bool
	}{
		{"valid", "Smith Family", "alice@example.com", false},
		{"empty name", "", "alice@example.com", true},
		{"short name", "S", "alice@example.com", true},
		{"bad email", "Smith Family", "not-an-email", true},
		{"empty email", "Smith Family", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateFamily("user-1", "Alice", tt.ownerEmail, tt.familyName)
			if tt.expectError && err == nil {
				t.Error("Expected an error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestAddMember(t *testing.T) {
	f := newDirectoryFixture(t)

	family, err := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	if err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}

	member, err := f.service.AddMember(family.ID, MemberDraft{
		Name:      "Bobby",
		Email:     "bobby@example.com",
		Role:      models.RoleTeen,
		InvitedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	if member.Status != models.StatusInvited {
		t.Errorf("Expected invited status, got %s", member.Status)
	}
	if member.Permissions.CanViewReports {
		t.Error("Teen members must not start with report visibility")
	}
	if member.InvitationSentAt == nil {
		t.Error("Expected invitation timestamp to be set")
	}
	if member.InvitedBy != "user-1" {
		t.Errorf("Expected invitedBy user-1, got %s", member.InvitedBy)
	}

	if email := f.waitForEmail(t); email != "bobby@example.com" {
		t.Errorf("Expected invitation sent to bobby@example.com, got %s", email)
	}

	loaded, _ := f.families.Load(family.ID)
	if len(loaded.Members) != 2 {
		t.Errorf("Expected 2 members after invite, got %d", len(loaded.Members))
	}
}

func TestAddMemberDuplicateEmail(t *testing.T) {
	f := newDirectoryFixture(t)

	family, err := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	if err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}

	// Email matching is case-insensitive, so this collides with the owner
	_, err = f.service.AddMember(family.ID, MemberDraft{
		Name:  "Imposter",
		Email: "ALICE@example.com",
		Role:  models.RoleParent,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}

	// The failed invite must leave the member list untouched
	loaded, _ := f.families.Load(family.ID)
	if len(loaded.Members) != 1 {
		t.Errorf("Expected member list unchanged, got %d members", len(loaded.Members))
	}
}

func TestAddMemberFamilyNotFound(t *testing.T) {
	f := newDirectoryFixture(t)

	_, err := f.service.AddMember("no-such-family", MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})
	if !errors.Is(err, ErrFamilyNotFound) {
		t.Errorf("Expected ErrFamilyNotFound, got %v", err)
	}
}

func TestUpdateMemberRoleRecomputesPermissions(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, err := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	role := models.RoleParent
	if err := f.service.UpdateMember(family.ID, member.ID, MemberPatch{Role: &role}); err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}

	loaded, _ := f.families.Load(family.ID)
	updated := loaded.Member(member.ID)
	if updated.Role != models.RoleParent {
		t.Errorf("Expected role parent, got %s", updated.Role)
	}
	if !updated.Permissions.CanViewReports {
		t.Error("Promoting to parent must grant report visibility")
	}

	// An explicit permission field wins over the role default
	deny := false
	if err := f.service.UpdateMember(family.ID, member.ID, MemberPatch{CanViewReports: &deny}); err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}
	loaded, _ = f.families.Load(family.ID)
	if loaded.Member(member.ID).Permissions.CanViewReports {
		t.Error("Explicit permission patch must be honored")
	}
}

func TestUpdateMemberNotFound(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")

	status := models.StatusActive
	err := f.service.UpdateMember(family.ID, "no-such-member", MemberPatch{Status: &status})
	if !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("Expected ErrMemberNotFound, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})

	if err := f.service.RemoveMember(family.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	loaded, _ := f.families.Load(family.ID)
	if loaded.Member(member.ID) != nil {
		t.Error("Expected member to be removed")
	}
	if len(loaded.Members) != 1 {
		t.Errorf("Expected 1 member left, got %d", len(loaded.Members))
	}
}

func TestRemoveMemberOwnerProtected(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")

	err := f.service.RemoveMember(family.ID, "user-1")
	if !errors.Is(err, ErrOwnerProtected) {
		t.Errorf("Expected ErrOwnerProtected, got %v", err)
	}

	loaded, _ := f.families.Load(family.ID)
	if len(loaded.Members) != 1 || !loaded.Members[0].IsOwner {
		t.Error("Failed owner removal must leave the family unchanged")
	}
}

func TestAcceptInvitation(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})

	if err := f.service.AcceptInvitation(family.ID, member.ID, "user-2"); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}

	loaded, _ := f.families.Load(family.ID)
	if loaded.Member(member.ID).Status != models.StatusActive {
		t.Errorf("Expected active status, got %s", loaded.Member(member.ID).Status)
	}
	if loaded.Member(member.ID).UserID != "user-2" {
		t.Errorf("Expected membership tied to user-2, got %q", loaded.Member(member.ID).UserID)
	}
	if f.accounts.linked("user-2") != family.ID {
		t.Error("Expected accepting user's account to be linked to the family")
	}

	// Accepting again is a no-op, not an error
	if err := f.service.AcceptInvitation(family.ID, member.ID, "user-2"); err != nil {
		t.Errorf("Second accept must be a no-op, got %v", err)
	}
	loaded, _ = f.families.Load(family.ID)
	if len(loaded.Members) != 2 {
		t.Errorf("Expected 2 members after repeat accept, got %d", len(loaded.Members))
	}
}

func TestAcceptedInviteeSeesFamily(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})

	// Pending invitees are not members of anything yet
	families, err := f.service.GetUserFamilies("user-2")
	if err != nil {
		t.Fatalf("GetUserFamilies failed: %v", err)
	}
	if len(families) != 0 {
		t.Fatalf("Expected no families before accepting, got %d", len(families))
	}

	if err := f.service.AcceptInvitation(family.ID, member.ID, "user-2"); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}

	families, err = f.service.GetUserFamilies("user-2")
	if err != nil {
		t.Fatalf("GetUserFamilies failed: %v", err)
	}
	if len(families) != 1 || families[0].ID != family.ID {
		t.Fatalf("Accepted invitee must see their family, got %d families", len(families))
	}

	// The owner sees it too
	families, _ = f.service.GetUserFamilies("user-1")
	if len(families) != 1 {
		t.Errorf("Expected the owner to see the family, got %d", len(families))
	}
}

func TestAcceptInvitationInactiveMember(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})

	status := models.StatusInactive
	if err := f.service.UpdateMember(family.ID, member.ID, MemberPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateMember failed: %v", err)
	}

	err := f.service.AcceptInvitation(family.ID, member.ID, "user-2")
	if !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("Expected ErrMemberNotFound for inactive member, got %v", err)
	}
}

func TestAcceptInvitationByToken(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})

	token, err := security.NewInviteTokens("test-secret", time.Hour).Issue(family.ID, member.ID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := f.service.AcceptInvitationByToken(token, "user-2"); err != nil {
		t.Fatalf("AcceptInvitationByToken failed: %v", err)
	}

	loaded, _ := f.families.Load(family.ID)
	if loaded.Member(member.ID).Status != models.StatusActive {
		t.Error("Expected member to be active after token accept")
	}

	if err := f.service.AcceptInvitationByToken("garbage-token", "user-2"); err == nil {
		t.Error("Expected an error for a malformed token")
	}
}

func TestSafetyScore(t *testing.T) {
	unresolved := func(severity models.AlertSeverity) models.SafetyAlert {
		return models.SafetyAlert{Severity: severity}
	}

	tests := []struct {
		name     string
		alerts   []models.SafetyAlert
		expected int
	}{
		{"no alerts", nil, 100},
		{"one low alert", []models.SafetyAlert{unresolved(models.SeverityLow)}, 95},
		{"one critical alert", []models.SafetyAlert{unresolved(models.SeverityCritical)}, 85},
		{
			"three alerts one critical",
			[]models.SafetyAlert{
				unresolved(models.SeverityLow),
				unresolved(models.SeverityMedium),
				unresolved(models.SeverityCritical),
			},
			75,
		},
		{
			"resolved alerts are ignored",
			[]models.SafetyAlert{
				{Severity: models.SeverityCritical, Resolved: true},
				unresolved(models.SeverityLow),
			},
			95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafetyScore(tt.alerts, 2); got != tt.expected {
				t.Errorf("Expected score %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestSafetyScoreFloor(t *testing.T) {
	var alerts []models.SafetyAlert
	for i := 0; i < 10; i++ {
		alerts = append(alerts, models.SafetyAlert{Severity: models.SeverityCritical})
	}
	if got := SafetyScore(alerts, 3); got != 0 {
		t.Errorf("Expected score floored at 0, got %d", got)
	}
}

func TestActivitySummary(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	member, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})
	if err := f.service.AcceptInvitation(family.ID, member.ID, "user-2"); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}

	f.reports.reports = []models.ActivityReport{
		{UserID: "user-1", AIInteractions: 10, WellbeingScore: 80},
		{UserID: "user-2", AIInteractions: 13, WellbeingScore: 60},
	}
	f.alerts.alerts = []models.SafetyAlert{
		{UserID: "user-2", Severity: models.SeverityHigh, CreatedAt: time.Now().Add(-24 * time.Hour)},
		{UserID: "user-2", Severity: models.SeverityLow, CreatedAt: time.Now().AddDate(0, 0, -30)},
	}

	summary, err := f.service.ActivitySummary(family.ID)
	if err != nil {
		t.Fatalf("ActivitySummary failed: %v", err)
	}

	if summary.TotalMembers != 2 {
		t.Errorf("Expected 2 total members, got %d", summary.TotalMembers)
	}
	if summary.ActiveMembers != 2 {
		t.Errorf("Expected 2 active members, got %d", summary.ActiveMembers)
	}
	if summary.AggregateInteractions != 23 {
		t.Errorf("Expected 23 aggregate interactions, got %d", summary.AggregateInteractions)
	}
	if summary.AverageWellbeing != 70 {
		t.Errorf("Expected average wellbeing 70, got %f", summary.AverageWellbeing)
	}
	if summary.RecentAlertCount != 1 {
		t.Errorf("Expected 1 recent alert, got %d", summary.RecentAlertCount)
	}
}

func TestActivitySummaryNoReports(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")

	summary, err := f.service.ActivitySummary(family.ID)
	if err != nil {
		t.Fatalf("ActivitySummary failed: %v", err)
	}
	if summary.AverageWellbeing != 0 {
		t.Errorf("Expected zero wellbeing with no reports, got %f", summary.AverageWellbeing)
	}
}

func TestFamilySafetyScore(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	f.alerts.alerts = []models.SafetyAlert{
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityLow},
	}

	score, err := f.service.FamilySafetyScore(family.ID)
	if err != nil {
		t.Fatalf("FamilySafetyScore failed: %v", err)
	}
	if score != 80 {
		t.Errorf("Expected score 80, got %d", score)
	}
}

func TestConcurrentAddMember(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.service.AddMember(family.ID, MemberDraft{
				Name:  fmt.Sprintf("Member %d", n),
				Email: fmt.Sprintf("member%d@example.com", n),
				Role:  models.RoleTeen,
			})
			if err != nil {
				t.Errorf("AddMember failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	loaded, _ := f.families.Load(family.ID)
	if len(loaded.Members) != workers+1 {
		t.Errorf("Expected %d members, got %d (lost update)", workers+1, len(loaded.Members))
	}
}

func TestSweepInactive(t *testing.T) {
	f := newDirectoryFixture(t)

	family, _ := f.service.CreateFamily("user-1", "Alice", "alice@example.com", "Smith Family")
	stale, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Bobby",
		Email: "bobby@example.com",
		Role:  models.RoleTeen,
	})
	fresh, _ := f.service.AddMember(family.ID, MemberDraft{
		Name:  "Carol",
		Email: "carol@example.com",
		Role:  models.RoleElder,
	})
	if err := f.service.AcceptInvitation(family.ID, stale.ID, ""); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if err := f.service.AcceptInvitation(family.ID, fresh.ID, ""); err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}

	// Age the stale member and the owner past the cutoff
	loaded, _ := f.families.Load(family.ID)
	old := time.Now().AddDate(0, 0, -60)
	loaded.Member(stale.ID).LastActive = old
	loaded.Member("user-1").LastActive = old
	if err := f.families.Save(loaded); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	swept, err := f.service.SweepInactive(time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("SweepInactive failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("Expected 1 member swept, got %d", swept)
	}

	loaded, _ = f.families.Load(family.ID)
	if loaded.Member(stale.ID).Status != models.StatusInactive {
		t.Error("Expected stale member to be inactive")
	}
	if loaded.Member("user-1").Status != models.StatusActive {
		t.Error("The owner must never be swept inactive")
	}
	if loaded.Member(fresh.ID).Status != models.StatusActive {
		t.Error("Recently active members must stay active")
	}
}
