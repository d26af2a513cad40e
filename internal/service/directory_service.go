package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"guardianai/internal/models"
	"guardianai/internal/repository"
	"guardianai/internal/security"
	"guardianai/internal/validation"
)

var (
	ErrFamilyNotFound = errors.New("family not found")
	ErrMemberNotFound = errors.New("family member not found")
	ErrDuplicateEmail = errors.New("a member with this email already exists")
	ErrOwnerProtected = errors.New("the family owner cannot be removed")
)

// InvitationSender delivers invitation emails. Delivery is best-effort:
// a failure is logged and never rolls back the membership write.
type InvitationSender interface {
	SendInvitationEmail(ctx context.Context, toEmail, toName, familyName, token string) error
}

// AccountLinker records a user's family association when an invitation
// is accepted. The user record itself is owned by the auth side.
type AccountLinker interface {
	SetUserFamily(userID, familyID string) error
}

// AlertFeed supplies unresolved safety alerts for a set of users
type AlertFeed interface {
	UnresolvedForUsers(userIDs []string) ([]models.SafetyAlert, error)
}

// ReportFeed supplies activity reports for a set of users
type ReportFeed interface {
	ForUsers(userIDs []string) ([]models.ActivityReport, error)
}

// MemberDraft carries the caller-supplied fields for a new member
type MemberDraft struct {
	Name      string
	Email     string
	Role      models.Role
	InvitedBy string
}

// MemberPatch enumerates exactly the mutable member fields. Identity
// fields (id, joinedAt) are never patchable.
type MemberPatch struct {
	Role              *models.Role
	Status            *models.MemberStatus
	CanManageFamily   *bool
	CanViewReports    *bool
	CanModifySettings *bool
}

// ActivitySummary aggregates a family's member and activity counters
type ActivitySummary struct {
	TotalMembers          int     `json:"totalMembers"`
	ActiveMembers         int     `json:"activeMembers"`
	AggregateInteractions int     `json:"aggregateInteractions"`
	AverageWellbeing      float64 `json:"averageWellbeing"`
	RecentAlertCount      int     `json:"recentAlertCount"`
}

// DirectoryService is the only mutation surface for family and member
// data. It enforces the owner and email-uniqueness invariants and
// serializes all writes per family ID.
type DirectoryService struct {
	families *repository.FamilyStore
	alerts   AlertFeed
	reports  ReportFeed
	emails   InvitationSender
	accounts AccountLinker
	invites  *security.InviteTokens
	locks    *keyedMutex
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(families *repository.FamilyStore, alerts AlertFeed, reports ReportFeed,
	emails InvitationSender, accounts AccountLinker, invites *security.InviteTokens) *DirectoryService {
	return &DirectoryService{
		families: families,
		alerts:   alerts,
		reports:  reports,
		emails:   emails,
		accounts: accounts,
		invites:  invites,
		locks:    newKeyedMutex(),
	}
}

// CreateFamily creates a new family owned by the given user. The owner
// joins immediately as an active member with full permissions; the
// owner flag never moves afterwards.
func (s *DirectoryService) CreateFamily(ownerID, ownerName, ownerEmail, name string) (*models.Family, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(ownerEmail); err != nil {
		return nil, err
	}

	now := time.Now()
	family := &models.Family{
		ID:      uuid.New().String(),
		Name:    name,
		OwnerID: ownerID,
		Members: []models.FamilyMember{
			{
				ID:         ownerID,
				UserID:     ownerID,
				Name:       ownerName,
				Email:      ownerEmail,
				Role:       models.RoleParent,
				Status:     models.StatusActive,
				IsOwner:    true,
				JoinedAt:   now,
				LastActive: now,
				Permissions: models.PermissionSet{
					CanManageFamily:   true,
					CanViewReports:    true,
					CanModifySettings: true,
				},
			},
		},
		CreatedAt: now,
		Settings:  models.DefaultFamilySettings(),
	}

	if err := s.families.Save(family); err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}
	return family, nil
}

// GetFamily retrieves a family by ID
func (s *DirectoryService) GetFamily(familyID string) (*models.Family, error) {
	family, err := s.families.Load(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// GetUserFamilies retrieves all families a user owns or belongs to
func (s *DirectoryService) GetUserFamilies(userID string) ([]models.Family, error) {
	families, err := s.families.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user families: %w", err)
	}
	return families, nil
}

// AddMember invites a new member into a family. The member starts in
// invited status; the invitation email is dispatched after the write
// commits and its failure never undoes the membership.
func (s *DirectoryService) AddMember(familyID string, draft MemberDraft) (*models.FamilyMember, error) {
	if err := validation.ValidateName(draft.Name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(draft.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidateRole(draft.Role); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(familyID)
	defer unlock()

	family, err := s.families.Load(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	if family.MemberByEmail(draft.Email) != nil {
		return nil, ErrDuplicateEmail
	}

	now := time.Now()
	member := models.FamilyMember{
		ID:               uuid.New().String(),
		Name:             draft.Name,
		Email:            draft.Email,
		Role:             draft.Role,
		Status:           models.StatusInvited,
		JoinedAt:         now,
		LastActive:       now,
		Permissions:      models.DerivePermissions(draft.Role),
		InvitedBy:        draft.InvitedBy,
		InvitationSentAt: &now,
	}
	family.Members = append(family.Members, member)

	if err := s.families.Save(family); err != nil {
		return nil, fmt.Errorf("failed to save family: %w", err)
	}

	s.dispatchInvitation(family, member)

	return &member, nil
}

// dispatchInvitation sends the invitation email in the background
func (s *DirectoryService) dispatchInvitation(family *models.Family, member models.FamilyMember) {
	if s.emails == nil {
		return
	}

	token, err := s.invites.Issue(family.ID, member.ID)
	if err != nil {
		log.Printf("Failed to issue invitation token for %s: %v", member.Email, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.emails.SendInvitationEmail(ctx, member.Email, member.Name, family.Name, token); err != nil {
			log.Printf("Failed to send invitation email to %s: %v", member.Email, err)
		}
	}()
}

// UpdateMember applies a patch to a member. A role change recomputes
// the report-visibility permission; explicit permission fields in the
// patch are honored as given.
func (s *DirectoryService) UpdateMember(familyID, memberID string, patch MemberPatch) error {
	if patch.Role != nil {
		if err := validation.ValidateRole(*patch.Role); err != nil {
			return err
		}
	}

	unlock := s.locks.Lock(familyID)
	defer unlock()

	family, err := s.families.Load(familyID)
	if err != nil {
		return fmt.Errorf("failed to load family: %w", err)
	}
	if family == nil {
		return ErrFamilyNotFound
	}

	member := family.Member(memberID)
	if member == nil {
		return ErrMemberNotFound
	}

	if patch.Role != nil {
		member.Role = *patch.Role
		member.Permissions.CanViewReports = models.DerivePermissions(*patch.Role).CanViewReports
	}
	if patch.Status != nil {
		member.Status = *patch.Status
	}
	if patch.CanManageFamily != nil {
		member.Permissions.CanManageFamily = *patch.CanManageFamily
	}
	if patch.CanViewReports != nil {
		member.Permissions.CanViewReports = *patch.CanViewReports
	}
	if patch.CanModifySettings != nil {
		member.Permissions.CanModifySettings = *patch.CanModifySettings
	}

	if err := s.families.Save(family); err != nil {
		return fmt.Errorf("failed to save family: %w", err)
	}
	return nil
}

// RemoveMember hard-deletes a member from a family. The owner can
// never be removed.
func (s *DirectoryService) RemoveMember(familyID, memberID string) error {
	unlock := s.locks.Lock(familyID)
	defer unlock()

	family, err := s.families.Load(familyID)
	if err != nil {
		return fmt.Errorf("failed to load family: %w", err)
	}
	if family == nil {
		return ErrFamilyNotFound
	}

	index := -1
	for i := range family.Members {
		if family.Members[i].ID == memberID {
			index = i
			break
		}
	}
	if index == -1 {
		return ErrMemberNotFound
	}
	if family.Members[index].IsOwner {
		return ErrOwnerProtected
	}

	family.Members = append(family.Members[:index], family.Members[index+1:]...)

	if err := s.families.Save(family); err != nil {
		return fmt.Errorf("failed to save family: %w", err)
	}
	return nil
}

// AcceptInvitation transitions a member from invited to active and
// links the accepting user's account to the family. Calling it again
// for an already-active member is a no-op.
func (s *DirectoryService) AcceptInvitation(familyID, memberID, acceptingUserID string) error {
	unlock := s.locks.Lock(familyID)
	defer unlock()

	family, err := s.families.Load(familyID)
	if err != nil {
		return fmt.Errorf("failed to load family: %w", err)
	}
	if family == nil {
		return ErrFamilyNotFound
	}

	member := family.Member(memberID)
	if member == nil {
		return ErrMemberNotFound
	}

	switch member.Status {
	case models.StatusActive:
		// Already accepted
		return nil
	case models.StatusInactive:
		return ErrMemberNotFound
	}

	member.Status = models.StatusActive
	member.LastActive = time.Now()
	// Tie the membership to the accepting account so family
	// enumeration and the activity feeds can find this user
	if acceptingUserID != "" {
		member.UserID = acceptingUserID
	}

	if err := s.families.Save(family); err != nil {
		return fmt.Errorf("failed to save family: %w", err)
	}

	if s.accounts != nil && acceptingUserID != "" {
		if err := s.accounts.SetUserFamily(acceptingUserID, family.ID); err != nil {
			return fmt.Errorf("failed to link account to family: %w", err)
		}
	}
	return nil
}

// AcceptInvitationByToken verifies a signed invitation token and
// accepts the invitation it targets
func (s *DirectoryService) AcceptInvitationByToken(token, acceptingUserID string) error {
	familyID, memberID, err := s.invites.Verify(token)
	if err != nil {
		return err
	}
	return s.AcceptInvitation(familyID, memberID, acceptingUserID)
}

// ActivitySummary aggregates member counts, interactions, wellbeing
// and recent alerts for a family. An empty family yields a zeroed
// summary rather than a division error.
func (s *DirectoryService) ActivitySummary(familyID string) (*ActivitySummary, error) {
	family, err := s.families.Load(familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family: %w", err)
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}

	summary := &ActivitySummary{
		TotalMembers:  len(family.Members),
		ActiveMembers: family.ActiveMemberCount(),
	}
	if summary.TotalMembers == 0 {
		return summary, nil
	}

	memberIDs := memberAccountIDs(family)

	reports, err := s.reports.ForUsers(memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity reports: %w", err)
	}
	wellbeingTotal := 0
	for _, report := range reports {
		summary.AggregateInteractions += report.AIInteractions
		wellbeingTotal += report.WellbeingScore
	}
	if len(reports) > 0 {
		summary.AverageWellbeing = float64(wellbeingTotal) / float64(len(reports))
	}

	alerts, err := s.alerts.UnresolvedForUsers(memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load safety alerts: %w", err)
	}
	cutoff := time.Now().AddDate(0, 0, -7)
	for _, alert := range alerts {
		if alert.CreatedAt.After(cutoff) {
			summary.RecentAlertCount++
		}
	}

	return summary, nil
}

// memberAccountIDs collects the user IDs the alert and report feeds
// are keyed by. Members still pending acceptance have no account yet
// and contribute nothing to the feeds.
func memberAccountIDs(family *models.Family) []string {
	ids := make([]string, 0, len(family.Members))
	for i := range family.Members {
		if id := family.Members[i].UserID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// SafetyScore computes the 0-100 heuristic safety metric: start at
// 100, subtract 5 per unresolved alert and another 10 for each
// unresolved critical alert, floored at 0. This is policy, not a
// statistical model.
func SafetyScore(alerts []models.SafetyAlert, activeMemberCount int) int {
	score := 100
	for _, alert := range alerts {
		if alert.Resolved {
			continue
		}
		score -= 5
		if alert.Severity == models.SeverityCritical {
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// FamilySafetyScore computes the safety score over a family's current
// unresolved alerts
func (s *DirectoryService) FamilySafetyScore(familyID string) (int, error) {
	family, err := s.families.Load(familyID)
	if err != nil {
		return 0, fmt.Errorf("failed to load family: %w", err)
	}
	if family == nil {
		return 0, ErrFamilyNotFound
	}

	alerts, err := s.alerts.UnresolvedForUsers(memberAccountIDs(family))
	if err != nil {
		return 0, fmt.Errorf("failed to load safety alerts: %w", err)
	}
	return SafetyScore(alerts, family.ActiveMemberCount()), nil
}

// SweepInactive marks active members whose last activity predates the
// cutoff as inactive and returns how many were transitioned. This is
// the only path into inactive status.
func (s *DirectoryService) SweepInactive(cutoff time.Time) (int, error) {
	families, err := s.families.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate families: %w", err)
	}

	swept := 0
	for i := range families {
		unlock := s.locks.Lock(families[i].ID)

		family, err := s.families.Load(families[i].ID)
		if err != nil {
			unlock()
			return swept, fmt.Errorf("failed to load family: %w", err)
		}
		if family == nil {
			unlock()
			continue
		}

		changed := false
		for j := range family.Members {
			member := &family.Members[j]
			if member.Status == models.StatusActive && !member.IsOwner && member.LastActive.Before(cutoff) {
				member.Status = models.StatusInactive
				changed = true
				swept++
			}
		}
		if changed {
			if err := s.families.Save(family); err != nil {
				unlock()
				return swept, fmt.Errorf("failed to save family: %w", err)
			}
		}
		unlock()
	}
	return swept, nil
}
