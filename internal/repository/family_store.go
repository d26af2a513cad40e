package repository

import (
	"encoding/json"
	"fmt"

	"guardianai/internal/kvstore"
	"guardianai/internal/models"
)

const familyKeyPrefix = "family:"

// FamilyStore persists Family records as JSON documents in the
// key/value substrate, one document per family. Timestamps travel as
// RFC 3339 strings and come back as time.Time on load.
type FamilyStore struct {
	store kvstore.Store
}

// NewFamilyStore creates a new family store
func NewFamilyStore(store kvstore.Store) *FamilyStore {
	return &FamilyStore{store: store}
}

func familyKey(familyID string) string {
	return familyKeyPrefix + familyID
}

// Save serializes the full family record, nested members included, and
// writes it under its key. Overwrites any prior value.
func (s *FamilyStore) Save(family *models.Family) error {
	data, err := json.Marshal(family)
	if err != nil {
		return fmt.Errorf("failed to serialize family %s: %w", family.ID, err)
	}
	if err := s.store.Set(familyKey(family.ID), data); err != nil {
		return fmt.Errorf("failed to save family %s: %w", family.ID, err)
	}
	return nil
}

// Load retrieves a family by ID. Returns (nil, nil) when no record
// exists for the ID.
func (s *FamilyStore) Load(familyID string) (*models.Family, error) {
	data, found, err := s.store.Get(familyKey(familyID))
	if err != nil {
		return nil, fmt.Errorf("failed to load family %s: %w", familyID, err)
	}
	if !found {
		return nil, nil
	}

	var family models.Family
	if err := json.Unmarshal(data, &family); err != nil {
		return nil, fmt.Errorf("failed to decode family %s: %w", familyID, err)
	}
	return &family, nil
}

// Delete removes a family record
func (s *FamilyStore) Delete(familyID string) error {
	if err := s.store.Delete(familyKey(familyID)); err != nil {
		return fmt.Errorf("failed to delete family %s: %w", familyID, err)
	}
	return nil
}

// ListAll loads every stored family, in stable key order. Cost is
// linear in the number of stored families; there is no index.
func (s *FamilyStore) ListAll() ([]models.Family, error) {
	keys, err := s.store.Keys(familyKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate families: %w", err)
	}

	var families []models.Family
	for _, key := range keys {
		data, found, err := s.store.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if !found {
			continue
		}
		var family models.Family
		if err := json.Unmarshal(data, &family); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		families = append(families, family)
	}
	return families, nil
}

// ListForUser returns the families where the user is the owner or
// appears in the member list through an accepted membership
func (s *FamilyStore) ListForUser(userID string) ([]models.Family, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}

	var families []models.Family
	for _, family := range all {
		if family.OwnerID == userID || family.MemberByUserID(userID) != nil {
			families = append(families, family)
		}
	}
	return families, nil
}
