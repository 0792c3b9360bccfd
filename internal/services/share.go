package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mailproof/internal/models"
	"mailproof/internal/store"
	"mailproof/internal/utils/logger"
)

// ShareService manages sharing grants between an owner and teammates.
// One grant exists per (owner, member) pair; repeated shares merge into
// the same grant's resource set.
type ShareService struct {
	grants store.GrantStore
	log    *logger.Logger
}

func NewShareService(grants store.GrantStore) *ShareService {
	return &ShareService{
		grants: grants,
		log:    logger.New("share_service"),
	}
}

// ParseAccessType normalises a free-form access type string the way the
// dashboard sends it ("Read only", "read", "write access"). An empty
// input stays empty so Share keeps the existing grant's access level
// instead of promoting it.
func ParseAccessType(raw string) models.AccessType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(raw), "read") {
		return models.AccessTypeRead
	}
	return models.AccessTypeWrite
}

// Share grants memberID access over listIDs. An existing grant absorbs the
// new ids as a set union, so sharing the same list twice is idempotent;
// the access type is overwritten when provided and preserved otherwise.
func (s *ShareService) Share(ctx context.Context, ownerID, memberID string, listIDs []string, accessType models.AccessType) (*models.TeamMember, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", ErrInvalidArgument)
	}
	if len(listIDs) == 0 {
		return nil, fmt.Errorf("%w: email list ids are required", ErrInvalidArgument)
	}
	if ownerID == memberID {
		return nil, fmt.Errorf("%w: cannot share a list with yourself", ErrInvalidArgument)
	}
	if accessType != "" && !models.IsValidAccessType(accessType) {
		return nil, fmt.Errorf("%w: unknown access type %q", ErrInvalidArgument, accessType)
	}

	grant, err := s.grants.Get(ctx, ownerID, memberID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if accessType == "" {
			accessType = models.AccessTypeRead
		}
		grant = &models.TeamMember{
			SharedByID: ownerID,
			MemberID:   memberID,
			AccessType: accessType,
			SharedOn:   time.Now(),
		}
		if err := s.grants.Save(ctx, grant, dedupe(listIDs)); err != nil {
			return nil, err
		}
		s.log.Success("Created grant %s -> %s over %d lists", ownerID, memberID, len(listIDs))

	case err != nil:
		return nil, err

	default:
		merged := unionListIDs(grant, listIDs)
		if accessType != "" {
			grant.AccessType = accessType
		}
		if err := s.grants.Save(ctx, grant, merged); err != nil {
			return nil, err
		}
		s.log.Success("Merged grant %s -> %s, now %d lists", ownerID, memberID, len(merged))
	}

	return s.grants.Get(ctx, ownerID, memberID)
}

// Revoke removes the member's grant entirely: one call severs access to
// every list the owner ever shared with them.
func (s *ShareService) Revoke(ctx context.Context, ownerID, memberID string) error {
	if memberID == "" {
		return fmt.Errorf("%w: member id is required", ErrInvalidArgument)
	}
	if err := s.grants.Delete(ctx, ownerID, memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: no grant for member %s", ErrNotFound, memberID)
		}
		return err
	}
	s.log.Info("Revoked grant %s -> %s", ownerID, memberID)
	return nil
}

// ChangeAccessType updates the access level on an existing grant
func (s *ShareService) ChangeAccessType(ctx context.Context, ownerID, memberID string, accessType models.AccessType) (*models.TeamMember, error) {
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id is required", ErrInvalidArgument)
	}
	if !models.IsValidAccessType(accessType) {
		return nil, fmt.Errorf("%w: unknown access type %q", ErrInvalidArgument, accessType)
	}

	if err := s.grants.UpdateAccessType(ctx, ownerID, memberID, accessType); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: no grant for member %s", ErrNotFound, memberID)
		}
		return nil, err
	}
	return s.grants.Get(ctx, ownerID, memberID)
}

// CardStats summarises sharing activity for the dashboard
type CardStats struct {
	ListsSharedByYou   int          `json:"emailListsSharedByYou"`
	ListsSharedWithYou int          `json:"emailListsSharedWithYou"`
	MembersAddedByYou  int          `json:"membersAddedByYou"`
	Members            []MemberCard `json:"membersList"`
}

type MemberCard struct {
	GrantID    string            `json:"id"`
	MemberID   string            `json:"memberId"`
	Email      string            `json:"email,omitempty"`
	AccessType models.AccessType `json:"accessType"`
	SharedOn   time.Time         `json:"sharedOn"`
	TotalLists int               `json:"totalLists"`
}

// Stats computes the sharing card counters for ownerID
func (s *ShareService) Stats(ctx context.Context, ownerID string) (*CardStats, error) {
	byYou, err := s.grants.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	withYou, err := s.grants.ListForMember(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &CardStats{
		ListsSharedByYou:   distinctListCount(byYou),
		ListsSharedWithYou: distinctListCount(withYou),
		MembersAddedByYou:  len(byYou),
		Members:            make([]MemberCard, 0, len(byYou)),
	}
	for _, grant := range byYou {
		card := MemberCard{
			GrantID:    grant.ID,
			MemberID:   grant.MemberID,
			AccessType: grant.AccessType,
			SharedOn:   grant.SharedOn,
			TotalLists: len(grant.EmailLists),
		}
		if grant.Member != nil {
			card.Email = grant.Member.Email
		}
		stats.Members = append(stats.Members, card)
	}
	return stats, nil
}

// SharedListIDs returns every list id shared with the given member
func (s *ShareService) SharedListIDs(ctx context.Context, memberID string) ([]string, error) {
	grants, err := s.grants.ListForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, grant := range grants {
		for _, list := range grant.EmailLists {
			if _, ok := seen[list.ID]; !ok {
				seen[list.ID] = struct{}{}
				ids = append(ids, list.ID)
			}
		}
	}
	return ids, nil
}

// unionListIDs merges a grant's current list set with new ids, preserving
// insertion order and dropping duplicates.
func unionListIDs(grant *models.TeamMember, newIDs []string) []string {
	seen := make(map[string]struct{}, len(grant.EmailLists)+len(newIDs))
	merged := make([]string, 0, len(grant.EmailLists)+len(newIDs))
	for _, list := range grant.EmailLists {
		if _, ok := seen[list.ID]; !ok {
			seen[list.ID] = struct{}{}
			merged = append(merged, list.ID)
		}
	}
	for _, id := range newIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	return merged
}

func dedupe(ids []string) []string {
	return unionListIDs(&models.TeamMember{}, ids)
}

func distinctListCount(grants []models.TeamMember) int {
	seen := make(map[string]struct{})
	for _, grant := range grants {
		for _, list := range grant.EmailLists {
			seen[list.ID] = struct{}{}
		}
	}
	return len(seen)
}
