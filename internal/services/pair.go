package services

import (
	"context"
	"fmt"
	"strings"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/store"
)

// PairNotifier is told when two profiles are linked or unlinked
type PairNotifier interface {
	NotifyPairLinked(aID, bID string)
	NotifyPairUnlinked(aID, bID string)
}

// PairService links two profiles into a couple and splits them again
type PairService struct {
	profiles store.ProfileTable
	notifier PairNotifier
}

// NewPairService creates a new pair service
func NewPairService(profiles store.ProfileTable, notifier PairNotifier) *PairService {
	return &PairService{
		profiles: profiles,
		notifier: notifier,
	}
}

// CreatePairRequest represents a request to link with a partner
type CreatePairRequest struct {
	PartnerCode string `json:"partner_code"`
}

// CreatePair links the caller with the profile owning partnerCode and returns the partner
func (s *PairService) CreatePair(ctx context.Context, caller identity.Identity, partnerCode string) (*models.Profile, error) {
	partnerCode = strings.ToUpper(strings.TrimSpace(partnerCode))
	if len(partnerCode) != codeLength {
		return nil, models.NewValidationError(fmt.Sprintf("partner code must be %d characters", codeLength))
	}

	if caller.Partner != nil {
		return nil, models.NewConflictError("you are already linked with a partner")
	}

	partner, err := s.profiles.GetByLinkCode(ctx, partnerCode)
	if err != nil {
		return nil, fmt.Errorf("partner not found: %w", err)
	}

	if partner.ID == caller.SelfID() {
		return nil, models.NewValidationError("cannot link with yourself")
	}
	if partner.HasPartner() {
		return nil, models.NewConflictError("partner is already linked")
	}

	if err := s.profiles.Link(ctx, caller.SelfID(), partner.ID); err != nil {
		return nil, fmt.Errorf("failed to create pair: %w", err)
	}

	selfID := caller.SelfID()
	partner.PartnerID = &selfID
	s.notifier.NotifyPairLinked(selfID, partner.ID)
	return partner, nil
}

// DeletePair unlinks the caller from their partner
func (s *PairService) DeletePair(ctx context.Context, caller identity.Identity) error {
	if caller.Partner == nil {
		return models.NewNotFoundError("pair", caller.SelfID())
	}

	if err := s.profiles.Unlink(ctx, caller.SelfID(), caller.PartnerID()); err != nil {
		return fmt.Errorf("failed to delete pair: %w", err)
	}

	s.notifier.NotifyPairUnlinked(caller.SelfID(), caller.PartnerID())
	return nil
}
