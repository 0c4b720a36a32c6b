package testutil

import (
	"context"
	"sync"

	"couple-journal-backend/internal/models"
)

// Profiles is the in-memory store.ProfileTable and store.AccountTable
type Profiles struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	accounts map[string]models.Account
}

// NewProfiles creates an empty profile table
func NewProfiles() *Profiles {
	return &Profiles{
		profiles: make(map[string]models.Profile),
		accounts: make(map[string]models.Account),
	}
}

// Put stores p as-is, replacing any previous version
func (s *Profiles) Put(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = *p
}

func (s *Profiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, models.NewNotFoundError("profile", id)
	}
	return &p, nil
}

func (s *Profiles) GetByLinkCode(_ context.Context, code string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.LinkCode == code {
			return &p, nil
		}
	}
	return nil, models.NewNotFoundError("profile", code)
}

func (s *Profiles) LinkCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.GetByLinkCode(ctx, code)
	return err == nil, nil
}

func (s *Profiles) Link(_ context.Context, aID, bID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, okA := s.profiles[aID]
	b, okB := s.profiles[bID]
	if !okA || !okB {
		return models.NewNotFoundError("profile", aID)
	}
	if a.HasPartner() || b.HasPartner() {
		return models.NewConflictError("profile is already linked")
	}
	a.PartnerID, b.PartnerID = &b.ID, &a.ID
	s.profiles[aID], s.profiles[bID] = a, b
	return nil
}

func (s *Profiles) Unlink(_ context.Context, aID, bID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := false
	for _, ids := range [][2]string{{aID, bID}, {bID, aID}} {
		p, ok := s.profiles[ids[0]]
		if ok && p.PartnerID != nil && *p.PartnerID == ids[1] {
			p.PartnerID = nil
			s.profiles[ids[0]] = p
			touched = true
		}
	}
	if !touched {
		return models.NewNotFoundError("pair", aID)
	}
	return nil
}

func (s *Profiles) UpdatePushToken(_ context.Context, id string, pushToken *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return models.NewNotFoundError("profile", id)
	}
	p.PushToken = pushToken
	s.profiles[id] = p
	return nil
}

// Create stores the account and profile together
func (s *Profiles) Create(_ context.Context, account *models.Account, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.Email]; exists {
		return models.NewConflictError("email is already registered")
	}
	s.accounts[account.Email] = *account
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *Profiles) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, models.NewNotFoundError("account", email)
	}
	return &a, nil
}
