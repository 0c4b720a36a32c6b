package identity

import (
	"context"
	"fmt"
	"time"

	"couple-journal-backend/internal/models"
)

// Identity is the resolved caller: their own profile and, if linked, their partner's
type Identity struct {
	Self    *models.Profile
	Partner *models.Profile
}

// SelfID returns the caller's profile id
func (i Identity) SelfID() string {
	return i.Self.ID
}

// PartnerID returns the partner's profile id, or empty
func (i Identity) PartnerID() string {
	if i.Partner == nil {
		return ""
	}
	return i.Partner.ID
}

// Members lists the ids of everyone who can see the caller's rows
func (i Identity) Members() []string {
	if i.Partner == nil {
		return []string{i.Self.ID}
	}
	return []string{i.Self.ID, i.Partner.ID}
}

// ProfileGetter is the profile lookup the resolver needs
type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// Resolver turns a session into an Identity
type Resolver struct {
	profiles ProfileGetter
	now      func() time.Time
}

// NewResolver creates a new resolver
func NewResolver(profiles ProfileGetter) *Resolver {
	return &Resolver{profiles: profiles, now: time.Now}
}

// Resolve looks up the session subject's profile and then the partner's.
// A missing partner, or a partner id pointing at no row, is not an error.
func (r *Resolver) Resolve(ctx context.Context, session *Session) (Identity, error) {
	if !session.Valid(r.now()) {
		return Identity{}, models.NewNotAuthenticatedError("no valid session")
	}

	self, err := r.profiles.GetByID(ctx, session.Subject)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return Identity{}, models.NewProfileMissingError(session.Subject)
		}
		return Identity{}, fmt.Errorf("failed to resolve profile: %w", err)
	}

	if !self.HasPartner() {
		return Identity{Self: self}, nil
	}

	partner, err := r.profiles.GetByID(ctx, *self.PartnerID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return Identity{Self: self}, nil
		}
		return Identity{}, fmt.Errorf("failed to resolve partner: %w", err)
	}

	return Identity{Self: self, Partner: partner}, nil
}

// ResolveContext resolves the session carried by ctx
func (r *Resolver) ResolveContext(ctx context.Context) (Identity, error) {
	return r.Resolve(ctx, SessionFrom(ctx))
}
