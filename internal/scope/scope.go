// Package scope defines which owners a partner-scoped query covers.
package scope

import (
	"slices"
	"strings"

	"couple-journal-backend/internal/models"
)

// Audience selects whose rows a query includes
type Audience string

const (
	Mine   Audience = "mine"
	Theirs Audience = "theirs"
	Both   Audience = "both"
)

// ParseAudience parses a query parameter. Empty means Both.
func ParseAudience(s string) (Audience, error) {
	switch a := Audience(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return Both, nil
	case Mine, Theirs, Both:
		return a, nil
	default:
		return "", models.NewValidationError("audience must be one of mine, theirs, both")
	}
}

// OwnerSet is the set of owner ids a fetch is filtered by
type OwnerSet []string

// Contains reports whether id is in the set
func (s OwnerSet) Contains(id string) bool {
	return slices.Contains(s, id)
}

// Empty reports whether the set selects no owner at all
func (s OwnerSet) Empty() bool {
	return len(s) == 0
}

// BuildFilter resolves an audience against self and an optional partner.
// Theirs without a partner is the empty set, which matches no rows.
func BuildFilter(audience Audience, self, partner *models.Profile) OwnerSet {
	switch audience {
	case Mine:
		return OwnerSet{self.ID}
	case Theirs:
		if partner == nil {
			return OwnerSet{}
		}
		return OwnerSet{partner.ID}
	default:
		if partner == nil {
			return OwnerSet{self.ID}
		}
		return OwnerSet{self.ID, partner.ID}
	}
}
