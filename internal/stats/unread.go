package stats

import "couple-journal-backend/internal/models"

// ReadRule says who a readable row is addressed to
type ReadRule int

const (
	// RecipientOwned rows are addressed to their owner (quotes)
	RecipientOwned ReadRule = iota
	// SenderOwned rows are addressed to whoever is not the owner (chat)
	SenderOwned
)

func (r ReadRule) addressedTo(item models.Entity, viewerID string) bool {
	if r == RecipientOwned {
		return item.EntityOwner() == viewerID
	}
	return item.EntityOwner() != viewerID
}

// PartitionUnread splits items into those unread by viewerID and the rest.
// Both halves keep input order.
func PartitionUnread[T models.Readable](items []T, viewerID string, rule ReadRule) (unread, rest []T) {
	unread, rest = []T{}, []T{}
	for _, item := range items {
		if !item.Read() && rule.addressedTo(item, viewerID) {
			unread = append(unread, item)
		} else {
			rest = append(rest, item)
		}
	}
	return unread, rest
}

// IDs returns the ids of items in order
func IDs[T models.Entity](items []T) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.EntityID())
	}
	return ids
}

// ReactionCounts counts reactions on one post per kind. Every kind is present.
func ReactionCounts(reactions []*models.Reaction, postID string) map[models.ReactionKind]int {
	counts := make(map[models.ReactionKind]int, len(models.ReactionKinds))
	for _, k := range models.ReactionKinds {
		counts[k] = 0
	}
	for _, r := range reactions {
		if r.PostID == postID {
			counts[r.Kind]++
		}
	}
	return counts
}
